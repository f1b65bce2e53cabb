package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zhouzirui/docchat/internal/model/chat"
	"github.com/zhouzirui/docchat/internal/model/widget"
)

// DefaultTimeout bounds a single backend call. The backend gives a query
// 30 seconds, so the client waits a little longer than that.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of a failure body is read when looking for detail.
const maxErrorBody = 64 << 10

var (
	ErrBaseURLRequired   = errors.New("backend base url is required")
	ErrMalformedResponse = errors.New("malformed response body")
)

// APIError is a non-success HTTP response from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// QueryReply is a decoded success body of POST /chat/query.
type QueryReply struct {
	Reply       string
	ChunksCount *int
}

// Client talks to the document chat backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base url %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchSettings reads GET /chatbot/settings/{workspaceID}.
func (c *Client) FetchSettings(ctx context.Context, workspaceID string) (widget.Settings, error) {
	endpoint := c.baseURL + "/chatbot/settings/" + url.PathEscape(workspaceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return widget.Settings{}, fmt.Errorf("build settings request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return widget.Settings{}, fmt.Errorf("fetch settings: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return widget.Settings{}, decodeAPIError(resp)
	}

	var settings widget.Settings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return widget.Settings{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return settings, nil
}

// Query posts one user message to POST /chat/query.
func (c *Client) Query(ctx context.Context, workspaceID, message string) (QueryReply, error) {
	payload, err := json.Marshal(chat.QueryRequest{WorkspaceID: workspaceID, Message: message})
	if err != nil {
		return QueryReply{}, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/query", bytes.NewReader(payload))
	if err != nil {
		return QueryReply{}, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return QueryReply{}, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return QueryReply{}, decodeAPIError(resp)
	}

	// reply is a pointer so a body without it is rejected rather than read as "".
	var body struct {
		Reply       *string `json:"reply"`
		ChunksCount *int    `json:"chunks_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return QueryReply{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if body.Reply == nil {
		return QueryReply{}, fmt.Errorf("%w: missing reply", ErrMalformedResponse)
	}

	return QueryReply{Reply: *body.Reply, ChunksCount: body.ChunksCount}, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// decodeAPIError extracts {"detail": "..."} when the body carries one.
func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body chat.ErrorBody
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Detail = strings.TrimSpace(body.Detail)
	}
	return apiErr
}
