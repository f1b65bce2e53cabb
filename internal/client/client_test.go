package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/docchat/internal/model/chat"
)

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("   ")
	require.ErrorIs(t, err, ErrBaseURLRequired)

	c, err := New("http://example.test/")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", c.BaseURL())
}

func TestFetchSettings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/chatbot/settings/w1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bot_name":"Helper","chat_position":"left"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	settings, err := c.FetchSettings(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, "Helper", settings.BotName)
	assert.Equal(t, "left", settings.ChatPosition)
	assert.Empty(t, settings.PrimaryColor)
}

func TestFetchSettingsNonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Workspace not found"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.FetchSettings(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Workspace not found", apiErr.Error())
}

func TestQuerySendsWorkspaceAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chat.QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, chat.QueryRequest{WorkspaceID: "w1", Message: "hello"}, req)

		_, _ = w.Write([]byte(`{"reply":"Hi there!","chunks_count":3}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	reply, err := c.Query(context.Background(), "w1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply.Reply)
	require.NotNil(t, reply.ChunksCount)
	assert.Equal(t, 3, *reply.ChunksCount)
}

func TestQueryWithoutChunkCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reply":"ok"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	reply, err := c.Query(context.Background(), "w1", "hello")
	require.NoError(t, err)
	assert.Nil(t, reply.ChunksCount)
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantText   string
		malformed  bool
	}{
		{name: "detail", status: http.StatusInternalServerError, body: `{"detail":"boom"}`, wantStatus: 500, wantText: "boom"},
		{name: "opaque", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantStatus: 502, wantText: "HTTP 502"},
		{name: "structured detail", status: http.StatusUnprocessableEntity, body: `{"detail":[{"loc":["body"]}]}`, wantStatus: 422, wantText: "HTTP 422"},
		{name: "empty", status: http.StatusServiceUnavailable, wantStatus: 503, wantText: "HTTP 503"},
		{name: "missing reply", status: http.StatusOK, body: `{"chunks_count":2}`, malformed: true},
		{name: "not json", status: http.StatusOK, body: `hello`, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(srv.URL)
			require.NoError(t, err)

			_, err = c.Query(context.Background(), "w1", "x")
			require.Error(t, err)

			if tt.malformed {
				assert.True(t, errors.Is(err, ErrMalformedResponse), "expected malformed error, got %v", err)
				return
			}

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantText, apiErr.Error())
		})
	}
}

func TestQueryTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = c.Query(context.Background(), "w1", "x")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
