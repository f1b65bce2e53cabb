package widget

import (
	"context"
	"errors"
	"strings"

	"github.com/zhouzirui/docchat/internal/client"
	model "github.com/zhouzirui/docchat/internal/model/widget"
)

const (
	// NoContextReply replaces the backend reply when no source material was found.
	NoContextReply = "I don't have information about that in the documents. Please make sure documents are uploaded and processed in this workspace."
	// GenericQueryError is shown when a failure carries no usable message.
	GenericQueryError = "Failed to get response. Please try again."
)

// Phrases the backend and its model use when nothing relevant was retrieved.
var noContextMarkers = []string{
	"don't have any relevant information",
	"Information not available",
}

// OutcomeKind classifies what a send produced.
type OutcomeKind int

const (
	// OutcomeSkipped means the input was blank and nothing happened.
	OutcomeSkipped OutcomeKind = iota
	OutcomeReply
	OutcomeFallback
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeReply:
		return "reply"
	case OutcomeFallback:
		return "fallback"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the single result of an accepted send. Text is the rendered
// assistant reply or the rendered error message.
type Outcome struct {
	Kind OutcomeKind
	Text string
}

// IsNoContext reports whether a reply means the backend found nothing
// relevant: an explicit zero chunk count, or one of the known phrases.
func IsNoContext(reply string, chunksCount *int) bool {
	if chunksCount != nil && *chunksCount == 0 {
		return true
	}
	for _, marker := range noContextMarkers {
		if strings.Contains(reply, marker) {
			return true
		}
	}
	return false
}

// Send submits one user message and blocks until its outcome has been
// rendered. Blank input is ignored. A send while another is outstanding
// returns ErrSendInFlight without touching the transcript.
func (c *Controller) Send(ctx context.Context, text string) (Outcome, error) {
	message := strings.TrimSpace(text)
	if message == "" {
		return Outcome{Kind: OutcomeSkipped}, nil
	}

	c.mu.Lock()
	if !c.request.Accepting() {
		c.mu.Unlock()
		return Outcome{}, ErrSendInFlight
	}
	c.request.Phase = model.PhaseInFlight
	c.mu.Unlock()

	c.turnMu.Lock()
	c.appendTurn(model.UserTurn(message))
	c.turnMu.Unlock()
	c.surface.SetBusy(true)

	outcome := c.exchange(ctx, message)

	c.mu.Lock()
	c.request.Phase = model.PhaseIdle
	c.mu.Unlock()

	c.surface.SetBusy(false)
	c.surface.FocusInput()

	return outcome, nil
}

// exchange runs the backend call and renders exactly one outcome.
func (c *Controller) exchange(ctx context.Context, message string) Outcome {
	reply, err := c.backend.Query(ctx, c.workspaceID, message)
	if err != nil {
		return c.fail(queryErrorMessage(err), err)
	}

	if IsNoContext(reply.Reply, reply.ChunksCount) {
		c.appendTurn(model.AssistantTurn(NoContextReply))
		return Outcome{Kind: OutcomeFallback, Text: NoContextReply}
	}

	c.appendTurn(model.AssistantTurn(reply.Reply))
	return Outcome{Kind: OutcomeReply, Text: reply.Reply}
}

func (c *Controller) fail(message string, cause error) Outcome {
	c.mu.Lock()
	c.request = model.RequestState{Phase: model.PhaseError, LastError: message}
	c.mu.Unlock()

	c.logger.Error().Err(cause).Msg("chat query failed")
	c.surface.ShowError(message)
	return Outcome{Kind: OutcomeError, Text: message}
}

// queryErrorMessage picks the most useful human-readable text for a failure.
func queryErrorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, client.ErrMalformedResponse) {
		return GenericQueryError
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return GenericQueryError
}
