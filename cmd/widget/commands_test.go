package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/docchat/internal/model/chat"
	"github.com/zhouzirui/docchat/internal/model/widget"
)

func newBackend(t *testing.T, queryStatus int, queryBody any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /chatbot/settings/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "w1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(widget.Settings{BotName: "Helper", ChatPosition: "left"})
	})
	mux.HandleFunc("POST /chat/query", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(queryStatus)
		json.NewEncoder(w).Encode(queryBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("WIDGET_WORKSPACE_ID", "")
	t.Setenv("WIDGET_API_URL", "")
	t.Setenv("WIDGET_TIMEOUT_SECONDS", "")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestAskPrintsReply(t *testing.T) {
	count := 1
	srv := newBackend(t, http.StatusOK, chat.QueryResponse{Reply: "Refunds take 14 days.", ChunksCount: &count})

	out, _, err := run(t, "ask", "--workspace", "w1", "--api-url", srv.URL, "how", "long?")
	require.NoError(t, err)
	assert.Equal(t, "Helper: Refunds take 14 days.\n", out)
}

func TestAskReportsQueryError(t *testing.T) {
	srv := newBackend(t, http.StatusTooManyRequests, chat.ErrorBody{Detail: "Too many requests - please slow down"})

	_, errOut, err := run(t, "ask", "-w", "w1", "--api-url", srv.URL, "hello")
	assert.ErrorIs(t, err, errQueryFailed)
	assert.Contains(t, errOut, "❌ Too many requests - please slow down")
}

func TestAskRequiresWorkspace(t *testing.T) {
	_, _, err := run(t, "ask", "hello")
	assert.Error(t, err)
}

func TestProfileResolvesSettings(t *testing.T) {
	srv := newBackend(t, http.StatusOK, nil)

	out, _, err := run(t, "profile", "-w", "w1", "--api-url", srv.URL, "--json")
	require.NoError(t, err)

	var got widget.Settings
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Helper", got.BotName)
	assert.Equal(t, "left", got.ChatPosition)
	assert.Equal(t, widget.DefaultAccentColor, got.PrimaryColor)
}

func TestProfileFallsBackToDefaults(t *testing.T) {
	srv := newBackend(t, http.StatusOK, nil)

	out, _, err := run(t, "profile", "-w", "unknown", "--api-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "workspace: unknown\n")
	assert.Contains(t, out, "name:      "+widget.DefaultDisplayName)
	assert.Contains(t, out, "position:  right")
}
