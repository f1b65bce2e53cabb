package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/docchat/internal/model/chat"
	"github.com/zhouzirui/docchat/internal/store"
)

func TestSummary(t *testing.T) {
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory err: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.EnsureWorkspace(ctx, "w1", ""); err != nil {
		t.Fatalf("EnsureWorkspace err: %v", err)
	}
	for _, used := range []bool{true, true, false} {
		if _, err := st.LogMessage(ctx, chat.MessageLog{WorkspaceID: "w1", Question: "q", Answer: "a", IsContextUsed: used}); err != nil {
			t.Fatalf("LogMessage err: %v", err)
		}
	}

	r := chi.NewRouter()
	New(st).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/analytics/w1/summary", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var got chat.Summary
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	want := chat.Summary{WorkspaceID: "w1", Total: 3, WithContext: 2, WithoutContext: 1}
	if got != want {
		t.Fatalf("unexpected summary: got %+v want %+v", got, want)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/analytics/missing/summary", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
