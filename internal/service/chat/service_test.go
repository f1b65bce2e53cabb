package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modelchat "github.com/zhouzirui/docchat/internal/model/chat"
	"github.com/zhouzirui/docchat/internal/model/workspace"
	chat "github.com/zhouzirui/docchat/internal/service/chat"
	"github.com/zhouzirui/docchat/internal/service/retrieval"
	"github.com/zhouzirui/docchat/internal/store"
)

type fakeGenerator struct {
	answer      string
	err         error
	wait        bool
	gotContext  string
	gotQuestion string
}

func (f *fakeGenerator) Answer(ctx context.Context, contextText, question string) (string, error) {
	f.gotContext = contextText
	f.gotQuestion = question
	if f.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.answer, f.err
}

type failingLogStore struct {
	*store.Store
}

func (failingLogStore) LogMessage(context.Context, modelchat.MessageLog) (modelchat.MessageLog, error) {
	return modelchat.MessageLog{}, errors.New("disk full")
}

// stubSearcher fails every search, optionally after the context expires.
type stubSearcher struct {
	err  error
	wait bool
}

func (s stubSearcher) Search(ctx context.Context, _, _ string, _ int) ([]retrieval.Match, error) {
	if s.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return nil, s.err
}

func newFixture(t *testing.T) (*store.Store, *retrieval.Index) {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.EnsureWorkspace(context.Background(), "w1", "Handbook"))

	idx := retrieval.NewIndex()
	_, err = idx.AddDocument(context.Background(), "w1", "leave.md",
		"Annual leave is 25 days per year.\n\n"+strings.Repeat("Leave requests go through the portal. ", 10))
	require.NoError(t, err)
	return st, idx
}

func TestQueryAnswersFromDocuments(t *testing.T) {
	st, idx := newFixture(t)
	gen := &fakeGenerator{answer: "You get 25 days of annual leave."}
	svc := chat.NewService(st, idx, gen)

	resp, err := svc.Query(context.Background(), "w1", "  How much annual leave do I get?  ")
	require.NoError(t, err)

	assert.Equal(t, gen.answer, resp.Reply)
	require.NotNil(t, resp.ChunksCount)
	assert.Equal(t, 1, *resp.ChunksCount)
	assert.Equal(t, "How much annual leave do I get?", gen.gotQuestion)
	assert.True(t, strings.HasPrefix(gen.gotContext, "[Document leave.md - Chunk 0]\n"), gen.gotContext)

	require.Len(t, resp.SourceChunks, 1)
	preview := resp.SourceChunks[0].Text
	assert.Len(t, []rune(preview), 203)
	assert.True(t, strings.HasSuffix(preview, "..."))
	assert.Greater(t, resp.SourceChunks[0].Score, 0.0)

	summary, err := st.Summary(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.WithContext)
}

func TestQueryWithoutMatchesUsesNoDocumentsReply(t *testing.T) {
	st, idx := newFixture(t)
	gen := &fakeGenerator{answer: "should not be used"}
	svc := chat.NewService(st, idx, gen)

	resp, err := svc.Query(context.Background(), "w1", "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, chat.NoDocumentsReply, resp.Reply)
	require.NotNil(t, resp.ChunksCount, "zero chunk count must be explicit")
	assert.Zero(t, *resp.ChunksCount)
	assert.Empty(t, gen.gotQuestion, "generator must not run without context")

	summary, err := st.Summary(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.WithoutContext)
}

func TestQueryValidation(t *testing.T) {
	st, idx := newFixture(t)
	svc := chat.NewService(st, idx, &fakeGenerator{})

	cases := []struct {
		name      string
		workspace string
		message   string
		want      error
	}{
		{"unknown workspace", "missing", "hello", chat.ErrWorkspaceNotFound},
		{"blank message", "w1", "   ", chat.ErrMessageRequired},
		{"too long", "w1", strings.Repeat("x", chat.MaxMessageLength+1), chat.ErrMessageTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Query(context.Background(), tc.workspace, tc.message)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestQueryWithoutGenerator(t *testing.T) {
	st, idx := newFixture(t)
	svc := chat.NewService(st, idx, nil)

	_, err := svc.Query(context.Background(), "w1", "annual leave")
	assert.ErrorIs(t, err, chat.ErrAssistantUnavailable)

	_, err = svc.Query(context.Background(), "w1", "capital of France")
	assert.NoError(t, err, "no-context questions need no model")
}

func TestQueryTimeout(t *testing.T) {
	st, idx := newFixture(t)

	svc := chat.NewService(st, idx, &fakeGenerator{wait: true}, chat.WithTimeout(20*time.Millisecond))
	_, err := svc.Query(context.Background(), "w1", "annual leave")
	assert.ErrorIs(t, err, chat.ErrQueryTimeout)

	svc = chat.NewService(st, stubSearcher{wait: true}, &fakeGenerator{}, chat.WithTimeout(20*time.Millisecond))
	_, err = svc.Query(context.Background(), "w1", "annual leave")
	assert.ErrorIs(t, err, chat.ErrQueryTimeout)
}

func TestQuerySearchFailure(t *testing.T) {
	st, _ := newFixture(t)
	boom := errors.New("embedding backend down")
	gen := &fakeGenerator{answer: "unused"}
	svc := chat.NewService(st, stubSearcher{err: boom}, gen)

	_, err := svc.Query(context.Background(), "w1", "annual leave")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, gen.gotQuestion)

	summary, err := st.Summary(context.Background(), "w1")
	require.NoError(t, err)
	assert.Zero(t, summary.Total, "failed queries are not logged")
}

func TestQueryGeneratorFailure(t *testing.T) {
	st, idx := newFixture(t)
	boom := errors.New("model exploded")
	svc := chat.NewService(st, idx, &fakeGenerator{err: boom})

	_, err := svc.Query(context.Background(), "w1", "annual leave")
	assert.ErrorIs(t, err, boom)
}

func TestQueryIgnoresLogFailure(t *testing.T) {
	st, idx := newFixture(t)
	svc := chat.NewService(failingLogStore{st}, idx, &fakeGenerator{answer: "25 days"})

	resp, err := svc.Query(context.Background(), "w1", "annual leave")
	require.NoError(t, err, "log failures must not fail the query")
	assert.Equal(t, "25 days", resp.Reply)
}

func TestWorkspaceSettingsUnaffectedByQueries(t *testing.T) {
	st, idx := newFixture(t)
	color := "#10b981"
	_, err := st.UpdateSettings(context.Background(), "w1", workspace.SettingsUpdate{PrimaryColor: &color})
	require.NoError(t, err)

	svc := chat.NewService(st, idx, &fakeGenerator{answer: "ok"}, chat.WithTopK(1))
	_, err = svc.Query(context.Background(), "w1", "annual leave portal")
	require.NoError(t, err)

	ws, err := st.GetWorkspace(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, color, ws.Settings.PrimaryColor)
}
