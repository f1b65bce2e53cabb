package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/docchat/internal/model/chat"
	"github.com/zhouzirui/docchat/internal/model/workspace"
	"github.com/zhouzirui/docchat/internal/service/retrieval"
	"github.com/zhouzirui/docchat/internal/store"
)

const (
	MaxMessageLength = 2000
	DefaultTopK      = 5
	DefaultTimeout   = 30 * time.Second

	// NoDocumentsReply replaces the model's answer when retrieval found nothing.
	NoDocumentsReply = "I don't have any relevant information in the documents to answer this question. Please make sure documents are uploaded and processed in this workspace."

	previewLength = 200
)

var (
	ErrWorkspaceNotFound    = errors.New("workspace not found")
	ErrMessageRequired      = errors.New("message cannot be empty")
	ErrMessageTooLong       = fmt.Errorf("message cannot exceed %d characters", MaxMessageLength)
	ErrQueryTimeout         = errors.New("query timed out")
	ErrAssistantUnavailable = errors.New("ai assistant is not configured")
)

// Generator writes an answer from document context.
type Generator interface {
	Answer(ctx context.Context, contextText, question string) (string, error)
}

// Searcher finds the chunks relevant to a question.
type Searcher interface {
	Search(ctx context.Context, workspaceID, query string, topK int) ([]retrieval.Match, error)
}

// Store is the persistence the chat service needs.
type Store interface {
	GetWorkspace(ctx context.Context, id string) (workspace.Workspace, error)
	LogMessage(ctx context.Context, entry chat.MessageLog) (chat.MessageLog, error)
}

// Option customises a Service.
type Option func(*Service)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(topK int) Option {
	return func(s *Service) {
		if topK > 0 {
			s.topK = topK
		}
	}
}

// WithTimeout bounds retrieval plus generation.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// Service answers workspace questions from their documents.
type Service struct {
	store     Store
	searcher  Searcher
	generator Generator
	topK      int
	timeout   time.Duration
}

// NewService wires the query pipeline. generator may be nil when no model is
// configured; questions with matching chunks then fail with ErrAssistantUnavailable.
func NewService(st Store, searcher Searcher, generator Generator, opts ...Option) *Service {
	s := &Service{
		store:     st,
		searcher:  searcher,
		generator: generator,
		topK:      DefaultTopK,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query answers message for the workspace.
func (s *Service) Query(ctx context.Context, workspaceID, message string) (chat.QueryResponse, error) {
	if _, err := s.store.GetWorkspace(ctx, workspaceID); err != nil {
		if errors.Is(err, store.ErrWorkspaceNotFound) {
			return chat.QueryResponse{}, ErrWorkspaceNotFound
		}
		return chat.QueryResponse{}, err
	}

	question := strings.TrimSpace(message)
	if question == "" {
		return chat.QueryResponse{}, ErrMessageRequired
	}
	if utf8.RuneCountInString(question) > MaxMessageLength {
		return chat.QueryResponse{}, ErrMessageTooLong
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	matches, err := s.searcher.Search(queryCtx, workspaceID, question, s.topK)
	if err != nil {
		if errors.Is(queryCtx.Err(), context.DeadlineExceeded) {
			return chat.QueryResponse{}, ErrQueryTimeout
		}
		return chat.QueryResponse{}, fmt.Errorf("search documents: %w", err)
	}
	count := len(matches)

	reply := NoDocumentsReply
	if count > 0 {
		if s.generator == nil {
			return chat.QueryResponse{}, ErrAssistantUnavailable
		}
		answer, err := s.generator.Answer(queryCtx, BuildContext(matches), question)
		if err != nil {
			if errors.Is(queryCtx.Err(), context.DeadlineExceeded) {
				return chat.QueryResponse{}, ErrQueryTimeout
			}
			return chat.QueryResponse{}, fmt.Errorf("generate answer: %w", err)
		}
		reply = answer
	}

	s.logExchange(ctx, chat.MessageLog{
		WorkspaceID:   workspaceID,
		Question:      question,
		Answer:        reply,
		IsContextUsed: count > 0,
	})

	return chat.QueryResponse{
		Reply:        reply,
		SourceChunks: sourceChunks(matches),
		ChunksCount:  &count,
	}, nil
}

func (s *Service) logExchange(ctx context.Context, entry chat.MessageLog) {
	if _, err := s.store.LogMessage(ctx, entry); err != nil {
		log.Warn().Err(err).Str("workspace", entry.WorkspaceID).Msg("failed to log message")
	}
}

// BuildContext renders matches as the labelled context block given to the model.
func BuildContext(matches []retrieval.Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("[Document %s - Chunk %d]\n%s", m.DocumentID, m.Index, m.Text))
	}
	return strings.Join(parts, "\n\n")
}

func sourceChunks(matches []retrieval.Match) []chat.SourceChunk {
	if len(matches) == 0 {
		return nil
	}
	chunks := make([]chat.SourceChunk, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, chat.SourceChunk{
			DocumentID: m.DocumentID,
			ChunkIndex: m.Index,
			Text:       preview(m.Text),
			Score:      m.Score,
		})
	}
	return chunks
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
