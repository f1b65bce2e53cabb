package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/docchat/internal/config"
	"github.com/zhouzirui/docchat/internal/embeddings"
	"github.com/zhouzirui/docchat/internal/handler"
	"github.com/zhouzirui/docchat/internal/service/ai"
	"github.com/zhouzirui/docchat/internal/service/chat"
	"github.com/zhouzirui/docchat/internal/service/retrieval"
	"github.com/zhouzirui/docchat/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zerolog.TimeFieldFormat = time.RFC3339
	if os.Getenv("LOG_FORMAT") != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("failed to load .env file, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to open database")
	}
	defer st.Close()

	index := retrieval.NewIndex(
		retrieval.WithEmbedder(newEmbedder(cfg.AI)),
		retrieval.WithChunkSize(cfg.RAG.ChunkSize),
		retrieval.WithMinScore(cfg.RAG.MinScore),
	)
	workspaces, err := index.LoadDir(ctx, cfg.RAG.DocsDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", cfg.RAG.DocsDir).Msg("failed to load documents")
	}
	for _, id := range workspaces {
		if err := st.EnsureWorkspace(ctx, id, id); err != nil {
			log.Fatal().Err(err).Str("workspace", id).Msg("failed to register workspace")
		}
	}

	searchable := index.Workspaces()
	for _, id := range searchable {
		log.Debug().Str("workspace", id).Int("chunks", index.ChunkCount(id)).Msg("workspace searchable")
	}
	log.Info().
		Int("workspaces", len(workspaces)).
		Strs("searchable", searchable).
		Str("embedder", index.EmbedderName()).
		Msg("document index ready")

	// Initialize AI service
	var generator chat.Generator
	if cfg.AI.Enabled() {
		aiService, err := newAIService(ctx, cfg.AI)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize AI service, continuing without answer generation")
		} else {
			generator = aiService
			log.Info().Str("model", cfg.AI.Model).Msg("AI service initialized")
		}
	} else {
		log.Warn().Msg("Ark credentials not configured, skipping AI initialization")
	}

	chatService := chat.NewService(st, index, generator,
		chat.WithTopK(cfg.RAG.TopK),
		chat.WithTimeout(cfg.RAG.QueryTimeout),
	)

	router := handler.NewRouter(st, chatService, handler.Options{
		AllowedOrigins: cfg.RAG.AllowedOrigins,
		RatePerMinute:  cfg.RAG.RatePerMinute,
	})

	startServer(ctx, cfg.Server, router)
}

// newEmbedder prefers the remote embedding model and falls back to lexical
// vectors when none is configured.
func newEmbedder(cfg config.AIConfig) embeddings.Embedder {
	if cfg.EmbeddingEnabled() {
		return embeddings.NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.EmbedModel)
	}
	log.Warn().Msg("EMBED_MODEL or ARK_API_KEY not set, indexing documents with lexical vectors")
	return embeddings.NewLexicalEmbedder(0)
}

func newAIService(ctx context.Context, cfg config.AIConfig) (*ai.Service, error) {
	chatModel, err := ai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ai.NewService(ctx, chatModel)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("docchat backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
