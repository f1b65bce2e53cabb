package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/docchat/internal/config"
)

// ErrNotConfigured is returned when no model credentials are available.
var ErrNotConfigured = errors.New("ark credentials or model missing: set ARK_MODEL with ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")

// NotAvailableAnswer is what the model is told to say when the context does
// not cover the question.
const NotAvailableAnswer = "Information not available in the documents."

const systemPrompt = `You are an AI assistant for this organization.
You have access to the organization's documents and knowledge base.

Instructions:
- Only use the provided context to answer questions
- If the answer is not found in the provided context, say "` + NotAvailableAnswer + `"
- Be concise and accurate
- Cite relevant information when possible
- If asked about something outside the context, politely decline and suggest checking the documents

Context from documents:
{context}`

// Service answers questions from retrieved document context.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewChatModel builds the Ark chat model described by cfg.
func NewChatModel(ctx context.Context, cfg config.AIConfig) (model.ChatModel, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	var temperature *float32
	if cfg.Temperature != nil {
		val := float32(*cfg.Temperature)
		temperature = &val
	}

	var topP *float32
	if cfg.TopP != nil {
		val := float32(*cfg.TopP)
		topP = &val
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		Region:      cfg.Region,
		APIKey:      cfg.APIKey,
		AccessKey:   cfg.AccessKey,
		SecretKey:   cfg.SecretKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	})
}

// NewService compiles the prompt and model into a chain.
func NewService(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile answer chain: %w", err)
	}

	return &Service{chain: runnable}, nil
}

// Answer asks the model to answer question using only contextText.
func (s *Service) Answer(ctx context.Context, contextText, question string) (string, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"context": contextText,
		"query":   question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run answer chain: %w", err)
	}

	answer := strings.TrimSpace(response.Content)
	log.Debug().Int("length", len(answer)).Msg("generated answer")
	return answer, nil
}
