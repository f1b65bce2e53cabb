package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIURL is the backend a widget talks to when the host does not say
// otherwise: the backend's own default listen address.
const DefaultAPIURL = "http://localhost:8080"

// Config aggregates the backend service configuration.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Store  StoreConfig
	RAG    RAGConfig
}

// Load reads the backend configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	rag, err := loadRAGConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Store:  StoreConfig{Path: getEnvOrDefault("DATABASE_PATH", "data/docchat.db")},
		RAG:    rag,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// loadServerConfig resolves the listen address from PORT.
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat model used to write answers and the
// embedding model used to index documents.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	EmbedModel  string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// EmbeddingEnabled reports whether documents can be embedded remotely. The
// embeddings endpoint only accepts the API key.
func (c AIConfig) EmbeddingEnabled() bool {
	return c.EmbedModel != "" && c.APIKey != ""
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		EmbedModel:  strings.TrimSpace(os.Getenv("EMBED_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string
}

// RAGConfig tunes document retrieval and the query endpoint.
type RAGConfig struct {
	DocsDir        string
	ChunkSize      int
	TopK           int
	MinScore       float64
	QueryTimeout   time.Duration
	RatePerMinute  int
	AllowedOrigins []string
}

func loadRAGConfig() (RAGConfig, error) {
	topK, err := parseIntEnv("RAG_TOP_K", 5)
	if err != nil {
		return RAGConfig{}, err
	}
	if topK < 1 {
		topK = 1
	}

	chunkSize, err := parseIntEnv("RAG_CHUNK_SIZE", 800)
	if err != nil {
		return RAGConfig{}, err
	}

	minScore, err := parseOptionalFloatEnv("RAG_MIN_SCORE")
	if err != nil {
		return RAGConfig{}, err
	}
	if minScore == nil {
		zero := 0.0
		minScore = &zero
	}

	timeoutSeconds, err := parseIntEnv("QUERY_TIMEOUT_SECONDS", 30)
	if err != nil {
		return RAGConfig{}, err
	}
	if timeoutSeconds < 1 {
		return RAGConfig{}, fmt.Errorf("invalid QUERY_TIMEOUT_SECONDS value %d: must be positive", timeoutSeconds)
	}

	rate, err := parseIntEnv("QUERY_RATE_PER_MINUTE", 30)
	if err != nil {
		return RAGConfig{}, err
	}

	return RAGConfig{
		DocsDir:        getEnvOrDefault("DOCS_DIR", "docs"),
		ChunkSize:      chunkSize,
		TopK:           topK,
		MinScore:       *minScore,
		QueryTimeout:   time.Duration(timeoutSeconds) * time.Second,
		RatePerMinute:  rate,
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
	}, nil
}

// WidgetConfig is what a widget host reads before mounting.
type WidgetConfig struct {
	WorkspaceID    string
	APIURL         string
	RequestTimeout time.Duration
}

// LoadWidget reads the widget host configuration from the environment.
// A missing workspace id is not an error here; mounting rejects it.
func LoadWidget() (WidgetConfig, error) {
	timeoutSeconds, err := parseIntEnv("WIDGET_TIMEOUT_SECONDS", 60)
	if err != nil {
		return WidgetConfig{}, err
	}

	return WidgetConfig{
		WorkspaceID:    strings.TrimSpace(os.Getenv("WIDGET_WORKSPACE_ID")),
		APIURL:         getEnvOrDefault("WIDGET_API_URL", DefaultAPIURL),
		RequestTimeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
