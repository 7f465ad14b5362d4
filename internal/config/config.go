package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel  string
	LogFormat string
	APIPort   string
	DBPath    string
	ProjectID string

	LLMBaseURL         string
	LLMAPIKey          string
	CompletionModel    string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	ModerationEnabled  bool

	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	InsightsTier       string
	TrainingTokenQuota int

	GitHubToken      string
	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioUseSSL      bool
	ConnectorSyncURL string
	CrawlerRateLimit float64

	WatchFiles     bool
	TrainOnStartup bool
	SourcesFile    string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// A .env file in the current directory or a parent is loaded first;
// variables already set take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		APIPort:   getEnv("API_PORT", "9000"),
		DBPath:    getEnv("DB_PATH", "./data/docprompt.db"),
		ProjectID: getEnv("PROJECT_ID", "default"),

		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		CompletionModel:    getEnv("COMPLETION_MODEL", "gpt-3.5-turbo"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "sections"),

		InsightsTier: strings.ToLower(getEnv("INSIGHTS_TIER", "basic")),

		GitHubToken:      getEnv("GITHUB_TOKEN", ""),
		MinioEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		ConnectorSyncURL: getEnv("CONNECTOR_SYNC_URL", ""),
		SourcesFile:      getEnv("SOURCES_FILE", ""),
	}
	// Embeddings default to the completion endpoint.
	cfg.EmbeddingBaseURL = getEnv("EMBEDDING_BASE_URL", cfg.LLMBaseURL)

	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}

	// Must match the output size of the embedding model. Changing it
	// requires recreating the Qdrant collection.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	switch cfg.InsightsTier {
	case "none", "basic", "advanced":
	default:
		return nil, fmt.Errorf("INSIGHTS_TIER must be one of none, basic, advanced")
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be text or json")
	}

	if cfg.TrainingTokenQuota, err = getEnvInt("TRAINING_TOKEN_QUOTA", 0); err != nil {
		return nil, err
	}
	if cfg.TrainingTokenQuota < 0 {
		return nil, fmt.Errorf("TRAINING_TOKEN_QUOTA must not be negative")
	}

	if cfg.CrawlerRateLimit, err = getEnvFloat("CRAWLER_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.CrawlerRateLimit <= 0 {
		return nil, fmt.Errorf("CRAWLER_RATE_LIMIT must be greater than 0")
	}

	for key, dst := range map[string]*bool{
		"MODERATION_ENABLED": &cfg.ModerationEnabled,
		"MINIO_USE_SSL":      &cfg.MinioUseSSL,
		"WATCH_FILES":        &cfg.WatchFiles,
		"TRAIN_ON_STARTUP":   &cfg.TrainOnStartup,
	} {
		if *dst, err = getEnvBool(key, false); err != nil {
			return nil, err
		}
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
