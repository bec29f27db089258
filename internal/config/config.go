package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Ai         AIConfig
	Retrieval  RetrievalConfig
	WebSearch  WebSearchConfig
	Compaction CompactionConfig
	Cache      CacheConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	JwtSecret          string
	IndexTopic         string
	CompactionTopic    string
}

type DatabaseConfig struct {
	Connection      string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

type AIConfig struct {
	OllamaBaseURL     string
	EmbeddingProvider string // "ollama" or "gemini"
	EmbeddingModel    string
	EmbeddingDims     int
	GeminiAPIKey      string
	LLMProvider       string // "ollama" or "huggingface"
	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string // e.g. "llama3", "qwen2.5"
	FastModel         string // used for classification and summaries
	Workers           int
	ClassifyTimeout   time.Duration
	ClassifyMaxTokens int
}

type RetrievalConfig struct {
	Concurrency     int
	CollectionTopK  int
	SearchTimeout   time.Duration
	RerankEnabled   bool
	RerankTimeout   time.Duration
	EvidenceBudget  int
	TokenCounter    string // "tiktoken" or "runes"
	DefaultLocale   string
	MaxCitations    int
	ExpansionLimit  int
	ExpansionWithAI bool
}

type WebSearchConfig struct {
	SearxURL     string
	MaxResults   int
	CrawlEnabled bool
	CrawlTopN    int
	CrawlTimeout time.Duration
}

type CompactionConfig struct {
	Threshold       int
	KeepRecent      int
	SummaryMaxToken int
	SummaryTimeout  time.Duration
}

type CacheConfig struct {
	RedisURL         string
	WebTTL           time.Duration
	EmbeddingTTL     time.Duration
	EmbeddingCleanup time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/retrieval.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			IndexTopic:         getEnv("INDEX_DOCUMENT_TOPIC_NAME", "INDEX_DOCUMENT"),
			CompactionTopic:    getEnv("COMPACT_THREAD_TOPIC_NAME", "COMPACT_THREAD"),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogSQL:          getEnvAsBool("DB_LOG_SQL", false),
		},
		Ai: AIConfig{
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingDims:     getEnvAsInt("EMBEDDING_DIMENSIONS", 768),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:         getEnv("LLM_API_KEY", ""),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			FastModel:         getEnv("LLM_FAST_MODEL", "qwen2.5:3b"),
			Workers:           getEnvAsInt("LLM_WORKERS", 4),
			ClassifyTimeout:   getEnvAsDuration("LLM_CLASSIFY_TIMEOUT", 8*time.Second),
			ClassifyMaxTokens: getEnvAsInt("LLM_CLASSIFY_MAX_TOKENS", 400),
		},
		Retrieval: RetrievalConfig{
			Concurrency:     getEnvAsInt("SEARCH_CONCURRENCY", 4),
			CollectionTopK:  getEnvAsInt("SEARCH_TOP_K", 8),
			SearchTimeout:   getEnvAsDuration("SEARCH_TIMEOUT", 6*time.Second),
			RerankEnabled:   getEnvAsBool("RERANK_ENABLED", true),
			RerankTimeout:   getEnvAsDuration("RERANK_TIMEOUT", 10*time.Second),
			EvidenceBudget:  getEnvAsInt("EVIDENCE_BUDGET", 6000),
			TokenCounter:    getEnv("EVIDENCE_COUNTER", "tiktoken"),
			DefaultLocale:   getEnv("DEFAULT_LOCALE", "de-DE"),
			MaxCitations:    getEnvAsInt("MAX_CITATIONS", 8),
			ExpansionLimit:  getEnvAsInt("QUERY_EXPANSION_LIMIT", 2),
			ExpansionWithAI: getEnvAsBool("QUERY_EXPANSION_LLM", true),
		},
		WebSearch: WebSearchConfig{
			SearxURL:     getEnv("SEARX_URL", "http://localhost:8888"),
			MaxResults:   getEnvAsInt("WEB_MAX_RESULTS", 8),
			CrawlEnabled: getEnvAsBool("CRAWL_ENABLED", true),
			CrawlTopN:    getEnvAsInt("CRAWL_TOP_N", 3),
			CrawlTimeout: getEnvAsDuration("CRAWL_TIMEOUT", 8*time.Second),
		},
		Compaction: CompactionConfig{
			Threshold:       getEnvAsInt("COMPACTION_THRESHOLD", 50),
			KeepRecent:      getEnvAsInt("COMPACTION_KEEP_RECENT", 20),
			SummaryMaxToken: getEnvAsInt("COMPACTION_SUMMARY_MAX_TOKENS", 600),
			SummaryTimeout:  getEnvAsDuration("COMPACTION_SUMMARY_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
			WebTTL:           getEnvAsDuration("WEB_CACHE_TTL", 15*time.Minute),
			EmbeddingTTL:     getEnvAsDuration("EMBEDDING_CACHE_TTL", time.Hour),
			EmbeddingCleanup: getEnvAsDuration("EMBEDDING_CACHE_CLEANUP", 10*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
