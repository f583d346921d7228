package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Keys    APIKeys
	Ai      AIConfig
	Search  SearchConfig
	Barcode BarcodeConfig
	Dataset DatasetConfig
	Storage StorageConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	DisplayLogFilePath string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	PersistTopic       string
	SessionIdleTimeout time.Duration
}

type APIKeys struct {
	GoogleGemini   string
	HuggingFace    string
	GoogleSearch   string
	GoogleSearchCX string
	Exa            string
}

type AIConfig struct {
	LLMProvider        string // "gemini", "ollama", "huggingface"
	LLMModel           string
	OllamaBaseURL      string
	HuggingFaceBaseURL string
}

type SearchConfig struct {
	PrimaryProvider string // "google" or "duckduckgo"
	ResultCount     int
	FallbackDelay   time.Duration
	CallTimeout     time.Duration
}

type BarcodeConfig struct {
	SourceURL    string
	TTL          time.Duration
	PollInterval time.Duration
	PollAttempts int
}

type DatasetConfig struct {
	URL      string
	CacheTTL time.Duration
}

type StorageConfig struct {
	Driver     string // "redis", "sqlite" or "none"
	SQLitePath string
	KeyPrefix  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			DisplayLogFilePath: getEnv("DISPLAY_LOG_FILE_PATH", "logs/display.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			PersistTopic:       getEnv("PERSIST_PROJECT_TOPIC_NAME", "PERSIST_PROJECT"),
			SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		},
		Keys: APIKeys{
			GoogleGemini:   getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:    getEnv("HUGGINGFACE_API_KEY", ""),
			GoogleSearch:   getEnv("GOOGLE_SEARCH_API_KEY", ""),
			GoogleSearchCX: getEnv("GOOGLE_SEARCH_ENGINE_ID", ""),
			Exa:            getEnv("EXA_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:           getEnv("LLM_MODEL", "gemini-2.0-flash"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceBaseURL: getEnv("HUGGINGFACE_BASE_URL", ""),
		},
		Search: SearchConfig{
			PrimaryProvider: getEnv("SEARCH_PROVIDER", "google"),
			ResultCount:     getEnvAsInt("SEARCH_RESULT_COUNT", 5),
			FallbackDelay:   getEnvAsDuration("SEARCH_FALLBACK_DELAY", 1*time.Second),
			CallTimeout:     getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
		},
		Barcode: BarcodeConfig{
			SourceURL:    getEnv("BARCODE_SOURCE_URL", ""),
			TTL:          getEnvAsDuration("BARCODE_CACHE_TTL", 30*time.Second),
			PollInterval: getEnvAsDuration("BARCODE_POLL_INTERVAL", 3*time.Second),
			PollAttempts: getEnvAsInt("BARCODE_POLL_ATTEMPTS", 10),
		},
		Dataset: DatasetConfig{
			URL:      getEnv("HOSTED_DATASET_URL", ""),
			CacheTTL: getEnvAsDuration("HOSTED_DATASET_CACHE_TTL", 5*time.Minute),
		},
		Storage: StorageConfig{
			Driver:     getEnv("OBJECT_STORE_DRIVER", "redis"),
			SQLitePath: getEnv("OBJECT_STORE_SQLITE_PATH", "data/projects.db"),
			KeyPrefix:  getEnv("OBJECT_STORE_PREFIX", "buildguide"),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
