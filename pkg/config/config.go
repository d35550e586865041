package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	// MaxSyncPageSize bounds how many candidates a single sync pass may request from a source.
	MaxSyncPageSize = 20
)

type Config struct {
	Port string

	DatabaseDriver string
	DatabaseURL    string
	MongoURI       string
	MongoDatabase  string

	JWTSecret       string
	JWTAccessExpiry time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	CronSecret   string
	SyncPageSize int

	AIProvider     string
	CerebrasAPIKey string
	CerebrasModel  string
	GeminiApiKey   string
	OllamaBaseURL  string
	OllamaModel    string

	FirebaseCredentials string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	accessExpiry := 24 * time.Hour
	if exp := os.Getenv("JWT_ACCESS_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			accessExpiry = parsed
		}
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseDriver:      getEnv("DATABASE_DRIVER", DriverPostgres),
		DatabaseURL:         getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=devnudge port=5432 sslmode=disable"),
		MongoURI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:       getEnv("MONGODB_DATABASE", "devnudge"),
		JWTSecret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:     accessExpiry,
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:      getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret:  getEnv("GITHUB_CLIENT_SECRET", ""),
		CronSecret:          getEnv("CRON_SECRET", ""),
		SyncPageSize:        ClampPageSize(getEnvInt("SYNC_PAGE_SIZE", 10)),
		AIProvider:          getEnv("AI_PROVIDER", "auto"),
		CerebrasAPIKey:      getEnv("CEREBRAS_API_KEY", ""),
		CerebrasModel:       getEnv("CEREBRAS_MODEL", "llama3.1-8b"),
		GeminiApiKey:        getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:         getEnv("OLLAMA_MODEL", "llama3"),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
	}
}

// ClampPageSize keeps a requested page size within 1..MaxSyncPageSize.
func ClampPageSize(n int) int {
	if n <= 0 {
		return 1
	}
	if n > MaxSyncPageSize {
		return MaxSyncPageSize
	}
	return n
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
