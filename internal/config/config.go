package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session cookie
	SessionCookieName string
	SessionTTL        time.Duration

	// Completion provider (OpenAI-compatible)
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	EmbeddingModel string

	// Aggregation provider (Plaid)
	PlaidClientID string
	PlaidSecret   string
	PlaidBaseURL  string

	// Vector index (Pinecone)
	PineconeAPIKey    string
	PineconeIndexHost string
	PineconeIndexName string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "astrawise"),
		DBPassword: getEnv("DB_PASSWORD", "astrawise"),
		DBName:     getEnv("DB_NAME", "astrawise"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Session cookie
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "sessionToken"),

		// Completion provider
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		// Aggregation provider
		PlaidClientID: getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:   getEnv("PLAID_SECRET", ""),
		PlaidBaseURL:  getEnv("PLAID_BASE_URL", "https://sandbox.plaid.com"),

		// Vector index
		PineconeAPIKey:    getEnv("PINECONE_API_KEY", ""),
		PineconeIndexHost: getEnv("PINECONE_INDEX_HOST", ""),
		PineconeIndexName: getEnv("PINECONE_INDEX_NAME", "astrawise"),
	}

	// Parse session TTL
	ttlStr := getEnv("SESSION_TTL", "168h")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		log.Printf("Warning: invalid SESSION_TTL value '%s', falling back to 168h\n", ttlStr)
		ttl = 7 * 24 * time.Hour
	}
	config.SessionTTL = ttl

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// IsProduction reports whether the app runs with a production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
