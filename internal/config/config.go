package config

import (
	"crypto/rand"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	ServerPort  string
	Environment string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis configuration
	RedisAddress string

	// JWT configuration
	JWTSecret string

	// LLM gateway
	GatewayURL        string
	GatewayAPIKey     string
	GatewayModel      string
	GatewayImageModel string
	GatewayRPS        float64

	// Builder sessions
	AutosaveDelay    time.Duration
	SessionIdleTTL   time.Duration
	SessionSweepSpec string

	// Presenter sync
	PresenterHeartbeat time.Duration
	HandoffTTL         time.Duration

	// Blob storage and thumbnails
	BlobBaseURL       string
	ThumbnailsEnabled bool
	ChromeControlURL  string

	// SPA build served for client routes
	StaticDir string

	FrontendAddress string
}

// Global application configuration
var AppConfig Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = generateRandomSecret(32) // tokens will not survive a restart
		log.Println("Generated random JWT secret")
	}

	AppConfig = Config{
		ServerPort:         getEnv("PORT", "8080"),
		Environment:        getEnv("ENV", "development"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", "postgres"),
		DBName:             getEnv("DB_NAME", "brand_builder"),
		RedisAddress:       getEnv("REDIS_ADDRESS", "localhost:6379"),
		JWTSecret:          jwtSecret,
		GatewayURL:         getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1/chat/completions"),
		GatewayAPIKey:      getEnv("AI_GATEWAY_API_KEY", ""),
		GatewayModel:       getEnv("AI_GATEWAY_MODEL", "google/gemini-2.5-flash"),
		GatewayImageModel:  getEnv("AI_GATEWAY_IMAGE_MODEL", "google/gemini-2.5-flash-image-preview"),
		GatewayRPS:         getEnvFloat("AI_GATEWAY_RPS", 5),
		AutosaveDelay:      getEnvDuration("AUTOSAVE_DELAY", 1500*time.Millisecond),
		SessionIdleTTL:     getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		SessionSweepSpec:   getEnv("SESSION_SWEEP_SPEC", "@every 1m"),
		PresenterHeartbeat: getEnvDuration("PRESENTER_HEARTBEAT", 15*time.Second),
		HandoffTTL:         getEnvDuration("PRESENTER_HANDOFF_TTL", 5*time.Minute),
		BlobBaseURL:        getEnv("BLOB_BASE_URL", "http://localhost:8080/storage"),
		ThumbnailsEnabled:  getEnv("THUMBNAILS_ENABLED", "false") == "true",
		ChromeControlURL:   getEnv("CHROME_CONTROL_URL", ""),
		StaticDir:          getEnv("STATIC_DIR", "./dist"),
		FrontendAddress:    getEnv("FRONTEND_ADDRESS", "http://localhost:5173"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration for %s: %v\n", key, err)
		return defaultValue
	}
	return d
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: invalid number for %s: %v\n", key, err)
		return defaultValue
	}
	return f
}

// generateRandomSecret generates a random secret of the specified length
func generateRandomSecret(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	secret := make([]byte, length)
	for i := range secret {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			panic(err)
		}
		secret[i] = charset[n.Int64()]
	}
	return string(secret)
}
