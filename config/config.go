package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Most values are env-driven with simple defaults so the server runs
// out of the box with the in-memory store and local uploads directory.
type Config struct {
	ListenAddr string

	// StoreDriver selects the metadata backend: "memory" (default) or "mysql".
	StoreDriver string
	// BlobDriver selects where uploaded payloads live: "local" (default) or "minio".
	BlobDriver string

	UploadDir     string // Base directory for uploaded audio files
	ProcessedDir  string // Where the worker reports synthesized output paths
	MaxUploadSize int64  // Upload cap in bytes

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Metadata cache is enabled only when RedisAddr is non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	JWTSecret string

	// Simulated worker schedule. Tests shrink these to milliseconds.
	WorkerStartDelay  time.Duration
	WorkerFinishDelay time.Duration

	LogPath  string
	LogLevel string
}

// MaxUploadBytes is the default upload cap (100 MiB), matching the limit
// the product advertises.
const MaxUploadBytes = 100 << 20

// AllowedExtensions is the closed set of accepted upload extensions,
// lowercase with leading dot.
var AllowedExtensions = []string{".mp3", ".wav", ".flac", ".m4a"}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvInt64 gets an environment variable as int64 or returns a default value.
func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as a duration or returns a default.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		StoreDriver: getEnv("STORE_DRIVER", "memory"),
		BlobDriver:  getEnv("BLOB_DRIVER", "local"),

		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		ProcessedDir:  getEnv("PROCESSED_DIR", "processed"),
		MaxUploadSize: getEnvInt64("MAX_UPLOAD_SIZE", MaxUploadBytes),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // For password, better not to have a hardcoded default
		DBName:     getEnv("DB_NAME", "audioforge"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "audioforge"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		JWTSecret: getEnv("JWT_SECRET", "audioforge-dev-secret"),

		WorkerStartDelay:  getEnvDuration("WORKER_START_DELAY", time.Second),
		WorkerFinishDelay: getEnvDuration("WORKER_FINISH_DELAY", 5*time.Second),

		LogPath:  getEnv("LOG_PATH", filepath.Join("logs", "audioforge.log")),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}
