package config

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageGCS   = "gcs"

	SummarizerOllama = "ollama"
	SummarizerVertex = "vertex"
)

// S3Config covers AWS S3 and S3-compatible stores such as Cloudflare R2.
type S3Config struct {
	Endpoint        string
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
}

type GCSConfig struct {
	BucketName string
}

type StorageConfig struct {
	Backend       string
	UploadsDir    string
	MaxUploadSize int64
	S3            S3Config
	GCS           GCSConfig
}

type SummarizerConfig struct {
	Provider       string
	OllamaEndpoint string
	Model          string
	Timeout        time.Duration
	VertexProject  string
	VertexRegion   string
	VertexModel    string
}

type Config struct {
	Port           string
	Environment    string
	LogLevel       string
	DBDriver       string
	DBURL          string
	JWTSecret      string
	SessionTTL     time.Duration
	SeedDummyUsers bool
	CorsConfig     cors.Options
	Storage        StorageConfig
	Summarizer     SummarizerConfig
}

// Load reads the env file named by ENV_FILE (default .env) and builds a Config
// from the environment.
func Load() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("No", envFile, "file found, using process environment")
	}

	env := getEnv("ENV", "development")

	return Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    env,
		LogLevel:       getEnv("LOG_LEVEL", ""),
		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBURL:          getEnv("DB_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", "not-so-secret-now-is-it?"),
		SessionTTL:     getDuration("SESSION_TTL", 24*time.Hour),
		SeedDummyUsers: getBool("SEED_DUMMY_USERS", env != "production"),
		CorsConfig:     CorsConfig(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		Storage: StorageConfig{
			Backend:       getEnv("STORAGE_BACKEND", StorageLocal),
			UploadsDir:    getEnv("UPLOADS_DIR", "./uploads"),
			MaxUploadSize: getInt64("MAX_UPLOAD_SIZE", 100<<20),
			S3: S3Config{
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				AccountID:       getEnv("R2_ACCOUNT_ID", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				BucketName:      getEnv("S3_BUCKET", ""),
				Region:          getEnv("S3_REGION", "auto"),
			},
			GCS: GCSConfig{
				BucketName: getEnv("GCS_BUCKET", ""),
			},
		},
		Summarizer: SummarizerConfig{
			Provider:       getEnv("SUMMARIZER_PROVIDER", SummarizerOllama),
			OllamaEndpoint: getEnv("OLLAMA_ENDPOINT", "http://localhost:11434/api/generate"),
			Model:          getEnv("SUMMARIZER_MODEL", "llama3"),
			Timeout:        getDuration("SUMMARIZER_TIMEOUT", 60*time.Second),
			VertexProject:  getEnv("VERTEX_PROJECT_ID", ""),
			VertexRegion:   getEnv("VERTEX_REGION", "us-central1"),
			VertexModel:    getEnv("VERTEX_MODEL", "gemini-1.5-pro"),
		},
	}
}

// Validate reports configuration that would fail at first use.
func (c Config) Validate() error {
	if c.Environment == "production" && (c.JWTSecret == "" || c.JWTSecret == "not-so-secret-now-is-it?") {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	switch c.DBDriver {
	case "postgres":
		if c.DBURL == "" {
			return fmt.Errorf("DB_URL must be set for the postgres driver")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	switch c.Storage.Backend {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3.BucketName == "" {
			return fmt.Errorf("S3_BUCKET must be set for the s3 storage backend")
		}
	case StorageGCS:
		if c.Storage.GCS.BucketName == "" {
			return fmt.Errorf("GCS_BUCKET must be set for the gcs storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	switch c.Summarizer.Provider {
	case SummarizerOllama:
	case SummarizerVertex:
		if c.Summarizer.VertexProject == "" {
			return fmt.Errorf("VERTEX_PROJECT_ID must be set for the vertex summarizer")
		}
	default:
		return fmt.Errorf("unknown SUMMARIZER_PROVIDER %q", c.Summarizer.Provider)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Invalid duration %q for %s, using %s", raw, key, fallback)
		return fallback
	}
	return d
}

func getInt64(key string, fallback int64) int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("Invalid integer %q for %s, using %d", raw, key, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Invalid boolean %q for %s, using %t", raw, key, fallback)
		return fallback
	}
	return b
}

func CorsConfig(origins string) cors.Options {
	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	return cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
}
