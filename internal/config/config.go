package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `validate:"required,numeric"`
	Environment string `validate:"oneof=development staging production test"`
	DatabaseURL string
	RedisURL    string

	// Import pipeline
	MediaBasePath    string        `validate:"required"`
	WorkDir          string
	MaxUploadBytes   int64         `validate:"gt=0"`
	MaxUnpackedBytes int64         `validate:"gt=0"`
	MaxBundleEntries int           `validate:"gt=0"`
	ImportJobTTL     time.Duration `validate:"gt=0"`
	PersistQuestions bool

	Auth   AuthConfig
	Events EventConfig
}

// AuthConfig holds the casdoor application used to verify bearer tokens
type AuthConfig struct {
	Enabled      bool
	Endpoint     string `validate:"required_if=Enabled true,omitempty,url"`
	ClientID     string `validate:"required_if=Enabled true"`
	ClientSecret string
	Certificate  string `validate:"required_if=Enabled true"`
	Organization string `validate:"required_if=Enabled true"`
	Application  string
}

// LoadConfig reads the environment, loading .env first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		MediaBasePath:    getEnv("MEDIA_BASE_PATH", "./data/media"),
		WorkDir:          getEnv("WORK_DIR", os.TempDir()),
		MaxUploadBytes:   getEnvInt64("MAX_UPLOAD_BYTES", 64<<20),
		MaxUnpackedBytes: getEnvInt64("MAX_UNPACKED_BYTES", 256<<20),
		MaxBundleEntries: int(getEnvInt64("MAX_BUNDLE_ENTRIES", 2000)),
		ImportJobTTL:     getEnvDuration("IMPORT_JOB_TTL", 24*time.Hour),
		PersistQuestions: getEnvBool("PERSIST_QUESTIONS", false),
		Auth: AuthConfig{
			Enabled:      getEnvBool("AUTH_ENABLED", false),
			Endpoint:     getEnv("CASDOOR_ENDPOINT", ""),
			ClientID:     getEnv("CASDOOR_CLIENT_ID", ""),
			ClientSecret: getEnv("CASDOOR_CLIENT_SECRET", ""),
			Certificate:  getEnv("CASDOOR_CERTIFICATE", ""),
			Organization: getEnv("CASDOOR_ORGANIZATION", ""),
			Application:  getEnv("CASDOOR_APPLICATION", ""),
		},
		Events: EventConfig{
			Enabled:      getEnvBool("EVENTS_ENABLED", false),
			Publisher:    getEnv("EVENTS_PUBLISHER", "kafka"),
			KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
			ImportTopic:  getEnv("IMPORT_TOPIC", "question-imports"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags plus cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.PersistQuestions && c.DatabaseURL == "" {
		return errors.New("invalid config: DATABASE_URL is required when PERSIST_QUESTIONS is set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return value
}
