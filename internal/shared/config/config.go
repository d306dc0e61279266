package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DevJWTSecret signs tokens outside production when JWT_SECRET is unset.
const DevJWTSecret = "dev-secret"

// Config holds application configuration.
type Config struct {
	Port            string   `validate:"required"`
	Env             string   `validate:"oneof=dev local staging production"`
	CORSAllowOrigin []string `validate:"dive,required"`

	RecordStore string `validate:"oneof=memory postgres sqlite"`
	DatabaseURL string `validate:"required_if=RecordStore postgres"`
	SQLitePath  string `validate:"required_if=RecordStore sqlite"`

	ObjectStoreType string `validate:"oneof=local s3"`
	LocalStoreDir   string `validate:"required_if=ObjectStoreType local"`
	AWSRegion       string `validate:"required_if=ObjectStoreType s3"`
	S3Bucket        string `validate:"required_if=ObjectStoreType s3"`
	S3Prefix        string
	SSEKMSKeyID     string

	OrphanQueueURL     string `validate:"omitempty,url"`
	BulkAbortAfter     int    `validate:"gte=0"`
	SweeperMaxReceives int    `validate:"gte=1"`

	JWTSecret          string `validate:"required"`
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string `validate:"omitempty,url"`
	UIRedirectURL      string `validate:"omitempty,url"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	recordStore := "memory"
	if dbURL != "" {
		recordStore = "postgres"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" && env != "production" {
		jwtSecret = DevJWTSecret
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		Env:                env,
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		RecordStore:        normalizeRecordStore(getEnv("RECORD_STORE", recordStore)),
		DatabaseURL:        dbURL,
		SQLitePath:         getEnv("SQLITE_PATH", "./data/resumes.db"),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		OrphanQueueURL:     getEnv("ORPHAN_QUEUE_URL", ""),
		BulkAbortAfter:     getEnvInt("BULK_ABORT_AFTER", 5),
		SweeperMaxReceives: getEnvInt("SWEEPER_MAX_RECEIVES", 5),
		JWTSecret:          jwtSecret,
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
	}
}

// Validate checks field constraints and production-only requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Env == "production" {
		if c.JWTSecret == DevJWTSecret {
			return errors.New("invalid config: JWT_SECRET must be set in production")
		}
		if c.RecordStore == "memory" {
			return errors.New("invalid config: RECORD_STORE=memory is not allowed in production")
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt returns def when key is unset; an unparsable value yields -1 so
// Validate rejects it instead of silently using the default.
func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// normalizeRecordStore keeps unknown values so Validate can report them.
func normalizeRecordStore(raw string) string {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "postgres", "pg", "postgresql":
		return "postgres"
	default:
		return v
	}
}
