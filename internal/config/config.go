package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	AttendanceModeRepeatable = "repeatable"
	AttendanceModeOnce       = "once"
)

type Config struct {
	Port              string
	DBUrl             string
	JWTSecret         string
	AppEnv            string
	EnableDocs        bool
	LogLevel          string
	StorageDriver     string
	AutoMigrate       bool
	CustodyAccount    string
	AttendanceMode    string
	NATSUrl           string
	NATSSubjectPrefix string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DBUrl:             getEnv("DB_URL", ""),
		JWTSecret:         jwtSecret,
		AppEnv:            normalizeEnv(getEnv("APP_ENV", "production")),
		EnableDocs:        getEnvBool("ENABLE_API_DOCS", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		StorageDriver:     strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", StorageDriverPostgres))),
		AutoMigrate:       getEnvBool("AUTO_MIGRATE", false),
		CustodyAccount:    strings.TrimSpace(getEnv("ESCROW_CUSTODY_ACCOUNT", "escrow-custody")),
		AttendanceMode:    strings.ToLower(strings.TrimSpace(getEnv("ATTENDANCE_MODE", AttendanceModeRepeatable))),
		NATSUrl:           getEnv("NATS_URL", ""),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "coaching"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DBUrl == "" {
			return fmt.Errorf("DB_URL is required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.AttendanceMode {
	case AttendanceModeRepeatable, AttendanceModeOnce:
	default:
		return fmt.Errorf("unsupported ATTENDANCE_MODE %q", c.AttendanceMode)
	}

	if c.CustodyAccount == "" {
		return fmt.Errorf("ESCROW_CUSTODY_ACCOUNT must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}
