package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type AppConfig struct {
	Port         string
	Timezone     string
	DBPath       string
	JWTSecret    string
	SessionTTL   time.Duration
	PageSize     int
	LogLevel     string
	SeedFile     string
	CookieSecure bool
}

// Load reads the env files (".env" by default) and then the process
// environment. The config is always usable; the error only reports env
// files that could not be read.
func Load(files ...string) (AppConfig, error) {
	envErr := godotenv.Load(files...)
	return FromEnv(os.Getenv), envErr
}

// FromEnv builds the config from a lookup function so tests don't touch the
// real environment.
func FromEnv(lookup func(string) string) AppConfig {
	get := func(k, def string) string {
		if v := lookup(k); v != "" {
			return v
		}
		return def
	}
	pageSize, err := strconv.Atoi(get("PAGE_SIZE", "10"))
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}
	ttl, err := time.ParseDuration(get("SESSION_TTL", "12h"))
	if err != nil || ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return AppConfig{
		Port:         get("PORT", "8080"),
		Timezone:     get("TZ", "Asia/Manila"),
		DBPath:       get("DB_PATH", "farm.db"),
		JWTSecret:    get("JWT_SECRET", "dev-secret-change-me"),
		SessionTTL:   ttl,
		PageSize:     pageSize,
		LogLevel:     get("LOG_LEVEL", "info"),
		SeedFile:     get("SEED_FILE", "seed.yaml"),
		CookieSecure: get("COOKIE_SECURE", "false") == "true",
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Fields is the loggable view of the config with the secret redacted.
func (c AppConfig) Fields() []zap.Field {
	return []zap.Field{
		zap.String("port", c.Port),
		zap.String("tz", c.Timezone),
		zap.String("db_path", c.DBPath),
		zap.Duration("session_ttl", c.SessionTTL),
		zap.Int("page_size", c.PageSize),
		zap.String("log_level", c.LogLevel),
		zap.String("seed_file", c.SeedFile),
		zap.Bool("cookie_secure", c.CookieSecure),
		zap.Bool("jwt_secret_set", c.JWTSecret != "dev-secret-change-me"),
	}
}
