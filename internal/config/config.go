// Package config loads runtime settings from the environment and the
// organization catalog from JSON files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingBotToken  = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required when the web channel is enabled")
)

const (
	defaultDatabaseURL     = "host=localhost user=user password=password dbname=trustline port=5432 sslmode=disable"
	defaultOrgsPath        = "config/orgs.json"
	defaultWhitelistPath   = "config/reviewers-whitelist.json"
	defaultAccessCodesPath = "config/access-codes.json"
)

type Config struct {
	ListenAddr string

	TelegramToken         string
	TelegramWebhookURL    string
	TelegramWebhookSecret string

	DatabaseURL string
	RedisURL    string

	WebChannelEnabled bool
	JWTSecret         string
	JWTTTL            time.Duration

	OrgsConfigPath      string
	WhitelistPath       string
	AccessCodesPath     string
	AccessCodeSweepSpec string

	SessionTTL      time.Duration
	Workers         int
	DefaultLanguage string
}

func Load() (Config, error) {
	cfg := Config{
		ListenAddr:            env("LISTEN_ADDR", ":8080"),
		TelegramToken:         env("TELEGRAM_BOT_TOKEN", ""),
		TelegramWebhookURL:    env("TELEGRAM_WEBHOOK_URL", ""),
		TelegramWebhookSecret: env("TELEGRAM_WEBHOOK_SECRET", ""),
		DatabaseURL:           env("DATABASE_URL", defaultDatabaseURL),
		RedisURL:              env("REDIS_URL", "redis://localhost:6379/0"),
		WebChannelEnabled:     envBool("WEB_CHANNEL_ENABLED", true),
		JWTSecret:             env("JWT_SECRET", ""),
		JWTTTL:                time.Duration(envInt("JWT_TTL_HOURS", 72)) * time.Hour,
		OrgsConfigPath:        env("ORGS_CONFIG", defaultOrgsPath),
		WhitelistPath:         env("REVIEWERS_WHITELIST", defaultWhitelistPath),
		AccessCodesPath:       env("ACCESS_CODES", defaultAccessCodesPath),
		AccessCodeSweepSpec:   env("ACCESS_CODE_SWEEP", "@every 1h"),
		SessionTTL:            time.Duration(envInt("SESSION_TTL_HOURS", 72)) * time.Hour,
		Workers:               envInt("WORKERS", 8),
		DefaultLanguage:       strings.ToLower(env("DEFAULT_LANGUAGE", "ru")),
	}

	if cfg.TelegramToken == "" {
		return Config{}, ErrMissingBotToken
	}
	if cfg.WebChannelEnabled && len(cfg.JWTSecret) < 16 {
		return Config{}, ErrMissingJWTSecret
	}
	if cfg.Workers <= 0 {
		return Config{}, fmt.Errorf("WORKERS must be positive")
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if cfg.TelegramWebhookURL != "" && !strings.HasPrefix(cfg.TelegramWebhookURL, "https://") {
		return Config{}, fmt.Errorf("TELEGRAM_WEBHOOK_URL must be an https URL")
	}
	return cfg, nil
}

// LoadAdmin reads only what the operator CLI needs: the database and the catalog files.
func LoadAdmin() Config {
	return Config{
		DatabaseURL:     env("DATABASE_URL", defaultDatabaseURL),
		OrgsConfigPath:  env("ORGS_CONFIG", defaultOrgsPath),
		WhitelistPath:   env("REVIEWERS_WHITELIST", defaultWhitelistPath),
		AccessCodesPath: env("ACCESS_CODES", defaultAccessCodesPath),
	}
}

// UsesWebhook reports whether updates arrive by webhook instead of long polling.
func (c Config) UsesWebhook() bool {
	return c.TelegramWebhookURL != ""
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
