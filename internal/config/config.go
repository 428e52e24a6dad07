// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port string `mapstructure:"PORT"`
	// DatabasePath is the SQLite file holding the key-value store. ":memory:" keeps nothing.
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	// JWTSecret signs the session cookie (HS256). At least 32 characters.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// CookieSecure sets the Secure flag on the session cookie; disable only for local development.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`
	// PageSize is the number of contacts per page.
	PageSize int `mapstructure:"PAGE_SIZE"`
	// PasswordStorage is "plaintext" or "bcrypt".
	PasswordStorage string `mapstructure:"PASSWORD_STORAGE"`
	// BcryptCost is the bcrypt cost factor (4–14). Only used with PASSWORD_STORAGE=bcrypt.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// CollationLocale is the BCP 47 tag used to sort contact names.
	CollationLocale string `mapstructure:"COLLATION_LOCALE"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LoginRate is the number of login attempts per second refilled for each email.
	LoginRate float64 `mapstructure:"LOGIN_RATE"`
	// LoginBurst is the number of login attempts allowed back to back.
	LoginBurst int `mapstructure:"LOGIN_BURST"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore missing file

	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "contact-book.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("PAGE_SIZE", 5)
	v.SetDefault("PASSWORD_STORAGE", "plaintext")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("COLLATION_LOCALE", "en")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOGIN_RATE", 1.0)
	v.SetDefault("LOGIN_BURST", 5)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: PORT must be set")
	}
	if c.DatabasePath == "" {
		return errors.New("config: DATABASE_PATH must be set")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("config: JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return errors.New("config: PAGE_SIZE must be between 1 and 100")
	}
	switch c.PasswordStorage {
	case "plaintext", "bcrypt":
	default:
		return fmt.Errorf("config: PASSWORD_STORAGE must be plaintext or bcrypt, got %q", c.PasswordStorage)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		return errors.New("config: BCRYPT_COST must be between 4 and 14")
	}
	if _, err := language.Parse(c.CollationLocale); err != nil {
		return fmt.Errorf("config: COLLATION_LOCALE: %w", err)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LoginRate < 0 {
		return errors.New("config: LOGIN_RATE must not be negative")
	}
	if c.LoginBurst < 1 {
		return errors.New("config: LOGIN_BURST must be at least 1")
	}
	return nil
}

// Locale returns the parsed collation locale, falling back to English.
func (c *Config) Locale() language.Tag {
	tag, err := language.Parse(c.CollationLocale)
	if err != nil {
		return language.English
	}
	return tag
}

// Level returns the slog level for LogLevel. Returns info if unset or invalid.
func (c *Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return l, nil
}
