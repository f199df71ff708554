package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultAdminPassword is only acceptable outside production.
const DefaultAdminPassword = "change-me-please"

// Config holds all runtime settings for the server.
type Config struct {
	Env             string
	Addr            string
	DBPath          string
	CSRFKey         []byte
	AdminEmail      string
	AdminPassword   string
	ResendKey       string
	EmailFrom       string
	ReplyTo         string
	SNSTopicARN     string
	LogLevel        slog.Level
	LogFormat       string
	SlowQueryMs     int
	SlowRequestMs   int
	RateLimit       int
	TrustedOrigins  []string
	SessionTTL      time.Duration
	OutboxInterval  time.Duration
	ShutdownTimeout time.Duration
}

// IsProduction reports whether the server runs in the production environment.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

var (
	ErrMissingCSRFKey  = errors.New("csrf_key is required in production")
	ErrInvalidCSRFKey  = errors.New("csrf_key must be 64 hex characters (32 bytes)")
	ErrDefaultPassword = errors.New("admin_password must be changed in production")
)

// Load reads configuration from defaults, an optional YAML file and ECOCREW_* env vars.
// PRE: path may be empty (no file)
// POST: Returns a validated Config or an error
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ECOCREW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "ecocrew.db")
	v.SetDefault("csrf_key", "")
	v.SetDefault("admin_email", "admin@ecocrew.local")
	v.SetDefault("admin_password", DefaultAdminPassword)
	v.SetDefault("resend_key", "")
	v.SetDefault("email_from", "EcoCrew <noreply@ecocrew.local>")
	v.SetDefault("reply_to", "")
	v.SetDefault("sns_topic_arn", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("slow_query_ms", 50)
	v.SetDefault("slow_request_ms", 200)
	v.SetDefault("rate_limit", 10)
	v.SetDefault("trusted_origins", []string{})
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("outbox_interval", "1m")
	v.SetDefault("shutdown_timeout", "10s")
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:             v.GetString("env"),
		Addr:            v.GetString("addr"),
		DBPath:          v.GetString("db_path"),
		AdminEmail:      v.GetString("admin_email"),
		AdminPassword:   v.GetString("admin_password"),
		ResendKey:       v.GetString("resend_key"),
		EmailFrom:       v.GetString("email_from"),
		ReplyTo:         v.GetString("reply_to"),
		SNSTopicARN:     v.GetString("sns_topic_arn"),
		LogFormat:       strings.ToLower(v.GetString("log_format")),
		SlowQueryMs:     v.GetInt("slow_query_ms"),
		SlowRequestMs:   v.GetInt("slow_request_ms"),
		RateLimit:       v.GetInt("rate_limit"),
		TrustedOrigins:  v.GetStringSlice("trusted_origins"),
		SessionTTL:      v.GetDuration("session_ttl"),
		OutboxInterval:  v.GetDuration("outbox_interval"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Config{}, fmt.Errorf("log_level: %w", err)
	}

	if keyHex := v.GetString("csrf_key"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return Config{}, ErrInvalidCSRFKey
		}
		cfg.CSRFKey = key
	}

	if cfg.IsProduction() {
		if cfg.CSRFKey == nil {
			return Config{}, ErrMissingCSRFKey
		}
		if cfg.AdminPassword == DefaultAdminPassword {
			return Config{}, ErrDefaultPassword
		}
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.OutboxInterval <= 0 {
		cfg.OutboxInterval = time.Minute
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return cfg, nil
}

// Logger builds the process-wide slog logger for this configuration.
func (c Config) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(logOutput, opts))
	}
	return slog.New(slog.NewTextHandler(logOutput, opts))
}
