package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "LIVEPOLL"

type Config struct {
	ListenAddr string
	RootURL    *url.URL

	IPLookup       bool
	TrustForwarded bool
	SessionSecret  []byte
	// SessionSecretGenerated is set when no secret was configured and a
	// random one was made up; sessions then end with the process.
	SessionSecretGenerated bool
	SessionTTL             time.Duration

	TopLimit    int
	LatestLimit int
	MineLimit   int

	IdleTimeout     time.Duration
	WriteTimeout    time.Duration
	SendBuffer      int
	MaxMessageBytes int64

	LogLevel        slog.Level
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file, then the LIVEPOLL_* environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return FromViper(v)
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3000")
	v.SetDefault("root", "http://localhost:3000/")
	v.SetDefault("ip_lookup", false)
	v.SetDefault("trust_forwarded", true)
	v.SetDefault("session_secret", "")
	v.SetDefault("session_ttl", "8760h")
	v.SetDefault("top_limit", 10)
	v.SetDefault("latest_limit", 10)
	v.SetDefault("mine_limit", 0)
	v.SetDefault("idle_timeout", "60s")
	v.SetDefault("write_timeout", "10s")
	v.SetDefault("send_buffer", 16)
	v.SetDefault("max_message_bytes", 4096)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("shutdown_timeout", "30s")
}

func FromViper(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		ListenAddr:      v.GetString("listen"),
		IPLookup:        v.GetBool("ip_lookup"),
		TrustForwarded:  v.GetBool("trust_forwarded"),
		SessionSecret:   []byte(v.GetString("session_secret")),
		TopLimit:        v.GetInt("top_limit"),
		LatestLimit:     v.GetInt("latest_limit"),
		MineLimit:       v.GetInt("mine_limit"),
		SendBuffer:      v.GetInt("send_buffer"),
		MaxMessageBytes: v.GetInt64("max_message_bytes"),
		LogFormat:       strings.ToLower(v.GetString("log_format")),
	}

	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return nil, fmt.Errorf("%s_LISTEN is not a valid address: %w", EnvPrefix, err)
	}

	root, err := url.Parse(v.GetString("root"))
	if err != nil {
		return nil, fmt.Errorf("%s_ROOT is not a valid URL: %w", EnvPrefix, err)
	}
	if root.Scheme != "http" && root.Scheme != "https" {
		return nil, fmt.Errorf("%s_ROOT must use http or https, got %q", EnvPrefix, root.Scheme)
	}
	if root.Host == "" {
		return nil, fmt.Errorf("%s_ROOT has no host", EnvPrefix)
	}
	if root.Path == "" {
		root.Path = "/"
	}
	cfg.RootURL = root

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"session_ttl", &cfg.SessionTTL},
		{"idle_timeout", &cfg.IdleTimeout},
		{"write_timeout", &cfg.WriteTimeout},
		{"shutdown_timeout", &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("%s_%s is not a valid duration: %w", EnvPrefix, strings.ToUpper(d.key), err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("%s_%s must be positive", EnvPrefix, strings.ToUpper(d.key))
		}
		*d.dst = parsed
	}

	for key, n := range map[string]int{"top_limit": cfg.TopLimit, "latest_limit": cfg.LatestLimit, "mine_limit": cfg.MineLimit} {
		if n < 0 {
			return nil, fmt.Errorf("%s_%s must not be negative", EnvPrefix, strings.ToUpper(key))
		}
	}
	if cfg.SendBuffer <= 0 {
		return nil, fmt.Errorf("%s_SEND_BUFFER must be positive", EnvPrefix)
	}
	if cfg.MaxMessageBytes <= 0 {
		return nil, fmt.Errorf("%s_MAX_MESSAGE_BYTES must be positive", EnvPrefix)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("%s_LOG_LEVEL: %w", EnvPrefix, err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("%s_LOG_FORMAT must be text or json, got %q", EnvPrefix, cfg.LogFormat)
	}

	if len(cfg.SessionSecret) == 0 {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
		cfg.SessionSecretGenerated = true
	}

	return cfg, nil
}

func (c *Config) SecureCookies() bool {
	return c.RootURL.Scheme == "https"
}

func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
