package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	Server struct {
		Port            string   `yaml:"port"`
		ReadTimeout     string   `yaml:"read_timeout"`
		WriteTimeout    string   `yaml:"write_timeout"`
		ShutdownTimeout string   `yaml:"shutdown_timeout"`
		CORSOrigins     []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Storage struct {
		Backend string `yaml:"backend"`
	} `yaml:"storage"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Quiz struct {
		TTL          string `yaml:"ttl"`
		SessionTTL   string `yaml:"session_ttl"`
		DefaultLimit int    `yaml:"default_limit"`
		FeedSize     int    `yaml:"feed_size"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret    string   `yaml:"jwt_secret"`
		TokenTTL     string   `yaml:"token_ttl"`
		AdminEmails  []string `yaml:"admin_emails"`
		CookieName   string   `yaml:"cookie_name"`
		CookieSecure bool     `yaml:"cookie_secure"`
	} `yaml:"auth"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Events struct {
		AMQPURL  string `yaml:"amqp_url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"events"`
	RateLimit struct {
		Requests int    `yaml:"requests"`
		Window   string `yaml:"window"`
	} `yaml:"rate_limit"`
}

// Load reads YAML config from path and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&cfg.Server.Port, "PORT")
	override(&cfg.Storage.Backend, "STORAGE_BACKEND")
	override(&cfg.Postgres.URL, "POSTGRES_URL")
	override(&cfg.Mongo.URI, "MONGO_URI")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Auth.JWTSecret, "JWT_SECRET")
	override(&cfg.Events.AMQPURL, "AMQP_URL")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Storage.Backend == "" {
		switch {
		case cfg.Postgres.URL != "":
			cfg.Storage.Backend = BackendPostgres
		case cfg.Mongo.URI != "":
			cfg.Storage.Backend = BackendMongo
		default:
			cfg.Storage.Backend = BackendMemory
		}
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "quiz"
	}
	if cfg.Quiz.DefaultLimit <= 0 {
		cfg.Quiz.DefaultLimit = 10
	}
	if cfg.Quiz.FeedSize <= 0 {
		cfg.Quiz.FeedSize = 10
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "quiz_token"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.RateLimit.Requests <= 0 {
		cfg.RateLimit.Requests = 20
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
