package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

// UpstreamConfig points at the CRM REST API. Mode "demo" serves an in-memory data set instead.
type UpstreamConfig struct {
	Mode          string        `yaml:"mode" env:"MODE"`
	BaseURL       string        `yaml:"base_url" env:"BASE_URL"`
	Token         string        `yaml:"token" env:"TOKEN"`
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RatePerSecond float64       `yaml:"rate_per_second" env:"RATE_PER_SECOND"`
	Burst         int           `yaml:"burst" env:"BURST"`
	PageLimit     int           `yaml:"page_limit" env:"PAGE_LIMIT"`
}

type PipelineConfig struct {
	MutationTimeout time.Duration `yaml:"mutation_timeout" env:"MUTATION_TIMEOUT"`
	SyncSchedule    string        `yaml:"sync_schedule" env:"SYNC_SCHEDULE"`
	SyncTimeout     time.Duration `yaml:"sync_timeout" env:"SYNC_TIMEOUT"`
}

type RedisConfig struct {
	URL       string        `yaml:"url" env:"URL"`
	RosterTTL time.Duration `yaml:"roster_ttl" env:"ROSTER_TTL"`
}

type DatabaseConfig struct {
	DSN string `yaml:"url" env:"URL"`
}

// EventsConfig enables the RabbitMQ relay of settled stage changes when AMQPURL is set.
type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url" env:"AMQP_URL"`
	Exchange string `yaml:"exchange" env:"EXCHANGE"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

type DemoConfig struct {
	Seed        int64         `yaml:"seed" env:"SEED"`
	Leads       int           `yaml:"leads" env:"LEADS"`
	FailureRate float64       `yaml:"failure_rate" env:"FAILURE_RATE"`
	Latency     time.Duration `yaml:"latency" env:"LATENCY"`
}

// Config is read from YAML; environment variables (optionally from .env) win over the file.
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Auth     AuthConfig     `yaml:"auth" envPrefix:"AUTH_"`
	Upstream UpstreamConfig `yaml:"upstream" envPrefix:"UPSTREAM_"`
	Pipeline PipelineConfig `yaml:"pipeline" envPrefix:"PIPELINE_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Events   EventsConfig   `yaml:"events" envPrefix:"EVENTS_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Demo     DemoConfig     `yaml:"demo" envPrefix:"DEMO_"`
}

// Load reads path (DefaultPath when empty). A missing file is not an error; the environment
// and the defaults then provide everything.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	// .env is for local development only
	_ = godotenv.Load()

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Upstream.Mode == "" {
		c.Upstream.Mode = "http"
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 15 * time.Second
	}
	if c.Upstream.Burst == 0 {
		c.Upstream.Burst = 5
	}
	if c.Upstream.PageLimit == 0 {
		c.Upstream.PageLimit = 1000
	}
	if c.Pipeline.MutationTimeout == 0 {
		c.Pipeline.MutationTimeout = 30 * time.Second
	}
	if c.Pipeline.SyncSchedule == "" {
		c.Pipeline.SyncSchedule = "@every 1m"
	}
	if c.Pipeline.SyncTimeout == 0 {
		c.Pipeline.SyncTimeout = time.Minute
	}
	if c.Redis.RosterTTL == 0 {
		c.Redis.RosterTTL = 5 * time.Minute
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = "ex.pipeline"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Demo.Leads == 0 {
		c.Demo.Leads = 40
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	switch c.Upstream.Mode {
	case "http":
		if c.Upstream.BaseURL == "" {
			errs = append(errs, errors.New("upstream.base_url is required in http mode"))
		}
	case "demo":
	default:
		errs = append(errs, fmt.Errorf("upstream.mode must be http or demo, got %q", c.Upstream.Mode))
	}
	if c.Demo.FailureRate < 0 || c.Demo.FailureRate > 1 {
		errs = append(errs, errors.New("demo.failure_rate must be within 0..1"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDemo() bool {
	return c.Upstream.Mode == "demo"
}
