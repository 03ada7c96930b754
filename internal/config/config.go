package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config/config.yaml"
	envPrefix         = "SCHOOLHUB"

	DefaultMaxRetries = 3
)

type FilesConfig struct {
	RootDir  string `yaml:"root_dir" split_words:"true"`
	FontPath string `yaml:"font_path" split_words:"true"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret" split_words:"true"`
	AccessTTL  time.Duration `yaml:"access_ttl" split_words:"true"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" split_words:"true"`
	ResetTTL   time.Duration `yaml:"reset_ttl" split_words:"true"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" split_words:"true"`
	Password string `yaml:"password" split_words:"true"`
	DB       int    `yaml:"db" split_words:"true"`
}

// ChannelLayerConfig selects the connection registry backend: "memory" or "redis".
type ChannelLayerConfig struct {
	Backend    string `yaml:"backend" split_words:"true"`
	Prefix     string `yaml:"prefix" split_words:"true"`
	SendBuffer int    `yaml:"send_buffer" split_words:"true"`
}

type TasksConfig struct {
	MaxRetries            int           `yaml:"max_retries" split_words:"true"`
	RetryBaseDelay        time.Duration `yaml:"retry_base_delay" split_words:"true"`
	ClearSessionsInterval time.Duration `yaml:"clear_sessions_interval" split_words:"true"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host" split_words:"true"`
	SMTPPort     int    `yaml:"smtp_port" split_words:"true"`
	SMTPUser     string `yaml:"smtp_user" split_words:"true"`
	SMTPPassword string `yaml:"smtp_password" split_words:"true"`
	FromEmail    string `yaml:"from_email" split_words:"true"`
	DryRun       bool   `yaml:"dry_run" split_words:"true"`
}

type Config struct {
	Server struct {
		Port            int           `yaml:"port" split_words:"true"`
		PublicURL       string        `yaml:"public_url" split_words:"true"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url" split_words:"true"`
	} `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	Email        EmailConfig        `yaml:"email"`
	Redis        RedisConfig        `yaml:"redis"`
	ChannelLayer ChannelLayerConfig `yaml:"channel_layer" split_words:"true"`
	Tasks        TasksConfig        `yaml:"tasks"`
	Files        FilesConfig        `yaml:"files"`
}

// LoadConfig reads config/config.yaml, then applies .env and SCHOOLHUB_* overrides.
func LoadConfig() *Config {
	cfg, err := Load(DefaultConfigPath)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return cfg
}

func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	// keys missing from the file keep their defaults; explicit zeros stay zero
	cfg := Config{}
	cfg.Tasks.MaxRetries = DefaultMaxRetries
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if cfg.Tasks.MaxRetries < 0 {
		return nil, fmt.Errorf("tasks.max_retries must not be negative, got %d", cfg.Tasks.MaxRetries)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Files.RootDir == "" {
		c.Files.RootDir = "./files"
	}
	if c.Auth.AccessTTL <= 0 {
		c.Auth.AccessTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTTL <= 0 {
		c.Auth.RefreshTTL = 30 * 24 * time.Hour
	}
	if c.Auth.ResetTTL <= 0 {
		c.Auth.ResetTTL = time.Hour
	}
	if c.ChannelLayer.Backend == "" {
		c.ChannelLayer.Backend = "memory"
	}
	if c.ChannelLayer.Prefix == "" {
		c.ChannelLayer.Prefix = "schoolhub:chat:"
	}
	if c.ChannelLayer.SendBuffer <= 0 {
		c.ChannelLayer.SendBuffer = 256
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Tasks.RetryBaseDelay <= 0 {
		c.Tasks.RetryBaseDelay = 30 * time.Second
	}
	if c.Tasks.ClearSessionsInterval <= 0 {
		c.Tasks.ClearSessionsInterval = 10 * time.Second
	}
}
