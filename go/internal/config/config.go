package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigFile    = "QUIZBATTLE_CONFIG"
	EnvServerURL     = "QUIZBATTLE_SERVER_URL"
	EnvIdentityFile  = "QUIZBATTLE_IDENTITY_FILE"
	EnvExportDir     = "QUIZBATTLE_EXPORT_DIR"
	EnvNATSURL       = "QUIZBATTLE_NATS_URL"
	EnvInspectAddr   = "QUIZBATTLE_INSPECT_ADDR"
	EnvLogLevel      = "QUIZBATTLE_LOG_LEVEL"
	EnvTickInterval  = "QUIZBATTLE_TICK_INTERVAL"
	EnvReconnectWait = "QUIZBATTLE_RECONNECT_WAIT"

	DefaultConfigFile = "quizbattle.yaml"
)

// Config is the client configuration. Zero-valued strings disable the
// optional NATS export and inspect server.
type Config struct {
	ServerURL     string        `yaml:"server_url"`
	IdentityFile  string        `yaml:"identity_file"`
	ExportDir     string        `yaml:"export_dir"`
	NATSURL       string        `yaml:"nats_url"`
	InspectAddr   string        `yaml:"inspect_addr"`
	LogLevel      string        `yaml:"log_level"`
	TickInterval  time.Duration `yaml:"tick_interval"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
}

// Default returns the built-in configuration
func Default() Config {
	identity := filepath.Join(".quizbattle", "identity.yaml")
	if home, err := os.UserHomeDir(); err == nil {
		identity = filepath.Join(home, identity)
	}
	return Config{
		ServerURL:     "http://localhost:8000",
		IdentityFile:  identity,
		ExportDir:     ".",
		LogLevel:      "info",
		TickInterval:  time.Second,
		ReconnectWait: 2 * time.Second,
	}
}

// Load reads .env, then the YAML file named by QUIZBATTLE_CONFIG (a missing
// default file is fine), then applies env overrides
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := Default()
	path := getEnv(EnvConfigFile, DefaultConfigFile)
	if err := cfg.mergeFile(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) || os.Getenv(EnvConfigFile) != "" {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.ServerURL = getEnv(EnvServerURL, c.ServerURL)
	c.IdentityFile = getEnv(EnvIdentityFile, c.IdentityFile)
	c.ExportDir = getEnv(EnvExportDir, c.ExportDir)
	c.NATSURL = getEnv(EnvNATSURL, c.NATSURL)
	c.InspectAddr = getEnv(EnvInspectAddr, c.InspectAddr)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)

	var err error
	if c.TickInterval, err = getEnvAsDuration(EnvTickInterval, c.TickInterval); err != nil {
		return err
	}
	if c.ReconnectWait, err = getEnvAsDuration(EnvReconnectWait, c.ReconnectWait); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the client cannot run with
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server_url is required")
	}
	if c.IdentityFile == "" {
		return errors.New("identity_file is required")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.ReconnectWait < 0 {
		return fmt.Errorf("reconnect_wait must not be negative, got %s", c.ReconnectWait)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
