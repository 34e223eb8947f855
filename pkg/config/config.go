// Package config loads the engine's configuration once at process entry and
// threads it into an engine.Engine value — no package-level singletons, per
// the "Mutable globals" design note: configuration is a value passed in,
// caches live on the Engine, not in this package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/driftforge/keyrotate/infrastructure/lock"
	"github.com/driftforge/keyrotate/pkg/logger"
)

// KeyringConfig locates the keyring store's two files (state and human log)
// and the credentials file, and carries the optional encryption key.
type KeyringConfig struct {
	StatePath       string `json:"state_path" env:"KEYRING_STATE_PATH"`
	HumanLogPath    string `json:"human_log_path" env:"KEYRING_HUMAN_LOG_PATH"`
	CredentialsPath string `json:"credentials_path" env:"KEYRING_CREDENTIALS_PATH"`
	EncryptionKey   string `json:"-" env:"KEYRING_ENCRYPTION_KEY"`
}

// ProviderConfig describes the upstream OAuth/usage provider.
type ProviderConfig struct {
	BaseURL           string            `json:"base_url" env:"PROVIDER_BASE_URL"`
	BetaHeader        string            `json:"beta_header" env:"PROVIDER_BETA_HEADER"`
	ClientID          string            `json:"client_id" env:"PROVIDER_CLIENT_ID"`
	RequestTimeout    time.Duration     `json:"request_timeout" env:"PROVIDER_REQUEST_TIMEOUT"`
	RequestsPerSecond float64           `json:"requests_per_second" env:"PROVIDER_REQUESTS_PER_SECOND"`
	MetricPaths       map[string]string `json:"metric_paths" yaml:"metric_paths"`
}

// DaemonConfig controls the adaptive quota monitor.
type DaemonConfig struct {
	AdminListenAddr string        `json:"admin_listen_addr" env:"DAEMON_ADMIN_LISTEN_ADDR"`
	RediscoverCron  string        `json:"rediscover_cron" env:"DAEMON_REDISCOVER_CRON"`
	ProbeDeadline   time.Duration `json:"probe_deadline" env:"DAEMON_PROBE_DEADLINE"`
	ShutdownGrace   time.Duration `json:"shutdown_grace" env:"DAEMON_SHUTDOWN_GRACE"`
}

// LoggingConfig controls the engine's structured logger (pkg/logger).
type LoggingConfig = logger.LoggingConfig

// Config is the top-level configuration value, loaded once in main and
// threaded into an engine.Engine constructed at entry.
type Config struct {
	Keyring  KeyringConfig  `json:"keyring"`
	Provider ProviderConfig `json:"provider"`
	Daemon   DaemonConfig   `json:"daemon"`
	Logging  LoggingConfig  `json:"logging"`
	Lock     lock.Config    `json:"lock"`
}

// New returns a configuration populated with defaults.
func New() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Keyring: KeyringConfig{
			StatePath:       filepath.Join(home, ".keyrotate", "keyring.json"),
			HumanLogPath:    filepath.Join(home, ".keyrotate", "rotation.log"),
			CredentialsPath: filepath.Join(home, ".keyrotate", "credentials.json"),
		},
		Provider: ProviderConfig{
			BaseURL:           "https://api.anthropic.com",
			BetaHeader:        "oauth-2025-04-20",
			RequestTimeout:    10 * time.Second,
			RequestsPerSecond: 5,
		},
		Daemon: DaemonConfig{
			AdminListenAddr: "127.0.0.1:9797",
			RediscoverCron:  "0 * * * *",
			ProbeDeadline:   10 * time.Second,
			ShutdownGrace:   5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			FilePrefix: "keyrotate",
		},
		Lock: lock.Config{
			Backend: lock.BackendFile,
		},
	}
}

// Load loads configuration from an optional config.yaml overlay, then
// environment variables, which take precedence. An optional .env file is
// loaded into the environment first (without overriding variables already
// set), so its entries also take precedence over config.yaml.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		_ = loadFromFile("config.yaml", cfg)
	}

	if err := envdecode.Decode(cfg); err != nil {
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	cfg.normalize()
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	expanded, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize fills in defaults envdecode/yaml left zero. It creates no
// directories; keyring.Store.Save creates the state file's parent itself.
func (c *Config) normalize() {
	if c.Keyring.StatePath == "" {
		home, _ := os.UserHomeDir()
		c.Keyring.StatePath = filepath.Join(home, ".keyrotate", "keyring.json")
	}
	if c.Keyring.HumanLogPath == "" {
		c.Keyring.HumanLogPath = filepath.Join(filepath.Dir(c.Keyring.StatePath), "rotation.log")
	}
	if c.Keyring.CredentialsPath == "" {
		c.Keyring.CredentialsPath = filepath.Join(filepath.Dir(c.Keyring.StatePath), "credentials.json")
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://api.anthropic.com"
	}
	if c.Provider.RequestTimeout == 0 {
		c.Provider.RequestTimeout = 10 * time.Second
	}
	if c.Provider.RequestsPerSecond == 0 {
		c.Provider.RequestsPerSecond = 5
	}
	if c.Daemon.AdminListenAddr == "" {
		c.Daemon.AdminListenAddr = "127.0.0.1:9797"
	}
	if c.Daemon.RediscoverCron == "" {
		c.Daemon.RediscoverCron = "0 * * * *"
	}
	if c.Daemon.ProbeDeadline == 0 {
		c.Daemon.ProbeDeadline = 10 * time.Second
	}
	if c.Lock.Backend == "" {
		c.Lock.Backend = lock.BackendFile
	}
	if c.Lock.FilePath == "" {
		c.Lock.FilePath = c.Keyring.StatePath + ".lock"
	}
}
