package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/neocertify/neocertify/internal/signing"
)

const appName = "neocertify"

type Config struct {
	Database     *dbConfig           `json:"database,omitempty"`
	Service      *svcConfig          `json:"service,omitempty"`
	Signing      *signingConfig      `json:"signing,omitempty"`
	RateLimit    *rateLimitConfig    `json:"rateLimit,omitempty"`
	Redis        *redisConfig        `json:"redis,omitempty"`
	Notification *notificationConfig `json:"notification,omitempty"`
}

type dbConfig struct {
	Type     string `json:"type,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	Port     uint   `json:"port,omitempty"`
	Name     string `json:"name,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
}

type svcConfig struct {
	Address  string `json:"address,omitempty"`
	BaseURL  string `json:"baseUrl,omitempty"`
	LogLevel string `json:"logLevel,omitempty"`
}

type signingConfig struct {
	// Current HMAC secret for code signing.
	Secret string `json:"secret,omitempty"`
	// Previous secret, still accepted during a rotation grace period.
	PreviousSecret string `json:"previousSecret,omitempty"`
}

type windowConfig struct {
	Requests int `json:"requests,omitempty"`
	// Window length in seconds.
	WindowSeconds int `json:"windowSeconds,omitempty"`
}

func (w *windowConfig) Window() time.Duration {
	return time.Duration(w.WindowSeconds) * time.Second
}

type rateLimitConfig struct {
	// Public verification/inquiry endpoints.
	Public *windowConfig `json:"public,omitempty"`
	// Authentication attempts.
	Auth *windowConfig `json:"auth,omitempty"`
	// Authenticated API calls.
	API *windowConfig `json:"api,omitempty"`
}

type redisConfig struct {
	Enabled  bool   `json:"enabled,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	Port     uint   `json:"port,omitempty"`
	Password string `json:"password,omitempty"`
}

type notificationConfig struct {
	APIURL       string `json:"apiUrl,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	SenderKey    string `json:"senderKey,omitempty"`
	SenderPhone  string `json:"senderPhone,omitempty"`
	WebhookToken string `json:"webhookToken,omitempty"`
	TestMode     bool   `json:"testMode,omitempty"`

	MaxRetries       int `json:"maxRetries,omitempty"`
	BaseDelaySeconds int `json:"baseDelaySeconds,omitempty"`
	MaxDelaySeconds  int `json:"maxDelaySeconds,omitempty"`
}

func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "."+appName)
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type:     "pgsql",
			Hostname: "localhost",
			Port:     5432,
			Name:     "neocertify",
			User:     "admin",
			Password: "adminpass",
		},
		Service: &svcConfig{
			Address:  ":3000",
			BaseURL:  "http://localhost:3000",
			LogLevel: "info",
		},
		Signing: &signingConfig{},
		RateLimit: &rateLimitConfig{
			Public: &windowConfig{Requests: 20, WindowSeconds: 60},
			Auth:   &windowConfig{Requests: 5, WindowSeconds: 900},
			API:    &windowConfig{Requests: 60, WindowSeconds: 60},
		},
		Redis: &redisConfig{
			Enabled:  false,
			Hostname: "localhost",
			Port:     6379,
		},
		Notification: &notificationConfig{
			TestMode:         true,
			MaxRetries:       3,
			BaseDelaySeconds: 60,
			MaxDelaySeconds:  1800,
		},
	}
}

func NewFromFile(cfgFile string) (*Config, error) {
	cfg, err := Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadOrGenerate(cfgFile string) (*Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(cfgFile), os.FileMode(0755)); err != nil {
			return nil, fmt.Errorf("creating directory for config file: %w", err)
		}
		cfg := NewDefault()
		secret, err := signing.NewSecret(32)
		if err != nil {
			return nil, fmt.Errorf("generating signing secret: %w", err)
		}
		cfg.Signing.Secret = secret
		if err := Save(cfg, cfgFile); err != nil {
			return nil, err
		}
	}
	return NewFromFile(cfgFile)
}

func Load(cfgFile string) (*Config, error) {
	contents, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(contents, c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}

func Save(cfg *Config, cfgFile string) error {
	contents, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(cfgFile, contents, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func Validate(cfg *Config) error {
	if cfg.Database == nil {
		return fmt.Errorf("database configuration is missing")
	}
	if cfg.Service == nil {
		return fmt.Errorf("service configuration is missing")
	}
	if cfg.Signing == nil || cfg.Signing.Secret == "" {
		return fmt.Errorf("signing secret is missing")
	}
	if cfg.RateLimit != nil {
		for name, w := range map[string]*windowConfig{
			"public": cfg.RateLimit.Public,
			"auth":   cfg.RateLimit.Auth,
			"api":    cfg.RateLimit.API,
		} {
			if w == nil {
				continue
			}
			if w.Requests <= 0 || w.WindowSeconds <= 0 {
				return fmt.Errorf("rate limit %q must have positive requests and window", name)
			}
		}
	}
	return nil
}
