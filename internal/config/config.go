package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is loaded once at startup and treated as immutable for the process
// lifetime.
type Config struct {
	SourceSheetID int64  `yaml:"sourceSheetId"`
	DestSheetID   int64  `yaml:"destSheetId"`
	AccessToken   string `yaml:"accessToken"`
	WebhookName   string `yaml:"webhookName"`
	CallbackURL   string `yaml:"callbackUrl"`
	ListenAddr    string `yaml:"listenAddr"`
	APIBaseURL    string `yaml:"apiBaseUrl"`
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"`
}

// Load builds the configuration: a best-effort .env load, then an optional
// YAML file named by CELLRELAY_CONFIG, then environment variables, which win
// over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		WebhookName: "cellrelay",
		ListenAddr:  ":8080",
		LogLevel:    "info",
		LogFormat:   "json",
	}

	if path := os.Getenv("CELLRELAY_CONFIG"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var err error
	if cfg.SourceSheetID, err = int64Env("CELLRELAY_SOURCE_SHEET_ID", cfg.SourceSheetID); err != nil {
		return err
	}
	if cfg.DestSheetID, err = int64Env("CELLRELAY_DEST_SHEET_ID", cfg.DestSheetID); err != nil {
		return err
	}
	cfg.AccessToken = getEnv("CELLRELAY_ACCESS_TOKEN", cfg.AccessToken)
	cfg.WebhookName = getEnv("CELLRELAY_WEBHOOK_NAME", cfg.WebhookName)
	cfg.CallbackURL = getEnv("CELLRELAY_CALLBACK_URL", cfg.CallbackURL)
	cfg.ListenAddr = getEnv("CELLRELAY_ADDR", cfg.ListenAddr)
	cfg.APIBaseURL = getEnv("CELLRELAY_API_BASE_URL", cfg.APIBaseURL)
	cfg.LogLevel = getEnv("CELLRELAY_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("CELLRELAY_LOG_FORMAT", cfg.LogFormat)
	return nil
}

// Validate ensures the fields every command needs are present. CallbackURL
// is only needed by serve and is checked there.
func (c *Config) Validate() error {
	if c.AccessToken == "" {
		return errors.New("access token is required (CELLRELAY_ACCESS_TOKEN)")
	}
	if c.SourceSheetID == 0 {
		return errors.New("source sheet id is required (CELLRELAY_SOURCE_SHEET_ID)")
	}
	if c.DestSheetID == 0 {
		return errors.New("destination sheet id is required (CELLRELAY_DEST_SHEET_ID)")
	}
	if c.SourceSheetID == c.DestSheetID {
		return errors.New("source and destination sheet ids must differ")
	}
	if c.WebhookName == "" {
		return errors.New("webhook name must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func int64Env(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
	return value, nil
}
