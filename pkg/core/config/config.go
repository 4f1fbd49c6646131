// Package config loads InvestorIntel settings from a YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config is the full application configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Database  DatabaseConfig  `yaml:"database"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Vector    VectorConfig    `yaml:"vector"`
	Storage   StorageConfig   `yaml:"storage"`
	Growjo    GrowjoConfig    `yaml:"growjo"`
	Refine    RefineConfig    `yaml:"refine"`
	LogLevel  string          `yaml:"log_level"`
	Assistant AssistantConfig `yaml:"assistant"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MinConns int    `yaml:"min_conns"`
	MaxConns int    `yaml:"max_conns"`
}

type GeminiConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

type VectorConfig struct {
	Table      string `yaml:"table"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
}

type StorageConfig struct {
	Region        string        `yaml:"region"`
	Bucket        string        `yaml:"bucket"`
	PresignExpiry time.Duration `yaml:"presign_expiry"`
}

type GrowjoConfig struct {
	URL         string        `yaml:"url"`
	WaitTimeout time.Duration `yaml:"wait_timeout"`
	ControlURL  string        `yaml:"control_url"`
}

type RefineConfig struct {
	Workers int `yaml:"workers"`
}

type AssistantConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"`
}

// Load reads .env (if present), then the YAML file at path (optional when
// path is empty or missing), applies defaults and environment overrides.
// The result is not validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.API.Addr, "API_ADDR")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")
	setString(&c.Gemini.EmbeddingModel, "GEMINI_EMBEDDING_MODEL")
	setString(&c.Storage.Region, "AWS_REGION")
	setString(&c.Storage.Bucket, "AWS_S3_BUCKET_NAME")
	setString(&c.Growjo.URL, "GROWJO_URL")
	setString(&c.Growjo.ControlURL, "BROWSER_CONTROL_URL")
	setString(&c.LogLevel, "LOG_LEVEL")

	if v := getenv("REFINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Refine.Workers = n
		}
	}
}

// MissingSecrets lists the required environment settings that are unset.
func (c *Config) MissingSecrets() []string {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Gemini.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.Storage.Bucket == "" {
		missing = append(missing, "AWS_S3_BUCKET_NAME")
	}
	return missing
}
