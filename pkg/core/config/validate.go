package config

import (
	"errors"
	"fmt"
	"regexp"
)

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks value ranges. Secrets are reported by MissingSecrets, not
// here, so the API can start in a degraded mode.
func (c *Config) Validate() error {
	if c.API.Addr == "" {
		return errors.New("api.addr is required")
	}
	if c.Database.MaxConns < 1 {
		return errors.New("database.max_conns must be >= 1")
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns must be between 0 and %d", c.Database.MaxConns)
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini.model is required")
	}
	if !tableName.MatchString(c.Vector.Table) {
		return fmt.Errorf("vector.table %q is not a valid identifier", c.Vector.Table)
	}
	if c.Vector.Dimensions < 1 {
		return errors.New("vector.dimensions must be >= 1")
	}
	if c.Vector.BatchSize < 1 {
		return errors.New("vector.batch_size must be >= 1")
	}
	if c.Storage.PresignExpiry <= 0 {
		return errors.New("storage.presign_expiry must be positive")
	}
	if c.Growjo.URL == "" {
		return errors.New("growjo.url is required")
	}
	if c.Refine.Workers < 1 {
		return errors.New("refine.workers must be >= 1")
	}
	if c.Assistant.TopK < 1 {
		return errors.New("assistant.top_k must be >= 1")
	}
	if c.Assistant.MinScore < 0 || c.Assistant.MinScore > 1 {
		return fmt.Errorf("assistant.min_score must be between 0 and 1, got %v", c.Assistant.MinScore)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}
