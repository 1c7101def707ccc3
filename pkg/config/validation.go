package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron"

	"github.com/marmos91/lotpurge/pkg/purge"
)

var validate = validator.New()

// Validate checks struct tags first, then the rules tags cannot express:
// watermark ordering, the cron schedule, purge parameter tokens and the
// selected database backend.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if err := cfg.Watermarks().Validate(); err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	if _, err := cron.Parse(cfg.Purge.Schedule); err != nil {
		return fmt.Errorf("purge.schedule %q: %w", cfg.Purge.Schedule, err)
	}

	if err := validatePurgeParams(cfg.Purge.Params); err != nil {
		return fmt.Errorf("purge.params: %w", err)
	}

	return validateDatabase(&cfg.Database)
}

// validatePurgeParams checks the policy tokens. The lot home is only
// checked for existence when a planner is configured with it.
func validatePurgeParams(params string) error {
	tokens := strings.Fields(params)
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) > 5 {
		return fmt.Errorf("%w: expected at most 5 tokens, got %d", purge.ErrInvalidParams, len(tokens))
	}

	seen := make(map[purge.Policy]bool)
	for _, tok := range tokens[1:] {
		p := purge.ParsePolicy(tok)
		if p == purge.PolicyUnknown {
			return fmt.Errorf("%w: %q", purge.ErrUnknownPolicy, tok)
		}
		if seen[p] {
			return fmt.Errorf("%w: %q", purge.ErrDuplicatePolicy, tok)
		}
		seen[p] = true
	}
	return nil
}

func validateDatabase(cfg *DatabaseConfig) error {
	switch cfg.Type {
	case DatabaseSQLite, DatabasePostgres:
		if err := cfg.gormConfig().Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	case DatabaseBadger:
		if cfg.Badger.Path == "" && !cfg.Badger.InMemory {
			return errors.New("database: badger path is required")
		}
	}
	return nil
}

// Watermarks returns the purge thresholds in bytes.
func (c *Config) Watermarks() purge.Watermarks {
	return purge.Watermarks{
		High: c.Purge.HighWatermark.Int64(),
		Low:  c.Purge.LowWatermark.Int64(),
	}
}
