package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Feed.BaseURL == "" {
		return errors.New("feed.base_url is required")
	}
	if c.Feed.ActivityLimit < 1 {
		return errors.New("feed.activity_limit must be >= 1")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Poller.Mode != ModeLedger && c.Poller.Mode != ModeSeen {
		return fmt.Errorf("poller.mode must be %q or %q, got %q", ModeLedger, ModeSeen, c.Poller.Mode)
	}
	if c.Poller.Interval <= 0 {
		return errors.New("poller.interval must be positive")
	}
	if c.Poller.RecordPause < 0 {
		return errors.New("poller.record_pause must be >= 0")
	}

	if c.Ledger.Cooldown < 0 {
		return errors.New("ledger.cooldown must be >= 0")
	}

	if c.SeenCache.Cap < 1 {
		return errors.New("seen_cache.cap must be >= 1")
	}
	if c.SeenCache.TTL <= 0 {
		return errors.New("seen_cache.ttl must be positive")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
