package config

import "time"

// Config is the root configuration for a watcher instance.
type Config struct {
	Feed      FeedConfig      `yaml:"feed"`
	Database  DBConfig        `yaml:"database"`
	Poller    PollerConfig    `yaml:"poller"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	SeenCache SeenCacheConfig `yaml:"seen_cache"`
	Notify    NotifyConfig    `yaml:"notify"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// FeedConfig holds marketplace API settings.
type FeedConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"` // Optional bearer token for higher rate limits
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	ActivityLimit int           `yaml:"activity_limit"`
}

// DBConfig holds the state store connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// PollerConfig holds reconciliation driver settings.
type PollerConfig struct {
	Interval       time.Duration `yaml:"interval"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	RecordPause    time.Duration `yaml:"record_pause"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
	Mode           string        `yaml:"mode"` // "ledger" or "seen"
}

// LedgerConfig holds listing ledger settings.
type LedgerConfig struct {
	// Cooldown is the minimum time between two surfaced price-change
	// notifications for the same token. Zero disables suppression.
	Cooldown time.Duration `yaml:"cooldown"`
}

// SeenCacheConfig holds seen-set dedup cache settings.
type SeenCacheConfig struct {
	Cap int           `yaml:"cap"` // Max entries per collection
	TTL time.Duration `yaml:"ttl"` // Lazy expiry window
}

// NotifyConfig holds event sink settings.
type NotifyConfig struct {
	// WebhookURL is the Discord webhook endpoint. Empty means events
	// are logged instead of delivered.
	WebhookURL string `yaml:"webhook_url"`
}

// MetricsConfig holds the metrics/health HTTP server settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
