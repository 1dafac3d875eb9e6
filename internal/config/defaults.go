package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultFeedURL        = "https://api-mainnet.magiceden.dev/v2"
	DefaultFeedTimeout    = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultActivityLimit  = 500
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 10
	DefaultMinConns       = 2
	DefaultPollInterval   = 60 * time.Second
	DefaultFetchTimeout   = 30 * time.Second
	DefaultRecordPause    = 1 * time.Second
	DefaultPublishTimeout = 10 * time.Second
	DefaultMode           = ModeLedger
	DefaultCooldown       = 0 * time.Second
	DefaultSeenCap        = 500
	DefaultSeenTTL        = 24 * time.Hour
	DefaultMetricsPort    = 8080
	DefaultMetricsPath    = "/metrics"
)

// Reconciliation modes.
const (
	ModeLedger = "ledger"
	ModeSeen   = "seen"
)

func (c *Config) applyDefaults() {
	// Feed defaults
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = DefaultFeedURL
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = DefaultFeedTimeout
	}
	if c.Feed.MaxRetries == 0 {
		c.Feed.MaxRetries = DefaultMaxRetries
	}
	if c.Feed.ActivityLimit == 0 {
		c.Feed.ActivityLimit = DefaultActivityLimit
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.FetchTimeout == 0 {
		c.Poller.FetchTimeout = DefaultFetchTimeout
	}
	if c.Poller.RecordPause == 0 {
		c.Poller.RecordPause = DefaultRecordPause
	}
	if c.Poller.PublishTimeout == 0 {
		c.Poller.PublishTimeout = DefaultPublishTimeout
	}
	if c.Poller.Mode == "" {
		c.Poller.Mode = DefaultMode
	}

	// Seen cache defaults
	if c.SeenCache.Cap == 0 {
		c.SeenCache.Cap = DefaultSeenCap
	}
	if c.SeenCache.TTL == 0 {
		c.SeenCache.TTL = DefaultSeenTTL
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
