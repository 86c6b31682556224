package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv     = "CLAUDE_DIGEST_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	ledgerDriverEnv   = "LEDGER_DRIVER"
	ledgerDSNEnv      = "LEDGER_DSN"
	outputPathEnv     = "DIGEST_OUTPUT"
	githubTokenEnv    = "GITHUB_TOKEN"
	redditClientEnv   = "REDDIT_CLIENT_ID"
	redditSecretEnv   = "REDDIT_CLIENT_SECRET"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	HTTP          HTTPConfig         `yaml:"http"`
	Sources       SourcesConfig      `yaml:"sources"`
	Ranking       RankingConfig      `yaml:"ranking"`
	Enrichment    EnrichmentConfig   `yaml:"enrichment"`
	Ledger        LedgerConfig       `yaml:"ledger"`
	Output        OutputConfig       `yaml:"output"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`

	// Credentials come from the environment only.
	Credentials Credentials `yaml:"-"`
}

// LoggingConfig selects level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig applies to every outbound request made by source adapters.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
}

// SourcesConfig picks adapters by name; empty means all of them.
type SourcesConfig struct {
	Enabled []string     `yaml:"enabled"`
	Blogs   []FeedConfig `yaml:"blogs"`
}

// FeedConfig is one syndication feed with its display label.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// RankingConfig controls selection of the digest items.
type RankingConfig struct {
	MinScore int `yaml:"minScore"`
	ListSize int `yaml:"listSize"`
	MaxTotal int `yaml:"maxTotal"`
}

// EnrichmentConfig tunes the image and summary passes.
type EnrichmentConfig struct {
	Disabled         bool          `yaml:"disabled"`
	ImageWorkers     int           `yaml:"imageWorkers"`
	SummaryWorkers   int           `yaml:"summaryWorkers"`
	ItemTimeout      time.Duration `yaml:"itemTimeout"`
	SummaryThreshold int           `yaml:"summaryThreshold"`
	SummaryTarget    int           `yaml:"summaryTarget"`
}

// LedgerConfig describes the deduplication store.
type LedgerConfig struct {
	Driver         string        `yaml:"driver"`
	DSN            string        `yaml:"dsn"`
	Retention      time.Duration `yaml:"retention"`
	CacheRetention time.Duration `yaml:"cacheRetention"`
}

// OutputConfig locates the digest document.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines how often daemon mode runs the pipeline.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram        TelegramConfig `yaml:"telegram"`
	NotifyWhenEmpty bool           `yaml:"notifyWhenEmpty"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Credentials for authenticated sources. Missing values disable the source.
type Credentials struct {
	GitHubToken        string
	RedditClientID     string
	RedditClientSecret string
}

// Load reads the YAML file at path (or $CLAUDE_DIGEST_CONFIG when path is
// empty), merges it over the defaults and applies environment overrides.
// A missing path is not an error; an unreadable or invalid file is.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(ledgerDriverEnv); v != "" {
		c.Ledger.Driver = v
	}
	if v := os.Getenv(ledgerDSNEnv); v != "" {
		c.Ledger.DSN = v
	}
	if v := os.Getenv(outputPathEnv); v != "" {
		c.Output.Path = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	c.Credentials.GitHubToken = os.Getenv(githubTokenEnv)
	c.Credentials.RedditClientID = os.Getenv(redditClientEnv)
	c.Credentials.RedditClientSecret = os.Getenv(redditSecretEnv)
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("config: unknown timezone, reverting to default", "timezone", tz, "default", defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.HTTP.Timeout > 0 {
		base.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.UserAgent != "" {
		base.HTTP.UserAgent = override.HTTP.UserAgent
	}

	if len(override.Sources.Enabled) > 0 {
		base.Sources.Enabled = override.Sources.Enabled
	}
	if len(override.Sources.Blogs) > 0 {
		base.Sources.Blogs = override.Sources.Blogs
	}

	if override.Ranking.MinScore > 0 {
		base.Ranking.MinScore = override.Ranking.MinScore
	}
	if override.Ranking.ListSize > 0 {
		base.Ranking.ListSize = override.Ranking.ListSize
	}
	if override.Ranking.MaxTotal > 0 {
		base.Ranking.MaxTotal = override.Ranking.MaxTotal
	}

	base.Enrichment.Disabled = override.Enrichment.Disabled
	if override.Enrichment.ImageWorkers > 0 {
		base.Enrichment.ImageWorkers = override.Enrichment.ImageWorkers
	}
	if override.Enrichment.SummaryWorkers > 0 {
		base.Enrichment.SummaryWorkers = override.Enrichment.SummaryWorkers
	}
	if override.Enrichment.ItemTimeout > 0 {
		base.Enrichment.ItemTimeout = override.Enrichment.ItemTimeout
	}
	if override.Enrichment.SummaryThreshold > 0 {
		base.Enrichment.SummaryThreshold = override.Enrichment.SummaryThreshold
	}
	if override.Enrichment.SummaryTarget > 0 {
		base.Enrichment.SummaryTarget = override.Enrichment.SummaryTarget
	}

	if override.Ledger.Driver != "" {
		base.Ledger.Driver = override.Ledger.Driver
	}
	if override.Ledger.DSN != "" {
		base.Ledger.DSN = override.Ledger.DSN
	}
	if override.Ledger.Retention > 0 {
		base.Ledger.Retention = override.Ledger.Retention
	}
	if override.Ledger.CacheRetention > 0 {
		base.Ledger.CacheRetention = override.Ledger.CacheRetention
	}

	if override.Output.Path != "" {
		base.Output.Path = override.Output.Path
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	base.Notifications.NotifyWhenEmpty = override.Notifications.NotifyWhenEmpty

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		HTTP:    HTTPConfig{Timeout: 10 * time.Second, UserAgent: "ClaudeDailyDigest/1.0"},
		Ranking: RankingConfig{MinScore: 15, ListSize: 9, MaxTotal: 10},
		Enrichment: EnrichmentConfig{
			ImageWorkers:     8,
			SummaryWorkers:   3,
			ItemTimeout:      15 * time.Second,
			SummaryThreshold: 200,
			SummaryTarget:    500,
		},
		Ledger: LedgerConfig{
			Driver:         "sqlite",
			DSN:            "data/content_db.sqlite",
			Retention:      30 * 24 * time.Hour,
			CacheRetention: 7 * 24 * time.Hour,
		},
		Output:    OutputConfig{Path: "data/daily_digest.json"},
		Scheduler: SchedulerConfig{Interval: 24 * time.Hour, Timezone: defaultTimezone, location: tz},
	}
}
