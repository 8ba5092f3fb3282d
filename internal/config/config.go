// Package config materialises runtime configuration from file, environment,
// and defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"goldwatch/internal/logging"
)

// Config is the full application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Source    SourceConfig    `mapstructure:"source"`
	Store     StoreConfig     `mapstructure:"store"`
	Staging   StagingConfig   `mapstructure:"staging"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Output    OutputConfig    `mapstructure:"output"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SourceConfig points at the monitored price page.
type SourceConfig struct {
	URL            string        `mapstructure:"url"`
	TableClass     string        `mapstructure:"table_class"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StoreConfig selects and parameterises the snapshot store backend.
// Backend "auto" picks gist when gist credentials are present, postgres when
// a DSN is present, and the local file otherwise.
type StoreConfig struct {
	Backend  string         `mapstructure:"backend"`
	Gist     GistConfig     `mapstructure:"gist"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	FilePath string         `mapstructure:"file_path"`
}

// GistConfig covers the GitHub Gist remote store.
type GistConfig struct {
	Token          string        `mapstructure:"token"`
	GistID         string        `mapstructure:"gist_id"`
	FileName       string        `mapstructure:"file_name"`
	APIBase        string        `mapstructure:"api_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// PostgresConfig covers the Postgres snapshot backend.
type PostgresConfig struct {
	DSN          string        `mapstructure:"dsn"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	ConnLifetime time.Duration `mapstructure:"conn_lifetime"`
	SnapshotKey  string        `mapstructure:"snapshot_key"`
}

// StagingConfig locates the decide/notify hand-off artifact.
type StagingConfig struct {
	Path string `mapstructure:"path"`
}

// NotifyConfig defines delivery channel and retry policy.
type NotifyConfig struct {
	Enabled    bool           `mapstructure:"enabled"`
	Title      string         `mapstructure:"title"`
	Telegram   TelegramConfig `mapstructure:"telegram"`
	Attach     string         `mapstructure:"attach"`
	Retries    int            `mapstructure:"retries"`
	RetryDelay time.Duration  `mapstructure:"retry_delay"`
}

// TelegramConfig describes the Telegram bot channel.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	APIBase        string        `mapstructure:"api_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SchedulerConfig governs the watch-loop cadence.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	AlignToClock bool          `mapstructure:"align_to_clock"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// OutputConfig locates the machine-readable decision signal. When Path is
// empty the GITHUB_OUTPUT environment variable is consulted at runtime.
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// Attachment modes for change notifications.
const (
	AttachNone       = "none"
	AttachChart      = "chart"
	AttachScreenshot = "screenshot"
)

// Store backends.
const (
	BackendAuto     = "auto"
	BackendGist     = "gist"
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GOLDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "goldwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("source.url", "https://baotinmanhhai.vn/")
	v.SetDefault("source.table_class", "gold-table-content")
	v.SetDefault("source.user_agent", "Mozilla/5.0 (compatible; goldwatch/1.0)")
	v.SetDefault("source.request_timeout", "15s")

	v.SetDefault("store.backend", BackendAuto)
	// Keys with no natural default still need to be registered, otherwise
	// viper's AutomaticEnv never consults the environment for them.
	v.SetDefault("store.gist.token", "")
	v.SetDefault("store.gist.gist_id", "")
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("notify.telegram.bot_token", "")
	v.SetDefault("notify.telegram.chat_id", "")
	v.SetDefault("output.path", "")
	v.SetDefault("store.gist.api_base", "https://api.github.com")
	v.SetDefault("store.gist.file_name", "gold_last.txt")
	v.SetDefault("store.gist.request_timeout", "10s")
	v.SetDefault("store.postgres.max_open_conns", 2)
	v.SetDefault("store.postgres.conn_lifetime", "30m")
	v.SetDefault("store.postgres.snapshot_key", "gold")
	v.SetDefault("store.file_path", "gold_last.txt")

	v.SetDefault("staging.path", "gold_staged.txt")

	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.title", "Gold price update")
	v.SetDefault("notify.attach", AttachNone)
	v.SetDefault("notify.retries", 3)
	v.SetDefault("notify.retry_delay", "5s")
	v.SetDefault("notify.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("notify.telegram.request_timeout", "20s")

	v.SetDefault("scheduler.interval", "30m")
	v.SetDefault("scheduler.align_to_clock", true)
	v.SetDefault("scheduler.startup_delay", "0s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs fail-fast sanity checks before any fetch runs.
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url is required")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Notify.Retries <= 0 {
		return fmt.Errorf("notify.retries must be greater than zero")
	}
	if c.Notify.RetryDelay < 0 {
		return fmt.Errorf("notify.retry_delay cannot be negative")
	}
	if c.Notify.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token is required when notify is enabled")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.chat_id is required when notify is enabled")
		}
	}
	switch c.Notify.Attach {
	case AttachNone, AttachChart, AttachScreenshot:
	default:
		return fmt.Errorf("notify.attach must be one of none, chart, screenshot")
	}
	switch c.Store.Backend {
	case BackendAuto, BackendGist, BackendPostgres, BackendFile:
	default:
		return fmt.Errorf("store.backend must be one of auto, gist, postgres, file")
	}
	if c.Store.Backend == BackendGist && (c.Store.Gist.Token == "" || c.Store.Gist.GistID == "") {
		return fmt.Errorf("store.gist.token and store.gist.gist_id are required for the gist backend")
	}
	if c.Store.Backend == BackendPostgres && c.Store.Postgres.DSN == "" {
		return fmt.Errorf("store.postgres.dsn is required for the postgres backend")
	}
	if c.Store.FilePath == "" {
		return fmt.Errorf("store.file_path is required")
	}
	if c.Staging.Path == "" {
		return fmt.Errorf("staging.path is required")
	}
	return nil
}

// ResolveBackend maps BackendAuto onto a concrete backend from the
// credentials present.
func (c *Config) ResolveBackend() string {
	if c.Store.Backend != BackendAuto {
		return c.Store.Backend
	}
	if c.Store.Gist.Token != "" && c.Store.Gist.GistID != "" {
		return BackendGist
	}
	if c.Store.Postgres.DSN != "" {
		return BackendPostgres
	}
	return BackendFile
}
