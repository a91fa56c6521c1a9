// Package config loads wine-cli settings from config.yaml and WINE_*
// environment variables.
package config

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrUnknownCountry is returned when a country is not in the configured list.
var ErrUnknownCountry = errors.New("config: unknown country")

// Config holds the full application configuration.
type Config struct {
	Countries  []CountryConfig  `yaml:"countries" mapstructure:"countries"`
	Fill       []FillRule       `yaml:"fill" mapstructure:"fill"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Table      TableConfig      `yaml:"table" mapstructure:"table"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Dashboard  DashboardConfig  `yaml:"dashboard" mapstructure:"dashboard"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// CountryConfig is one scrapeable country and its listing page limit.
type CountryConfig struct {
	Name      string `yaml:"name" mapstructure:"name"`
	PageLimit int    `yaml:"page_limit" mapstructure:"page_limit"`
}

// FillRule sets the default for a column whose value is missing.
type FillRule struct {
	Column string `yaml:"column" mapstructure:"column"`
	Value  string `yaml:"value" mapstructure:"value"`
}

// ScrapeConfig configures both acquisition paths.
type ScrapeConfig struct {
	BaseURL            string  `yaml:"base_url" mapstructure:"base_url"`
	DefaultCountry     string  `yaml:"default_country" mapstructure:"default_country"`
	Pages              int     `yaml:"pages" mapstructure:"pages"`
	Workers            int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond  float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TimeoutSecs        int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent          string  `yaml:"user_agent" mapstructure:"user_agent"`
	FeedDir            string  `yaml:"feed_dir" mapstructure:"feed_dir"`
	ElementTimeoutSecs int     `yaml:"element_timeout_secs" mapstructure:"element_timeout_secs"`
	ImageSource        string  `yaml:"image_source" mapstructure:"image_source"`
	BrowserBin         string  `yaml:"browser_bin" mapstructure:"browser_bin"`
}

// RetryConfig holds the whole-page retry budget of the browser path and
// the per-request backoff of the crawler path.
type RetryConfig struct {
	PageAttempts     int     `yaml:"page_attempts" mapstructure:"page_attempts"`
	PageWaitSecs     int     `yaml:"page_wait_secs" mapstructure:"page_wait_secs"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// TableConfig locates the persisted tables.
type TableConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// StoreConfig configures the run ledger database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// DashboardConfig lists the aggregate views served per country.
type DashboardConfig struct {
	Views []ViewConfig `yaml:"views" mapstructure:"views"`
}

// ViewConfig is one aggregate view: a group-by-mean or group-by-count over
// the given dimension columns.
type ViewConfig struct {
	Name string   `yaml:"name" mapstructure:"name"`
	Kind string   `yaml:"kind" mapstructure:"kind"`
	Dims []string `yaml:"dims" mapstructure:"dims"`
}

// MonitoringConfig configures the run health checks.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	SkipRateThreshold    float64 `yaml:"skip_rate_threshold" mapstructure:"skip_rate_threshold"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("countries", []map[string]any{
		{"name": "France", "page_limit": 400},
		{"name": "Italy", "page_limit": 300},
		{"name": "Spain", "page_limit": 150},
		{"name": "Portugal", "page_limit": 80},
		{"name": "Germany", "page_limit": 60},
		{"name": "Australia", "page_limit": 60},
	})
	v.SetDefault("fill", []map[string]any{
		{"column": "Region", "value": "Unknown"},
		{"column": "Producer", "value": "Unknown"},
		{"column": "Sweetness", "value": "Unknown"},
		{"column": "Wine Type", "value": "Unknown"},
		{"column": "Colour", "value": "Unknown"},
		{"column": "Closure", "value": "Unknown"},
		{"column": "Body", "value": "Unknown"},
		{"column": "Oak", "value": "Unknown"},
	})
	v.SetDefault("scrape.base_url", "https://www.decanter.com")
	v.SetDefault("scrape.default_country", "france")
	v.SetDefault("scrape.pages", 400)
	v.SetDefault("scrape.workers", 6)
	v.SetDefault("scrape.requests_per_second", 2.0)
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.user_agent", "wine-cli/1.0")
	v.SetDefault("scrape.feed_dir", "scrapy")
	v.SetDefault("scrape.element_timeout_secs", 5)
	v.SetDefault("scrape.image_source", "https://decanter-prod-aws1-timeincuk-net.s3.eu-west-1")
	v.SetDefault("retry.page_attempts", 6)
	v.SetDefault("retry.page_wait_secs", 120)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("table.dir", ".")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "wine.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("dashboard.views", []map[string]any{
		{"name": "alcohol_by_sweetness", "kind": "mean", "dims": []string{"Sweetness"}},
		{"name": "closures", "kind": "count", "dims": []string{"Closure"}},
		{"name": "colour_by_region", "kind": "count", "dims": []string{"Colour", "Region"}},
		{"name": "body_oak", "kind": "count", "dims": []string{"Body", "Oak"}},
		{"name": "alcohol_by_oak", "kind": "mean", "dims": []string{"Oak", "Grape_Categories", "Region"}},
	})
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.10)
	v.SetDefault("monitoring.skip_rate_threshold", 0.25)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Country looks up a configured country, ignoring case.
func (c *Config) Country(name string) (CountryConfig, error) {
	for _, cc := range c.Countries {
		if strings.EqualFold(cc.Name, strings.TrimSpace(name)) {
			return cc, nil
		}
	}
	return CountryConfig{}, eris.Wrapf(ErrUnknownCountry, "config: %q", name)
}

// CountryNames returns the configured country names in order.
func (c *Config) CountryNames() []string {
	names := make([]string, 0, len(c.Countries))
	for _, cc := range c.Countries {
		names = append(names, cc.Name)
	}
	return names
}

// Validate checks the settings a command needs. Mode is one of "scrape",
// "browse", "serve" or "explore".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "scrape", "browse":
		if c.Scrape.BaseURL == "" {
			errs = append(errs, "scrape.base_url is required")
		}
		if c.Scrape.Workers < 1 || c.Scrape.Workers > 32 {
			errs = append(errs, "scrape.workers must be between 1 and 32")
		}
		if c.Retry.PageAttempts < 1 {
			errs = append(errs, "retry.page_attempts must be > 0")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "explore":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(c.Countries) == 0 {
		errs = append(errs, "countries must not be empty")
	}
	for _, view := range c.Dashboard.Views {
		if view.Kind != "mean" && view.Kind != "count" {
			errs = append(errs, "dashboard.views."+view.Name+".kind must be mean or count")
		}
		if len(view.Dims) == 0 {
			errs = append(errs, "dashboard.views."+view.Name+".dims must not be empty")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
