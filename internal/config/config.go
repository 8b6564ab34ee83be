package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"goldwatcher/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Mail      MailConfig      `mapstructure:"mail"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// SchedulerConfig governs polling cadence.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	IdleBackoff  time.Duration `mapstructure:"idle_backoff"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// FeedConfig covers the upstream price source.
type FeedConfig struct {
	URL            string        `mapstructure:"url"`
	InstrumentCode string        `mapstructure:"instrument_code"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
}

// MailConfig 描述 SMTP 告警邮件参数。
type MailConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	FromAddr     string `mapstructure:"from_addr"`
	ToAddr       string `mapstructure:"to_addr"`
	DefaultTitle string `mapstructure:"default_title"`
	DefaultText  string `mapstructure:"default_text"`
}

// MetricsConfig enables the optional Prometheus endpoint.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	// .env is optional; real deployments may rely on plain env vars.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GOLDWATCHER")
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
	v.SetDefault("app.name", "goldwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("scheduler.interval", "60s")
	v.SetDefault("scheduler.idle_backoff", "5s")
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("feed.url", "http://m.cmbchina.com/api/rate/getgoldratedetail/?no=AUTD")
	v.SetDefault("feed.instrument_code", "glod")
	v.SetDefault("feed.request_timeout", "5s")
	v.SetDefault("feed.user_agent", "goldwatcher/1.0")
	v.SetDefault("feed.max_concurrent", 2)

	// Empty defaults keep env-only keys visible to Unmarshal.
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 465)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from_addr", "")
	v.SetDefault("mail.to_addr", "")
	v.SetDefault("mail.default_title", "黄金价格提醒")
	v.SetDefault("mail.default_text", "")

	v.SetDefault("metrics.listen_addr", "")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "10m")
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

// Validate performs sanity checks on the configuration values. Missing mail
// settings are fatal: the daemon must not start if it could never deliver an
// alert.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Scheduler.IdleBackoff <= 0 {
		return fmt.Errorf("scheduler.idle_backoff must be greater than zero")
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if c.Feed.InstrumentCode == "" {
		return fmt.Errorf("feed.instrument_code is required")
	}
	if c.Feed.MaxConcurrent <= 0 {
		return fmt.Errorf("feed.max_concurrent must be greater than zero")
	}
	if c.Mail.Host == "" {
		return fmt.Errorf("mail.host 必须配置")
	}
	if c.Mail.Port <= 0 {
		return fmt.Errorf("mail.port must be greater than zero")
	}
	if c.Mail.FromAddr == "" {
		return fmt.Errorf("mail.from_addr 必须配置")
	}
	if c.Mail.ToAddr == "" {
		return fmt.Errorf("mail.to_addr 必须配置")
	}
	return nil
}
