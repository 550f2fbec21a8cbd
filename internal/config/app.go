package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"cbrrates/internal/rate"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultConfigPath = "config.yaml"

type Source struct {
	BaseURL               string   `mapstructure:"base_url"`
	MaxAttempts           int      `mapstructure:"max_attempts"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds"`
	RetryDelaySeconds     int      `mapstructure:"retry_delay_seconds"`
	PaceDelayMs           int      `mapstructure:"pace_delay_ms"`
	Currencies            []string `mapstructure:"currencies"`
}

func (s Source) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// RetryDelay falls back to the request timeout when no explicit delay is set.
func (s Source) RetryDelay() time.Duration {
	if s.RetryDelaySeconds <= 0 {
		return s.RequestTimeout()
	}
	return time.Duration(s.RetryDelaySeconds) * time.Second
}

func (s Source) PaceDelay() time.Duration {
	return time.Duration(s.PaceDelayMs) * time.Millisecond
}

type DatabaseAPI struct {
	Endpoint       string `mapstructure:"endpoint"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type Dedupe struct {
	KeyFields []string `mapstructure:"key_fields"`
}

type Excel struct {
	OutputDir      string `mapstructure:"output_dir"`
	SheetName      string `mapstructure:"sheet_name"`
	MaxColumnWidth int    `mapstructure:"max_column_width"`
}

type Scheduler struct {
	At         string `mapstructure:"at"`
	Timezone   string `mapstructure:"timezone"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

func (s Scheduler) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

type HTTPServer struct {
	Port                string `mapstructure:"port"`
	RunRetentionMinutes int    `mapstructure:"run_retention_minutes"`
}

// RunRetention is how long finished on-demand runs stay queryable.
func (h HTTPServer) RunRetention() time.Duration {
	return time.Duration(h.RunRetentionMinutes) * time.Minute
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// Enabled reports whether the Postgres archive is configured.
func (config *DbServer) Enabled() bool { return config.Host != "" }

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

type Cache struct {
	MaxItems   int64 `mapstructure:"max_items"`
	TTLMinutes int   `mapstructure:"ttl_minutes"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type AppConfig struct {
	Source      Source      `mapstructure:"source"`
	DatabaseAPI DatabaseAPI `mapstructure:"database_api"`
	Dedupe      Dedupe      `mapstructure:"dedupe"`
	Excel       Excel       `mapstructure:"excel"`
	Scheduler   Scheduler   `mapstructure:"scheduler"`
	HTTPServer  HTTPServer  `mapstructure:"http_server"`
	DbServer    DbServer    `mapstructure:"db_server"`
	Cache       Cache       `mapstructure:"cache"`
	Logging     Logging     `mapstructure:"logging"`
}

// Validate checks the values the pipeline cannot run without.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Source.BaseURL) == "" {
		return errors.New("source.base_url is required")
	}
	if c.Source.MaxAttempts < 1 {
		return fmt.Errorf("source.max_attempts must be at least 1, got %d", c.Source.MaxAttempts)
	}
	if c.Source.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("source.request_timeout_seconds must be positive, got %d", c.Source.RequestTimeoutSeconds)
	}
	if c.Source.PaceDelayMs < 0 {
		return fmt.Errorf("source.pace_delay_ms must not be negative, got %d", c.Source.PaceDelayMs)
	}
	if err := rate.ValidateKeyFields(c.Dedupe.KeyFields); err != nil {
		return fmt.Errorf("dedupe.key_fields: %w", err)
	}
	if _, _, err := rate.ParseRunAt(c.Scheduler.At); err != nil {
		return fmt.Errorf("scheduler.at: %w", err)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return err
	}
	if c.Cache.MaxItems < 1 {
		return fmt.Errorf("cache.max_items must be positive, got %d", c.Cache.MaxItems)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", "https://cbr.ru/currency_base/daily/")
	v.SetDefault("source.max_attempts", rate.DefaultMaxAttempts)
	v.SetDefault("source.request_timeout_seconds", 10)
	v.SetDefault("source.retry_delay_seconds", 0)
	v.SetDefault("source.pace_delay_ms", rate.DefaultPaceDelay.Milliseconds())
	v.SetDefault("source.currencies", []string{})

	v.SetDefault("database_api.timeout_seconds", 30)

	v.SetDefault("dedupe.key_fields", rate.DefaultKeyFields)

	v.SetDefault("excel.output_dir", ".")
	v.SetDefault("excel.sheet_name", "Курсы валют")
	v.SetDefault("excel.max_column_width", 50)

	v.SetDefault("scheduler.at", rate.DefaultRunAt)
	v.SetDefault("scheduler.timezone", rate.DefaultTimezone)
	v.SetDefault("scheduler.run_on_start", true)

	v.SetDefault("http_server.port", "8080")
	v.SetDefault("http_server.run_retention_minutes", int(rate.DefaultRunRetention.Minutes()))
	v.SetDefault("db_server.port", "5432")
	v.SetDefault("db_server.max_conns", 10)

	v.SetDefault("cache.max_items", 256)
	v.SetDefault("cache.ttl_minutes", 60)

	v.SetDefault("logging.level", "info")
}

func bindEnv(v *viper.Viper) {
	// source env vars
	_ = v.BindEnv("source.base_url", "CBR_BASE_URL")
	_ = v.BindEnv("source.max_attempts", "CBR_MAX_ATTEMPTS")
	_ = v.BindEnv("source.request_timeout_seconds", "CBR_REQUEST_TIMEOUT_SECONDS")
	_ = v.BindEnv("source.currencies", "CURRENCIES")

	// database api env vars
	_ = v.BindEnv("database_api.endpoint", "CURRENCY_RATES_ENDPOINT")
	_ = v.BindEnv("database_api.token", "API_TOKEN")

	_ = v.BindEnv("excel.output_dir", "OUTPUT_DIR")
	_ = v.BindEnv("scheduler.at", "SCHEDULER_AT")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")

	// db server env vars
	_ = v.BindEnv("db_server.host", "DB_HOST")
	_ = v.BindEnv("db_server.port", "DB_PORT")
	_ = v.BindEnv("db_server.user", "DB_USER")
	_ = v.BindEnv("db_server.pass", "DB_PASS")
	_ = v.BindEnv("db_server.name", "DB_NAME")
	_ = v.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	_ = v.BindEnv("http_server.port", "HTTP_PORT")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
}

// Init loads .env and the YAML file at path (both optional), applies env overrides and validates the result.
func Init(path string) (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path == "" {
		path = DefaultConfigPath
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
