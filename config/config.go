package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"trendsv1/internal/dataset"
	"trendsv1/internal/indicator"
)

// Config holds all application configuration. Infrastructure comes from
// environment variables; indicator parameters may be overridden by the YAML
// file named in CONFIG_FILE.
type Config struct {
	// Infrastructure
	HTTPAddr      string
	MetricsAddr   string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	LogLevel      string

	// Upstream providers
	RateLimit        time.Duration
	BinanceBaseURL   string
	CoinGeckoBaseURL string
	DeribitBaseURL   string
	GoldCoinID       string

	// Scheduling
	RefreshCron     string
	AlertWebhookURL string

	Indicators Indicators
}

// Indicators is the YAML-overridable part of the config.
type Indicators struct {
	RSIPeriod int `yaml:"rsi_period"`
	MACD      struct {
		Fast   int `yaml:"fast"`
		Slow   int `yaml:"slow"`
		Signal int `yaml:"signal"`
	} `yaml:"macd"`
	ADXPeriod int `yaml:"adx_period"`
	ATRPeriod int `yaml:"atr_period"`
	Bollinger struct {
		Period int     `yaml:"period"`
		K      float64 `yaml:"k"`
	} `yaml:"bollinger"`
	IVRWindow    int `yaml:"ivr_window"`
	ParabolicSAR struct {
		AFStart float64 `yaml:"af_start"`
		AFStep  float64 `yaml:"af_step"`
		AFMax   float64 `yaml:"af_max"`
	} `yaml:"parabolic_sar"`
	OverlapDays int `yaml:"overlap_days"`
	DefaultDays int `yaml:"default_days"`
}

// Load reads configuration from environment variables with sensible
// defaults, then applies CONFIG_FILE when set.
func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		SQLitePath:    getEnv("SQLITE_PATH", "data/history.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SEC", 300)) * time.Second,
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		RateLimit:        time.Duration(getEnvInt("RATE_LIMIT_MS", 2000)) * time.Millisecond,
		BinanceBaseURL:   getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
		CoinGeckoBaseURL: getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		DeribitBaseURL:   getEnv("DERIBIT_BASE_URL", "https://www.deribit.com/api/v2"),
		GoldCoinID:       getEnv("GOLD_COIN_ID", "pax-gold"),

		// Every 15 minutes, seconds field included.
		RefreshCron:     getEnv("REFRESH_CRON", "0 */15 * * * *"),
		AlertWebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),
	}
	c.Indicators = defaultIndicators()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func defaultIndicators() Indicators {
	d := dataset.DefaultSettings()
	var ind Indicators
	ind.RSIPeriod = d.RSIPeriod
	ind.MACD.Fast, ind.MACD.Slow, ind.MACD.Signal = d.MACDFast, d.MACDSlow, d.MACDSignal
	ind.ADXPeriod = d.ADXPeriod
	ind.ATRPeriod = d.ATRPeriod
	ind.Bollinger.Period, ind.Bollinger.K = d.BollingerPeriod, d.BollingerK
	ind.IVRWindow = d.IVRWindow
	ind.ParabolicSAR.AFStart, ind.ParabolicSAR.AFStep, ind.ParabolicSAR.AFMax = d.SARStart, d.SARStep, d.SARMax
	ind.OverlapDays = d.OverlapDays
	ind.DefaultDays = d.DefaultDays
	return ind
}

// loadFile overlays the YAML file on the current indicator settings. Keys
// missing from the file keep their defaults.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var file struct {
		Indicators Indicators `yaml:"indicators"`
	}
	file.Indicators = c.Indicators
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	c.Indicators = file.Indicators
	slog.Info("config: loaded indicator overrides", "path", path)
	return nil
}

// Validate checks that every value can produce output.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.SQLitePath == "" {
		return errors.New("SQLITE_PATH is required")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SEC must be > 0, got %s", c.CacheTTL)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT_MS must be >= 0, got %s", c.RateLimit)
	}

	ind := c.Indicators
	if ind.OverlapDays < 0 {
		return fmt.Errorf("indicators.overlap_days must be >= 0, got %d", ind.OverlapDays)
	}
	if ind.DefaultDays < 1 {
		return fmt.Errorf("indicators.default_days must be >= 1, got %d", ind.DefaultDays)
	}
	if err := indicator.ValidateConfigs(c.Settings().Indicators()); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	return nil
}

// Settings maps the config onto the dataset catalog's settings.
func (c *Config) Settings() dataset.Settings {
	ind := c.Indicators
	return dataset.Settings{
		RSIPeriod:       ind.RSIPeriod,
		MACDFast:        ind.MACD.Fast,
		MACDSlow:        ind.MACD.Slow,
		MACDSignal:      ind.MACD.Signal,
		ADXPeriod:       ind.ADXPeriod,
		ATRPeriod:       ind.ATRPeriod,
		BollingerPeriod: ind.Bollinger.Period,
		BollingerK:      ind.Bollinger.K,
		IVRWindow:       ind.IVRWindow,
		SARStart:        ind.ParabolicSAR.AFStart,
		SARStep:         ind.ParabolicSAR.AFStep,
		SARMax:          ind.ParabolicSAR.AFMax,
		OverlapDays:     ind.OverlapDays,
		DefaultDays:     ind.DefaultDays,
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config: invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}
