package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Ledger    LedgerConfig
	Logger    LoggerConfig
	Security  SecurityConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type LedgerConfig struct {
	CSVFile string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// AnalyticsConfig carries every tunable of the computation core. Nothing in
// the analytics package hard-codes domain constants; they all come from here.
type AnalyticsConfig struct {
	// Timezone is the tenant's local calendar; all day boundaries use it.
	Timezone string

	DefaultPeriodDays int
	MaxPeriodDays     int

	// ABC cumulative-percent cutoffs: items up to A are "A", up to B are "B".
	ABCThresholdA float64
	ABCThresholdB float64

	// RFM segment band cutoffs: scores >= High are "high", <= Low are "low".
	RFMHighScore int
	RFMLowScore  int

	// Churn recency thresholds in days. AtRiskDays < recency <= ChurnedDays
	// marks a customer at risk; beyond ChurnedDays they are churned.
	AtRiskDays  int
	ChurnedDays int

	// PeakHourTolerance is the share below the busiest hour that still counts
	// as peak, e.g. 0.1 keeps hours at >= 90% of the maximum.
	PeakHourTolerance float64

	ForecastHistoryDays int
	DefaultForecastDays int
	MaxForecastDays     int
	MaxTrendMonths      int

	// Staffing ratios for the staff forecast variant.
	OrdersPerWaiter float64
	OrdersPerCook   float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8086),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Ledger: LedgerConfig{
			CSVFile: getEnvString("LEDGER_CSV_FILE", "orders.csv"),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8086"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
		Analytics: AnalyticsConfig{
			Timezone:            getEnvString("ANALYTICS_TIMEZONE", "UTC"),
			DefaultPeriodDays:   getEnvInt("ANALYTICS_DEFAULT_PERIOD_DAYS", 30),
			MaxPeriodDays:       getEnvInt("ANALYTICS_MAX_PERIOD_DAYS", 365),
			ABCThresholdA:       getEnvFloat("ANALYTICS_ABC_THRESHOLD_A", 80),
			ABCThresholdB:       getEnvFloat("ANALYTICS_ABC_THRESHOLD_B", 95),
			RFMHighScore:        getEnvInt("ANALYTICS_RFM_HIGH_SCORE", 4),
			RFMLowScore:         getEnvInt("ANALYTICS_RFM_LOW_SCORE", 2),
			AtRiskDays:          getEnvInt("ANALYTICS_CHURN_AT_RISK_DAYS", 30),
			ChurnedDays:         getEnvInt("ANALYTICS_CHURN_CHURNED_DAYS", 90),
			PeakHourTolerance:   getEnvFloat("ANALYTICS_PEAK_HOUR_TOLERANCE", 0.1),
			ForecastHistoryDays: getEnvInt("ANALYTICS_FORECAST_HISTORY_DAYS", 90),
			DefaultForecastDays: getEnvInt("ANALYTICS_DEFAULT_FORECAST_DAYS", 7),
			MaxForecastDays:     getEnvInt("ANALYTICS_MAX_FORECAST_DAYS", 31),
			MaxTrendMonths:      getEnvInt("ANALYTICS_MAX_TREND_MONTHS", 24),
			OrdersPerWaiter:     getEnvFloat("ANALYTICS_ORDERS_PER_WAITER", 25),
			OrdersPerCook:       getEnvFloat("ANALYTICS_ORDERS_PER_COOK", 40),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Ledger.CSVFile == "" {
		return fmt.Errorf("ledger CSV file path cannot be empty")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return c.Analytics.Validate()
}

// Validate checks the analytics knobs for internal consistency.
func (a AnalyticsConfig) Validate() error {
	if _, err := time.LoadLocation(a.Timezone); err != nil {
		return fmt.Errorf("invalid analytics timezone %q: %w", a.Timezone, err)
	}

	if a.DefaultPeriodDays < 1 || a.MaxPeriodDays < a.DefaultPeriodDays {
		return fmt.Errorf("period day bounds must satisfy 1 <= default <= max, got default=%d max=%d", a.DefaultPeriodDays, a.MaxPeriodDays)
	}

	if a.ABCThresholdA <= 0 || a.ABCThresholdA >= a.ABCThresholdB || a.ABCThresholdB > 100 {
		return fmt.Errorf("ABC thresholds must satisfy 0 < A < B <= 100, got A=%.1f B=%.1f", a.ABCThresholdA, a.ABCThresholdB)
	}

	if a.RFMLowScore < 1 || a.RFMHighScore <= a.RFMLowScore || a.RFMHighScore > 5 {
		return fmt.Errorf("RFM score bands must satisfy 1 <= low < high <= 5, got low=%d high=%d", a.RFMLowScore, a.RFMHighScore)
	}

	if a.AtRiskDays < 1 || a.ChurnedDays <= a.AtRiskDays {
		return fmt.Errorf("churn thresholds must satisfy 1 <= at_risk < churned, got at_risk=%d churned=%d", a.AtRiskDays, a.ChurnedDays)
	}

	if a.PeakHourTolerance < 0 || a.PeakHourTolerance >= 1 {
		return fmt.Errorf("peak hour tolerance must be in [0, 1), got %.2f", a.PeakHourTolerance)
	}

	if a.DefaultForecastDays < 1 || a.MaxForecastDays < a.DefaultForecastDays {
		return fmt.Errorf("forecast day bounds must satisfy 1 <= default <= max, got default=%d max=%d", a.DefaultForecastDays, a.MaxForecastDays)
	}

	if a.ForecastHistoryDays < 1 {
		return fmt.Errorf("forecast history days must be positive")
	}

	if a.MaxTrendMonths < 1 {
		return fmt.Errorf("max trend months must be positive")
	}

	if a.OrdersPerWaiter <= 0 || a.OrdersPerCook <= 0 {
		return fmt.Errorf("staffing ratios must be positive, got waiter=%.1f cook=%.1f", a.OrdersPerWaiter, a.OrdersPerCook)
	}

	return nil
}

// Location resolves the tenant timezone. Validate guarantees it loads.
func (a AnalyticsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
