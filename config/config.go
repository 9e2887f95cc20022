package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	BLS         BLSConfig         `mapstructure:"bls"`
	Monitor     MonitorConfig     `mapstructure:"monitor"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Comparison  ComparisonConfig  `mapstructure:"comparison"`
	API         APIConfig         `mapstructure:"api"`
	Log         LogConfig         `mapstructure:"log"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
}

// BLSConfig configures the government index API client and the set of
// index series the platform tracks.
type BLSConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	Series  []string      `mapstructure:"series"`
}

// MonitorConfig narrows the dates on which the release monitor probes
// the index API. CPI releases land mid-month on a weekday, so the
// default window is days 8-16, Tuesday through Friday.
type MonitorConfig struct {
	Weekdays    []string `mapstructure:"weekdays"`
	EarliestDay int      `mapstructure:"earliest_day"`
	LatestDay   int      `mapstructure:"latest_day"`
	CheckHour   int      `mapstructure:"check_hour"` // UTC hour of the daily check
}

type AggregationConfig struct {
	Workers int `mapstructure:"workers"`
	// BootstrapMonths controls how far back the first period reaches
	// when no previous release exists.
	BootstrapMonths int `mapstructure:"bootstrap_months"`
}

type ComparisonConfig struct {
	// ThresholdPoints is the half-width of the INLINE band in
	// percentage points. Exactly +/- threshold classifies as INLINE.
	ThresholdPoints float64 `mapstructure:"threshold_points"`
}

type APIConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	if dir := os.Getenv("BENCHMARK_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}
	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	// Support environment variables with dot notation (e.g., BLS_API_KEY)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bls.base_url", "https://api.bls.gov/publicAPI/v2/timeseries/data/")
	v.SetDefault("bls.timeout", "30s")

	v.SetDefault("monitor.weekdays", []string{"Tuesday", "Wednesday", "Thursday", "Friday"})
	v.SetDefault("monitor.earliest_day", 8)
	v.SetDefault("monitor.latest_day", 16)
	v.SetDefault("monitor.check_hour", 14)

	v.SetDefault("aggregation.workers", 4)
	v.SetDefault("aggregation.bootstrap_months", 1)

	v.SetDefault("comparison.threshold_points", 0.2)

	v.SetDefault("api.addr", ":8080")
}
