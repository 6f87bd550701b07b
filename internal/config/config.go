package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/irfndi/btc-dashboard-go/internal/analytics"
	"github.com/irfndi/btc-dashboard-go/internal/upstream"
)

// Cache backends.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
)

// Trace exporters.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Data        DataConfig       `mapstructure:"data"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Upstream    UpstreamConfig   `mapstructure:"upstream"`
	Analytics   analytics.Params `mapstructure:"analytics"`
	TTL         TTLConfig        `mapstructure:"ttl"`
	Telemetry   TelemetryConfig  `mapstructure:"telemetry"`
	Ingest      IngestConfig     `mapstructure:"ingest"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DataConfig struct {
	Dir            string `mapstructure:"dir"`
	HistoricalFile string `mapstructure:"historical_file"`
	CacheDir       string `mapstructure:"cache_dir"`
}

// HistoricalPath is the location of the daily close record file.
func (d DataConfig) HistoricalPath() string {
	if filepath.IsAbs(d.HistoricalFile) {
		return d.HistoricalFile
	}
	return filepath.Join(d.Dir, d.HistoricalFile)
}

// CachePath is the directory holding file cache entries.
func (d DataConfig) CachePath() string {
	if d.CacheDir == "" {
		return d.Dir
	}
	if filepath.IsAbs(d.CacheDir) {
		return d.CacheDir
	}
	return filepath.Join(d.Dir, d.CacheDir)
}

type CacheConfig struct {
	Backend     string `mapstructure:"backend"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	SeriesSource    bool          `mapstructure:"series_source"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	DatabaseURL     string        `mapstructure:"database_url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns DatabaseURL when set, otherwise a key/value connection string.
func (d DatabaseConfig) DSN() string {
	if d.DatabaseURL != "" {
		return d.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type UpstreamConfig struct {
	VsCurrency       string            `mapstructure:"vs_currency"`
	FREDAPIKey       string            `mapstructure:"fred_api_key" json:"-"`
	CPISeries        map[string]string `mapstructure:"cpi_series"`
	FXWindowDays     int               `mapstructure:"fx_window_days"`
	CoinGecko        upstream.Config   `mapstructure:"coingecko"`
	BlockchainQuery  upstream.Config   `mapstructure:"blockchain_query"`
	BlockchainCharts upstream.Config   `mapstructure:"blockchain_charts"`
	Bitnodes         upstream.Config   `mapstructure:"bitnodes"`
	Frankfurter      upstream.Config   `mapstructure:"frankfurter"`
	FRED             upstream.Config   `mapstructure:"fred"`
	Mempool          upstream.Config   `mapstructure:"mempool"`
}

// TTLConfig holds the freshness window of each cached resource.
type TTLConfig struct {
	SpotPrice       time.Duration `mapstructure:"spot_price"`
	MarketStructure time.Duration `mapstructure:"market_structure"`
	Onchain         time.Duration `mapstructure:"onchain"`
	MinerEconomics  time.Duration `mapstructure:"miner_economics"`
	AdoptionUsage   time.Duration `mapstructure:"adoption_usage"`
	FXRate          time.Duration `mapstructure:"fx_rate"`
	MacroContext    time.Duration `mapstructure:"macro_context"`
	Nodes           time.Duration `mapstructure:"nodes"`
}

// DefaultTTLs returns the freshness windows the dashboard ships with.
func DefaultTTLs() TTLConfig {
	return TTLConfig{
		SpotPrice:       5 * time.Minute,
		MarketStructure: 5 * time.Minute,
		Onchain:         10 * time.Minute,
		MinerEconomics:  10 * time.Minute,
		AdoptionUsage:   time.Hour,
		FXRate:          6 * time.Hour,
		MacroContext:    24 * time.Hour,
		Nodes:           24 * time.Hour,
	}
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ServiceName  string  `mapstructure:"service_name"`
	Exporter     string  `mapstructure:"exporter"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type IngestConfig struct {
	Schedule   string `mapstructure:"schedule"`
	Days       int    `mapstructure:"days"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("upstream.fred_api_key", "FRED_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind FRED_API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("database.database_url", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	config.Cache.Backend = strings.ToLower(config.Cache.Backend)
	config.Upstream.VsCurrency = strings.ToLower(config.Upstream.VsCurrency)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values that would otherwise fail at request time.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis:
	default:
		return fmt.Errorf("unsupported cache backend %q", c.Cache.Backend)
	}
	if c.Data.HistoricalFile == "" {
		return fmt.Errorf("data.historical_file is required")
	}

	ttls := map[string]time.Duration{
		"ttl.spot_price":       c.TTL.SpotPrice,
		"ttl.market_structure": c.TTL.MarketStructure,
		"ttl.onchain":          c.TTL.Onchain,
		"ttl.miner_economics":  c.TTL.MinerEconomics,
		"ttl.adoption_usage":   c.TTL.AdoptionUsage,
		"ttl.fx_rate":          c.TTL.FXRate,
		"ttl.macro_context":    c.TTL.MacroContext,
		"ttl.nodes":            c.TTL.Nodes,
	}
	for key, ttl := range ttls {
		if ttl <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, ttl)
		}
	}

	if c.Analytics.MinHistoryPoints < 200 {
		return fmt.Errorf("analytics.min_history_points must be at least 200 for the 200-day SMA, got %d",
			c.Analytics.MinHistoryPoints)
	}
	if c.Analytics.HalvingInterval <= 0 || c.Analytics.BlocksPerDay <= 0 || c.Analytics.CycleWindowDays <= 0 {
		return fmt.Errorf("analytics halving_interval, blocks_per_day and cycle_window_days must be positive")
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case ExporterStdout, ExporterOTLP:
		default:
			return fmt.Errorf("unsupported telemetry exporter %q", c.Telemetry.Exporter)
		}
	}
	return nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Data
	viper.SetDefault("data.dir", "data")
	viper.SetDefault("data.historical_file", "bitcoin_historical.csv")
	viper.SetDefault("data.cache_dir", "")

	// Cache
	viper.SetDefault("cache.backend", CacheBackendFile)
	viper.SetDefault("cache.redis_prefix", "btcdash:")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Database
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.series_source", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "btc_dashboard")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_conns", 10)
	viper.SetDefault("database.min_conns", 1)
	viper.SetDefault("database.conn_max_lifetime", "300s")
	viper.SetDefault("database.conn_max_idle_time", "60s")

	// Upstream
	viper.SetDefault("upstream.vs_currency", "gbp")
	viper.SetDefault("upstream.fred_api_key", "")
	viper.SetDefault("upstream.fx_window_days", 365)
	viper.SetDefault("upstream.cpi_series", map[string]string{"us": "CPIAUCSL", "uk": "GBRCPIALLMINMEI"})
	viper.SetDefault("upstream.coingecko.base_url", upstream.DefaultCoinGeckoURL)
	viper.SetDefault("upstream.coingecko.timeout", "15s")
	viper.SetDefault("upstream.coingecko.rate_limit", 0.5)
	viper.SetDefault("upstream.coingecko.burst", 2)
	viper.SetDefault("upstream.blockchain_query.base_url", upstream.DefaultBlockchainQueryURL)
	viper.SetDefault("upstream.blockchain_query.timeout", "15s")
	viper.SetDefault("upstream.blockchain_charts.base_url", upstream.DefaultBlockchainChartsURL)
	viper.SetDefault("upstream.blockchain_charts.timeout", "20s")
	viper.SetDefault("upstream.bitnodes.base_url", upstream.DefaultBitnodesURL)
	viper.SetDefault("upstream.bitnodes.timeout", "20s")
	viper.SetDefault("upstream.frankfurter.base_url", upstream.DefaultFrankfurterURL)
	viper.SetDefault("upstream.frankfurter.timeout", "15s")
	viper.SetDefault("upstream.fred.base_url", upstream.DefaultFREDURL)
	viper.SetDefault("upstream.fred.timeout", "20s")
	viper.SetDefault("upstream.mempool.base_url", upstream.DefaultMempoolURL)
	viper.SetDefault("upstream.mempool.timeout", "15s")

	// Analytics
	p := analytics.DefaultParams()
	viper.SetDefault("analytics.cycle_window_days", p.CycleWindowDays)
	viper.SetDefault("analytics.blocks_per_day", p.BlocksPerDay)
	viper.SetDefault("analytics.block_interval", p.BlockInterval.String())
	viper.SetDefault("analytics.halving_interval", p.HalvingInterval)
	viper.SetDefault("analytics.initial_subsidy", p.InitialSubsidy)
	viper.SetDefault("analytics.max_supply", p.MaxSupply)
	viper.SetDefault("analytics.min_history_points", p.MinHistoryPoints)
	viper.SetDefault("analytics.annualization_days", p.AnnualizationDays)

	// TTL
	ttl := DefaultTTLs()
	viper.SetDefault("ttl.spot_price", ttl.SpotPrice.String())
	viper.SetDefault("ttl.market_structure", ttl.MarketStructure.String())
	viper.SetDefault("ttl.onchain", ttl.Onchain.String())
	viper.SetDefault("ttl.miner_economics", ttl.MinerEconomics.String())
	viper.SetDefault("ttl.adoption_usage", ttl.AdoptionUsage.String())
	viper.SetDefault("ttl.fx_rate", ttl.FXRate.String())
	viper.SetDefault("ttl.macro_context", ttl.MacroContext.String())
	viper.SetDefault("ttl.nodes", ttl.Nodes.String())

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.service_name", "btc-dashboard")
	viper.SetDefault("telemetry.exporter", ExporterStdout)
	viper.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	viper.SetDefault("telemetry.insecure", true)
	viper.SetDefault("telemetry.sample_ratio", 1.0)

	// Ingest
	viper.SetDefault("ingest.schedule", "@daily")
	viper.SetDefault("ingest.days", 365)
	viper.SetDefault("ingest.run_on_start", true)
}
