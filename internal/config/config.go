package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Server         ServerConfig         `mapstructure:"server"`
	Log            LogConfig            `mapstructure:"log"`
	DB             DBConfig             `mapstructure:"db"`
	Cron           CronConfig           `mapstructure:"cron"`
	Gamma          GammaConfig          `mapstructure:"gamma"`
	CatalogSync    CatalogSyncConfig    `mapstructure:"catalog_sync"`
	ResolutionSync ResolutionSyncConfig `mapstructure:"resolution_sync"`
	TradeStream    TradeStreamConfig    `mapstructure:"trade_stream"`
	Watch          WatchConfig          `mapstructure:"watch"`
	Ring           RingConfig           `mapstructure:"ring"`
	ReferenceScan  ReferenceScanConfig  `mapstructure:"reference_scan"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	CatalogSync    string `mapstructure:"catalog_sync"`
	ResolutionSync string `mapstructure:"resolution_sync"`
	WatchRun       string `mapstructure:"watch_run"`
}

type GammaConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CatalogSyncConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Scope     string `mapstructure:"scope"`
	PageLimit int    `mapstructure:"page_limit"`
	MaxPages  int    `mapstructure:"max_pages"`
	Resume    bool   `mapstructure:"resume"`
	Closed    string `mapstructure:"closed"`
}

type ResolutionSyncConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	BatchSize int  `mapstructure:"batch_size"`
}

type TradeStreamConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	URL             string        `mapstructure:"url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	MaxAssets       int           `mapstructure:"max_assets"`
}

type WatchConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	Lookback            time.Duration `mapstructure:"lookback"`
	Limit               int           `mapstructure:"limit"`
	MinAnomaly          float64       `mapstructure:"min_anomaly"`
	SuspiciousThreshold float64       `mapstructure:"suspicious_threshold"`
}

type RingConfig struct {
	MinSharedMarkets    int     `mapstructure:"min_shared_markets"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	Limit               int     `mapstructure:"limit"`
}

type ReferenceScanConfig struct {
	TopMarkets     int     `mapstructure:"top_markets"`
	WalletLimit    int     `mapstructure:"wallet_limit"`
	WalletMinScore float64 `mapstructure:"wallet_min_score"`
	TradePageSize  int     `mapstructure:"trade_page_size"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.catalog_sync", "@every 10m")
	v.SetDefault("cron.resolution_sync", "@every 30m")
	v.SetDefault("cron.watch_run", "@every 5m")
	v.SetDefault("gamma.base_url", "https://gamma-api.polymarket.com")
	v.SetDefault("gamma.timeout", "15s")
	v.SetDefault("catalog_sync.enabled", true)
	v.SetDefault("catalog_sync.scope", "markets")
	v.SetDefault("catalog_sync.page_limit", 200)
	v.SetDefault("catalog_sync.max_pages", 5)
	v.SetDefault("catalog_sync.resume", true)
	v.SetDefault("catalog_sync.closed", "open")
	v.SetDefault("resolution_sync.enabled", true)
	v.SetDefault("resolution_sync.batch_size", 200)
	v.SetDefault("trade_stream.enabled", false)
	v.SetDefault("trade_stream.url", "wss://ws-subscriptions-clob.polymarket.com/ws/market")
	v.SetDefault("trade_stream.refresh_interval", "30s")
	v.SetDefault("trade_stream.max_assets", 200)
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.lookback", "168h")
	v.SetDefault("watch.limit", 25)
	v.SetDefault("watch.min_anomaly", 0.5)
	v.SetDefault("watch.suspicious_threshold", 0.7)
	v.SetDefault("ring.min_shared_markets", 2)
	v.SetDefault("ring.similarity_threshold", 0.3)
	v.SetDefault("ring.limit", 50)
	v.SetDefault("reference_scan.top_markets", 10)
	v.SetDefault("reference_scan.wallet_limit", 20)
	v.SetDefault("reference_scan.wallet_min_score", 0.3)
	v.SetDefault("reference_scan.trade_page_size", 10000)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
