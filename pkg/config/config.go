package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `env:", prefix=SERVER_"`
	Redis      RedisConfig      `env:", prefix=REDIS_"`
	MySQL      MySQLConfig      `env:", prefix=MYSQL_"`
	InfluxDB   InfluxConfig     `env:", prefix=INFLUXDB_"`
	NATS       NATSConfig       `env:", prefix=NATS_"`
	Providers  ProvidersConfig  `env:", prefix=PROVIDER_"`
	Discovery  DiscoveryConfig  `env:", prefix=DISCOVERY_"`
	Audits     AuditsConfig     `env:", prefix=AUDITS_"`
	Assessment AssessmentConfig `env:", prefix=ASSESSMENT_"`
	Admission  AdmissionConfig  `env:", prefix=ADMISSION_"`
	Security   SecurityConfig   `env:", prefix=SECURITY_"`
	Logging    LoggingConfig    `env:", prefix=LOG_"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `env:"HOST, default=0.0.0.0"`
	Port         int           `env:"PORT, default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=120s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT, default=120s"`
}

// RedisConfig holds the optional Redis evidence-store backend.
type RedisConfig struct {
	Host         string        `env:"HOST, default=localhost"`
	Port         int           `env:"PORT, default=6379"`
	Password     string        `env:"PASSWORD"`
	DB           int           `env:"DB, default=0"`
	PoolSize     int           `env:"POOL_SIZE, default=10"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT, default=5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=3s"`
}

// MySQLConfig holds the optional curated-registry backing store.
type MySQLConfig struct {
	Enabled         bool          `env:"ENABLED, default=false"`
	Host            string        `env:"HOST, default=localhost"`
	Port            int           `env:"PORT, default=3306"`
	Database        string        `env:"DATABASE, default=pegwatch"`
	User            string        `env:"USER, default=pegwatch"`
	Password        string        `env:"PASSWORD"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS, default=10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS, default=2"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME, default=5m"`
}

// InfluxConfig holds the optional score-history recorder backend.
type InfluxConfig struct {
	Enabled bool          `env:"ENABLED, default=false"`
	URL     string        `env:"URL, default=http://localhost:8086"`
	Token   string        `env:"TOKEN"`
	Org     string        `env:"ORG, default=pegwatch"`
	Bucket  string        `env:"BUCKET, default=risk_scores"`
	Timeout time.Duration `env:"TIMEOUT, default=10s"`
}

// NATSConfig holds the optional assessment-event publisher.
type NATSConfig struct {
	Enabled       bool          `env:"ENABLED, default=false"`
	URL           string        `env:"URL, default=nats://localhost:4222"`
	MaxReconnect  int           `env:"MAX_RECONNECT, default=10"`
	ReconnectWait time.Duration `env:"RECONNECT_WAIT, default=2s"`
}

// ProvidersConfig holds upstream adapter settings.
type ProvidersConfig struct {
	CoinGeckoBaseURL     string        `env:"COINGECKO_BASE_URL, default=https://api.coingecko.com/api/v3"`
	CoinGeckoAPIKey      string        `env:"COINGECKO_API_KEY"`
	GeckoTerminalBaseURL string        `env:"GECKOTERMINAL_BASE_URL, default=https://api.geckoterminal.com/api/v2"`
	DefiLlamaBaseURL     string        `env:"DEFILLAMA_BASE_URL, default=https://stablecoins.llama.fi"`
	GitHubBaseURL        string        `env:"GITHUB_BASE_URL, default=https://api.github.com"`
	GitHubToken          string        `env:"GITHUB_TOKEN"`
	UserAgent            string        `env:"USER_AGENT, default=Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"`
	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT, default=10s"`
	ProbeTimeout         time.Duration `env:"PROBE_TIMEOUT, default=2s"`
	RetryMax             int           `env:"RETRY_MAX, default=2"`
	RetryBaseDelay       time.Duration `env:"RETRY_BASE_DELAY, default=500ms"`
	MaxConcurrentFetches int           `env:"MAX_CONCURRENT_FETCHES, default=4"`
}

// DiscoveryConfig holds the layered discovery engine tunables. The
// thresholds are empirically chosen constants, kept as configuration.
type DiscoveryConfig struct {
	LinkHarvestThreshold     float64 `env:"LINK_HARVEST_THRESHOLD, default=0.8"`
	ContentAnalysisThreshold float64 `env:"CONTENT_ANALYSIS_THRESHOLD, default=0.7"`
	SubdomainEnumThreshold   float64 `env:"SUBDOMAIN_ENUM_THRESHOLD, default=0.6"`
	CrawlThreshold           float64 `env:"CRAWL_THRESHOLD, default=0.5"`
	CombineThreshold         float64 `env:"COMBINE_THRESHOLD, default=0.65"`
	MinInteresting           float64 `env:"MIN_INTERESTING, default=0.2"`
	CrawlMaxPages            int     `env:"CRAWL_MAX_PAGES, default=6"`
	MaxSites                 int     `env:"MAX_SITES, default=3"`
}

// AuditsConfig holds audit discovery tunables.
type AuditsConfig struct {
	SufficientCount int           `env:"SUFFICIENT_COUNT, default=3"`
	BatchSize       int           `env:"BATCH_SIZE, default=4"`
	MaxAge          time.Duration `env:"MAX_AGE, default=4380h"` // six months
}

// AssessmentConfig holds the tiered orchestrator settings.
type AssessmentConfig struct {
	Tier1TTL        time.Duration `env:"TIER1_TTL, default=10m"`
	Tier2TTL        time.Duration `env:"TIER2_TTL, default=30m"`
	Tier3TTL        time.Duration `env:"TIER3_TTL, default=6h"`
	Tier1Timeout    time.Duration `env:"TIER1_TIMEOUT, default=5s"`
	Tier2Timeout    time.Duration `env:"TIER2_TIMEOUT, default=15s"`
	Tier3Timeout    time.Duration `env:"TIER3_TIMEOUT, default=45s"`
	EvidenceBackend string        `env:"EVIDENCE_BACKEND, default=memory"` // memory or redis
	CleanupSchedule string        `env:"CLEANUP_SCHEDULE, default=@every 10m"`
}

// AdmissionConfig holds the fixed-window request quota.
type AdmissionConfig struct {
	Enabled       bool          `env:"ENABLED, default=true"`
	Limit         int           `env:"LIMIT, default=10"`
	Window        time.Duration `env:"WINDOW, default=24h"`
	SweepSchedule string        `env:"SWEEP_SCHEDULE, default=@every 1h"`
}

// SecurityConfig holds CORS configuration.
type SecurityConfig struct {
	CORSEnabled bool     `env:"CORS_ENABLED, default=true"`
	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`
	CORSMethods []string `env:"CORS_METHODS, default=GET,OPTIONS"`
	CORSHeaders []string `env:"CORS_HEADERS, default=*"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `env:"LEVEL, default=info"`
	Format     string `env:"FORMAT, default=text"`
	Output     string `env:"OUTPUT, default=stdout"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB, default=100"`
	MaxBackups int    `env:"MAX_BACKUPS, default=3"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Assessment.EvidenceBackend != "memory" && c.Assessment.EvidenceBackend != "redis" {
		return fmt.Errorf("invalid evidence backend: %s", c.Assessment.EvidenceBackend)
	}
	if c.Admission.Limit <= 0 {
		return fmt.Errorf("admission limit must be positive, got %d", c.Admission.Limit)
	}
	if c.Providers.MaxConcurrentFetches < 1 {
		return fmt.Errorf("max concurrent fetches must be at least 1")
	}
	return nil
}

// GetRedisAddr returns the Redis address.
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// GetMySQLDSN returns the MySQL DSN string.
func (c *Config) GetMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		c.MySQL.User, c.MySQL.Password, c.MySQL.Host, c.MySQL.Port, c.MySQL.Database)
}

// GetServerAddr returns the HTTP listen address.
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
