package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete runtime configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Campaign  CampaignConfig  `mapstructure:"campaign"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	PayU      PayUConfig      `mapstructure:"payu"`
	Mailing   MailingConfig   `mapstructure:"mailing"`
	SendGrid  SendGridConfig  `mapstructure:"sendgrid"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Printing  PrintingConfig  `mapstructure:"printing"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	Invoicing InvoicingConfig `mapstructure:"invoicing"`
}

// LogConfig selects the process logger
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Port    string `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"` // public URL used in PayU return links and e-mails
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // in minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string        `mapstructure:"secret"`
	AccessTokenExpiration  time.Duration `mapstructure:"access_token_expiration"`
	RefreshTokenExpiration time.Duration `mapstructure:"refresh_token_expiration"`
	Issuer                 string        `mapstructure:"issuer"`
	RefreshSecret          string        `mapstructure:"refresh_secret"`
	MaxRefreshCount        int           `mapstructure:"max_refresh_count"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	WriteTimeout          time.Duration `mapstructure:"write_timeout"`
	IdleTimeout           time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes        int           `mapstructure:"max_header_bytes"`
	MaxBodySize           int64         `mapstructure:"max_body_size"`
	MaxUploadSize         int64         `mapstructure:"max_upload_size"` // GPX and import uploads
	RateLimitEnabled      bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests     int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow       time.Duration `mapstructure:"rate_limit_window"`
	AuthRateLimitEnabled  bool          `mapstructure:"auth_rate_limit_enabled"`
	AuthRateLimitRequests int           `mapstructure:"auth_rate_limit_requests"` // per window for login, registration and refresh
	AuthRateLimitWindow   time.Duration `mapstructure:"auth_rate_limit_window"`
	SlowRequestThreshold  time.Duration `mapstructure:"slow_request_threshold"` // 0 disables slow request warnings
	CORSAllowOrigins      []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods      []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders      []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies        []string      `mapstructure:"trusted_proxies"`
	SwaggerEnabled        bool          `mapstructure:"swagger_enabled"`
	SwaggerRequireAuth    bool          `mapstructure:"swagger_require_auth"`
	SwaggerAllowedIPs     []string      `mapstructure:"swagger_allowed_ips"`
}

// CampaignConfig controls how the campaign of a request is resolved
type CampaignConfig struct {
	BaseDomain  string `mapstructure:"base_domain"`  // campaign slug is the leftmost label below this domain
	DefaultSlug string `mapstructure:"default_slug"` // used when neither subdomain, header nor query names a campaign
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	ResultsFlushCron  string        `mapstructure:"results_flush_cron"`
	MailingSyncCron   string        `mapstructure:"mailing_sync_cron"`
	OutboxCleanupCron string        `mapstructure:"outbox_cleanup_cron"`
	ResultsFlushBatch int           `mapstructure:"results_flush_batch"`
	MailingSyncBatch  int           `mapstructure:"mailing_sync_batch"`
	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs"`
	JobTimeout        time.Duration `mapstructure:"job_timeout"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"` // OTLP gRPC host:port
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`     // 0 samples nothing, 1 everything
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"` // plaintext gRPC, local collectors only
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // rejected in production
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`


	MetricsEnabled        bool          `mapstructure:"metrics_enabled"`
	MetricsExportInterval time.Duration `mapstructure:"metrics_export_interval"`
	LogsEnabled           bool          `mapstructure:"logs_enabled"`


	ProfilingEnabled      bool   `mapstructure:"profiling_enabled"`
	ProfilingServerURL    string `mapstructure:"profiling_server_url"`
	ProfilingAuthUser     string `mapstructure:"profiling_auth_user"`
	ProfilingAuthPassword string `mapstructure:"profiling_auth_password"`
	SpanProfilesEnabled   bool   `mapstructure:"span_profiles_enabled"` // label CPU samples with the active span id
}

// PayUConfig holds the classic PayU point of sale credentials
type PayUConfig struct {
	GatewayURL string        `mapstructure:"gateway_url"` // e.g. https://secure.payu.com/paygw
	PosID      string        `mapstructure:"pos_id"`
	PosAuthKey string        `mapstructure:"pos_auth_key"`
	Key1       string        `mapstructure:"key1"` // signs requests
	Key2       string        `mapstructure:"key2"` // verifies notifications and responses
	Timeout    time.Duration `mapstructure:"timeout"`
	NodeID     int64         `mapstructure:"node_id"` // snowflake node used for session and order ids
}

// MailingConfig holds the Ecomail list API settings
type MailingConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIURL  string        `mapstructure:"api_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SendGridConfig holds transactional e-mail settings
type SendGridConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	APIKey    string `mapstructure:"api_key"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

// StorageConfig holds object storage settings for PDFs, GPX files and carrier files
type StorageConfig struct {
	Type            string `mapstructure:"type"` // "s3" or "local"
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"` // custom endpoint for S3 compatible stores
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	LocalPath       string `mapstructure:"local_path"`
}

// PrintingConfig holds HTML to PDF conversion settings
type PrintingConfig struct {
	ChromePath string        `mapstructure:"chrome_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxWorkers int           `mapstructure:"max_workers"`
}

// DeliveryConfig holds the TNT sender account used in AVFULL files
type DeliveryConfig struct {
	SenderCode    string `mapstructure:"sender_code"`
	SenderName    string `mapstructure:"sender_name"`
	ServiceCode   string `mapstructure:"service_code"`
	SenderStreet  string `mapstructure:"sender_street"`
	SenderCity    string `mapstructure:"sender_city"`
	SenderZip     string `mapstructure:"sender_zip"`
	SenderPhone   string `mapstructure:"sender_phone"`
	DefaultWeight int    `mapstructure:"default_weight"` // grams
}

// InvoicingConfig holds the supplier block printed on company invoices
type InvoicingConfig struct {
	SupplierName string `mapstructure:"supplier_name"`
	Street       string `mapstructure:"street"`
	City         string `mapstructure:"city"`
	Zip          string `mapstructure:"zip"`
	ICO          string `mapstructure:"ico"`
	DIC          string `mapstructure:"dic"`
	BankAccount  string `mapstructure:"bank_account"`
	DueDays      int    `mapstructure:"due_days"`
}

// Load reads config.toml from the working directory, /etc/dpnk or /app,
// then applies DPNK_ environment variables on top, so
// DPNK_DATABASE_PASSWORD overrides database.password. A missing file is
// fine.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, dir := range []string{".", "/etc/dpnk", "/app"} {
		v.AddConfigPath(dir)
	}
	return load(v)
}

// LoadFile reads one explicit config file instead of searching for it
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// every key needs a default, otherwise Unmarshal never consults the
	// environment for it
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("DPNK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects inconsistent settings and, in production, insecure ones
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Storage.Type != "s3" && c.Storage.Type != "local" {
		return fmt.Errorf("storage.type must be 's3' or 'local', got %q", c.Storage.Type)
	}
	if c.Storage.Type == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required for s3 storage")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.PayU.PosID == "" || c.PayU.PosAuthKey == "" || c.PayU.Key1 == "" || c.PayU.Key2 == "" {
			return fmt.Errorf("payu.pos_id, payu.pos_auth_key, payu.key1 and payu.key2 are required in production")
		}
		if c.SendGrid.Enabled && c.SendGrid.APIKey == "" {
			return fmt.Errorf("sendgrid.api_key is required when sendgrid is enabled")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingServerURL == "" {
		return fmt.Errorf("telemetry.profiling_server_url is required when profiling is enabled")
	}
	if c.PayU.NodeID < 0 || c.PayU.NodeID > 1023 {
		return fmt.Errorf("payu.node_id must be between 0 and 1023, got %d", c.PayU.NodeID)
	}

	return nil
}

// DSN renders a postgres URL with the credentials escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
