package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	DB        DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Notify    NotifyConfig
	RateLimit RateLimitConfig
	Logger    LoggerConfig
}

// AppConfig holds configuration for the application servers
type AppConfig struct {
	Environment            string   `mapstructure:"ENVIRONMENT"`
	Debug                  bool     `mapstructure:"DEBUG"`
	HTTPPort               string   `mapstructure:"HTTP_PORT"`
	SocketsPort            string   `mapstructure:"SOCKETS_PORT"`
	ApplicationURL         string   `mapstructure:"APPLICATION_URL"`
	APIVersion             string   `mapstructure:"API_VERSION"`
	ShutdownTimeoutSeconds int      `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
	CORSOriginWhitelist    []string `mapstructure:"CORS_ORIGIN_WHITELIST"`
}

// APIBaseURL returns the absolute base URL of the versioned API.
func (c *AppConfig) APIBaseURL() string {
	return fmt.Sprintf("%s/api/%s", c.ApplicationURL, c.APIVersion)
}

// DatabaseConfig holds configuration for the database
type DatabaseConfig struct {
	Host            string `mapstructure:"DB_HOST"`
	Port            string `mapstructure:"DB_PORT"`
	User            string `mapstructure:"DB_USER"`
	Password        string `mapstructure:"DB_PASSWORD"`
	Name            string `mapstructure:"DB_NAME"`
	SSLMode         string `mapstructure:"DB_SSLMODE"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `mapstructure:"DB_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime int    `mapstructure:"DB_CONN_MAX_IDLE_TIME"`
}

// DSN returns the PostgreSQL Data Source Name
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// RedisConfig holds configuration for Redis.
// The same instance backs the user cache, the auth rate limiter,
// and the pub/sub channel feeding the sockets server.
type RedisConfig struct {
	Host           string `mapstructure:"REDIS_HOST"`
	Port           string `mapstructure:"REDIS_PORT"`
	Password       string `mapstructure:"REDIS_PASSWORD"`
	DB             int    `mapstructure:"REDIS_DB"`
	MaxRetries     int    `mapstructure:"REDIS_MAX_RETRIES"`
	PoolSize       int    `mapstructure:"REDIS_POOL_SIZE"`
	MinIdleConn    int    `mapstructure:"REDIS_MIN_IDLE_CONN"`
	CacheTTL       int    `mapstructure:"REDIS_CACHE_TTL"`
	SocketsChannel string `mapstructure:"SOCKETS_REDIS_CHANNEL"`

	DialTimeoutSeconds  int `mapstructure:"REDIS_DIAL_TIMEOUT_SECONDS"`
	ReadTimeoutSeconds  int `mapstructure:"REDIS_READ_TIMEOUT_SECONDS"`
	WriteTimeoutSeconds int `mapstructure:"REDIS_WRITE_TIMEOUT_SECONDS"`
}

// AuthConfig holds configuration for authentication
type AuthConfig struct {
	SecretKey       string `mapstructure:"SECRET_KEY"`
	JWTExpiryDays   int    `mapstructure:"JWT_EXPIRATION_DAYS"`
	BcryptCost      int    `mapstructure:"BCRYPT_COST"`
	SignupOpen      bool   `mapstructure:"SIGNUP_OPEN"`
	ReservedDomains string `mapstructure:"RESERVED_DOMAINS"`
}

// StorageConfig holds configuration for S3 signing and the previews service
type StorageConfig struct {
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	AWSBucketName      string `mapstructure:"AWS_STORAGE_BUCKET_NAME"`
	SignatureExpiresIn int    `mapstructure:"AWS_SIGNATURE_EXPIRES_IN"`
	PreviewsURL        string `mapstructure:"PREVIEWS_URL"`
	PreviewsAPIKey     string `mapstructure:"PREVIEWS_API_KEY"`
	PreviewsSecretKey  string `mapstructure:"PREVIEWS_SECRET_KEY"`
}

// NotifyConfig holds configuration for notification delivery
type NotifyConfig struct {
	DefaultFromEmail string `mapstructure:"DEFAULT_FROM_EMAIL"`
	AnnounceTestMode bool   `mapstructure:"ANNOUNCE_TEST_MODE"`
}

// RateLimitConfig holds configuration for the auth endpoint rate limiter
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"RATE_LIMIT_RPS"`
	Burst             int     `mapstructure:"RATE_LIMIT_BURST"`
	WindowSeconds     int     `mapstructure:"RATE_LIMIT_WINDOW_SECONDS"`
	Enabled           bool    `mapstructure:"RATE_LIMIT_ENABLED"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `mapstructure:"LOG_LEVEL"`
	Format           string  `mapstructure:"LOG_FORMAT"`
	OutputPath       string  `mapstructure:"LOG_OUTPUT_PATH"`
	SlowQuerySeconds float64 `mapstructure:"LOG_SLOW_QUERY_SECONDS"`
	EnableSampling   bool    `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName      string  `mapstructure:"SERVICE_NAME"`
	ServiceVersion   string  `mapstructure:"SERVICE_VERSION"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	// Set defaults first
	setDefaults()

	viper.AddConfigPath(path)
	viper.SetConfigName("app") // Look for app.env
	viper.SetConfigType("env")

	viper.AutomaticEnv() // Read from environment variables

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	// Manually populate config from viper
	config.App.Environment = viper.GetString("ENVIRONMENT")
	config.App.Debug = viper.GetBool("DEBUG")
	config.App.HTTPPort = viper.GetString("HTTP_PORT")
	config.App.SocketsPort = viper.GetString("SOCKETS_PORT")
	config.App.ApplicationURL = viper.GetString("APPLICATION_URL")
	config.App.APIVersion = viper.GetString("API_VERSION")
	config.App.ShutdownTimeoutSeconds = viper.GetInt("SHUTDOWN_TIMEOUT_SECONDS")
	config.App.CORSOriginWhitelist = splitList(viper.GetString("CORS_ORIGIN_WHITELIST"))

	config.DB.Host = viper.GetString("DB_HOST")
	config.DB.Port = viper.GetString("DB_PORT")
	config.DB.User = viper.GetString("DB_USER")
	config.DB.Password = viper.GetString("DB_PASSWORD")
	config.DB.Name = viper.GetString("DB_NAME")
	config.DB.SSLMode = viper.GetString("DB_SSLMODE")
	config.DB.MaxOpenConns = viper.GetInt("DB_MAX_OPEN_CONNS")
	config.DB.MaxIdleConns = viper.GetInt("DB_MAX_IDLE_CONNS")
	config.DB.ConnMaxLifetime = viper.GetInt("DB_CONN_MAX_LIFETIME")
	config.DB.ConnMaxIdleTime = viper.GetInt("DB_CONN_MAX_IDLE_TIME")

	config.Redis.Host = viper.GetString("REDIS_HOST")
	config.Redis.Port = viper.GetString("REDIS_PORT")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.MaxRetries = viper.GetInt("REDIS_MAX_RETRIES")
	config.Redis.PoolSize = viper.GetInt("REDIS_POOL_SIZE")
	config.Redis.MinIdleConn = viper.GetInt("REDIS_MIN_IDLE_CONN")
	config.Redis.CacheTTL = viper.GetInt("REDIS_CACHE_TTL")
	config.Redis.SocketsChannel = viper.GetString("SOCKETS_REDIS_CHANNEL")
	config.Redis.DialTimeoutSeconds = viper.GetInt("REDIS_DIAL_TIMEOUT_SECONDS")
	config.Redis.ReadTimeoutSeconds = viper.GetInt("REDIS_READ_TIMEOUT_SECONDS")
	config.Redis.WriteTimeoutSeconds = viper.GetInt("REDIS_WRITE_TIMEOUT_SECONDS")

	config.Auth.SecretKey = viper.GetString("SECRET_KEY")
	config.Auth.JWTExpiryDays = viper.GetInt("JWT_EXPIRATION_DAYS")
	config.Auth.BcryptCost = viper.GetInt("BCRYPT_COST")
	config.Auth.SignupOpen = viper.GetBool("SIGNUP_OPEN")

	config.Storage.AWSAccessKeyID = viper.GetString("AWS_ACCESS_KEY_ID")
	config.Storage.AWSSecretAccessKey = viper.GetString("AWS_SECRET_ACCESS_KEY")
	config.Storage.AWSBucketName = viper.GetString("AWS_STORAGE_BUCKET_NAME")
	config.Storage.SignatureExpiresIn = viper.GetInt("AWS_SIGNATURE_EXPIRES_IN")
	config.Storage.PreviewsURL = viper.GetString("PREVIEWS_URL")
	config.Storage.PreviewsAPIKey = viper.GetString("PREVIEWS_API_KEY")
	config.Storage.PreviewsSecretKey = viper.GetString("PREVIEWS_SECRET_KEY")

	config.Notify.DefaultFromEmail = viper.GetString("DEFAULT_FROM_EMAIL")
	config.Notify.AnnounceTestMode = viper.GetBool("ANNOUNCE_TEST_MODE")

	config.RateLimit.RequestsPerSecond = viper.GetFloat64("RATE_LIMIT_RPS")
	config.RateLimit.Burst = viper.GetInt("RATE_LIMIT_BURST")
	config.RateLimit.WindowSeconds = viper.GetInt("RATE_LIMIT_WINDOW_SECONDS")
	config.RateLimit.Enabled = viper.GetBool("RATE_LIMIT_ENABLED")

	config.Logger.Level = viper.GetString("LOG_LEVEL")
	config.Logger.Format = viper.GetString("LOG_FORMAT")
	config.Logger.OutputPath = viper.GetString("LOG_OUTPUT_PATH")
	config.Logger.SlowQuerySeconds = viper.GetFloat64("LOG_SLOW_QUERY_SECONDS")
	config.Logger.EnableSampling = viper.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = viper.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = viper.GetString("SERVICE_VERSION")

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("HTTP_PORT", "8000")
	viper.SetDefault("SOCKETS_PORT", "8001")
	viper.SetDefault("APPLICATION_URL", "http://localhost:8000")
	viper.SetDefault("API_VERSION", "v1")
	viper.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	viper.SetDefault("CORS_ORIGIN_WHITELIST", "")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "boards")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_MAX_RETRIES", 3)
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("REDIS_MIN_IDLE_CONN", 2)
	viper.SetDefault("REDIS_CACHE_TTL", 300)
	viper.SetDefault("SOCKETS_REDIS_CHANNEL", "boards:announce")
	viper.SetDefault("REDIS_DIAL_TIMEOUT_SECONDS", 5)
	viper.SetDefault("REDIS_READ_TIMEOUT_SECONDS", 3)
	viper.SetDefault("REDIS_WRITE_TIMEOUT_SECONDS", 3)

	viper.SetDefault("SECRET_KEY", "")
	viper.SetDefault("JWT_EXPIRATION_DAYS", 90)
	viper.SetDefault("BCRYPT_COST", 10)
	viper.SetDefault("SIGNUP_OPEN", true)

	viper.SetDefault("AWS_SIGNATURE_EXPIRES_IN", 60*60*3)

	viper.SetDefault("DEFAULT_FROM_EMAIL", "boards@localhost")
	viper.SetDefault("ANNOUNCE_TEST_MODE", false)

	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)

	// Logger defaults
	env := viper.GetString("ENVIRONMENT")
	if env == "production" {
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("LOG_FORMAT", "json")
		viper.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		viper.SetDefault("LOG_LEVEL", "debug")
		viper.SetDefault("LOG_FORMAT", "console")
		viper.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	viper.SetDefault("LOG_OUTPUT_PATH", "stdout")
	viper.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	viper.SetDefault("SERVICE_NAME", "boards-backend")
	viper.SetDefault("SERVICE_VERSION", "1.0.0")
}

// Validate checks the configuration for values that would make the
// servers misbehave at runtime rather than fail fast at startup.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "testing", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %q", c.App.Environment)
	}

	// A default secret is tolerable in development only.
	if c.Auth.SecretKey == "" && c.App.Environment != "development" && c.App.Environment != "testing" {
		return fmt.Errorf("SECRET_KEY is required in %s", c.App.Environment)
	}

	for _, port := range []string{c.App.HTTPPort, c.App.SocketsPort} {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("invalid port: %q", port)
		}
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "warning", "error", "dpanic", "panic", "fatal":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logger.Level)
	}

	if c.Auth.JWTExpiryDays <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_DAYS must be positive, got %d", c.Auth.JWTExpiryDays)
	}

	return nil
}

// splitList parses a comma separated environment value into a slice,
// dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
