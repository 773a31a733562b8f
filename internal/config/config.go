package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	devJWTSecret = "development-only-secret"
)

type Config struct {
	AppEnv      string
	Port        string
	BindAddress string

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string
	StatsCacheTTL time.Duration

	JWTSecret      string
	AccessTokenTTL time.Duration
	GoogleClientID string
	AdminKey       string
	AuthRateLimit  float64
	AuthRateBurst  int

	AllowedOrigins  []string
	LogLevel        string
	LogFormat       string
	MetricsInterval time.Duration
	CardImagesDir   string
}

// LoadDotEnv loads a .env file into the process environment. Variables that are
// already set win. A missing file is reported but is not fatal to callers.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}

// Load reads the configuration from the environment and validates it.
// Every malformed or invalid key is reported in the returned error.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", EnvDevelopment),
		Port:        getEnv("PORT", "8000"),
		BindAddress: getEnv("BIND_ADDRESS", "0.0.0.0"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBPath:     getEnv("DB_PATH", "./data/ppdd.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "ppdd_api_user"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "pokepocketdata"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		StatsCacheTTL: getDuration("STATS_CACHE_TTL", 5*time.Minute, &errs),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		AccessTokenTTL: getDuration("ACCESS_TOKEN_TTL", 30*time.Minute, &errs),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		AdminKey:       getEnv("ADMIN_KEY", ""),
		AuthRateLimit:  getFloat("AUTH_RATE_LIMIT", 1, &errs),
		AuthRateBurst:  getInt("AUTH_RATE_BURST", 5, &errs),

		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:4200")),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "json")),
		MetricsInterval: getDuration("METRICS_INTERVAL", 5*time.Minute, &errs),
		CardImagesDir:   getEnv("CARD_IMAGES_DIR", "./data/card_images"),
	}

	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks the configuration and reports every problem at once
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DBHost == "" || c.DBName == "" || c.DBUser == "" {
			errs = append(errs, errors.New("DB_HOST, DB_NAME and DB_USER are required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver))
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric, got %q", c.Port))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.StatsCacheTTL <= 0 {
		errs = append(errs, errors.New("STATS_CACHE_TTL must be positive"))
	}
	if c.MetricsInterval < time.Second {
		errs = append(errs, errors.New("METRICS_INTERVAL must be at least 1s"))
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst < 1 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT must be positive and AUTH_RATE_BURST at least 1"))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// Addr is the listen address of the HTTP server
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindAddress, c.Port)
}

// DSN builds the connection string for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == DriverPostgres {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
	}
	sep := "?"
	if strings.Contains(c.DBPath, "?") {
		sep = "&"
	}
	return c.DBPath + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// String renders the configuration with secrets masked
func (c *Config) String() string {
	return fmt.Sprintf("env=%s addr=%s db=%s redis=%q jwt_secret=%s admin_key=%s google_client_id=%q origins=%v",
		c.AppEnv, c.Addr(), c.dbSummary(), c.RedisAddr, mask(c.JWTSecret), mask(c.AdminKey), c.GoogleClientID, c.AllowedOrigins)
}

func (c *Config) dbSummary() string {
	if c.DBDriver == DriverPostgres {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.DBUser, mask(c.DBPassword), c.DBHost, c.DBPort, c.DBName)
	}
	return "sqlite:" + c.DBPath
}

func mask(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	return "****"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, raw))
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64, errs *[]error) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid number %q", key, raw))
		return defaultValue
	}
	return f
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
