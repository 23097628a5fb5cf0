package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Provider ProviderConfig
	Business BusinessConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for hosted-Postgres posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

// ProviderConfig configures the external voice-call platform the sync
// pipeline pulls records from.
type ProviderConfig struct {
	BaseURL string
	APIKey  string

	// AgentID scopes list-calls requests to a single agent when set.
	AgentID string

	// PageLimit bounds a single batch fetch. Clamped to [1,1000].
	PageLimit int

	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// SyncInterval drives the periodic auto-sync scheduler.
	SyncInterval time.Duration

	// UseSimulator enables the fixture data source as a fallback fetcher.
	// Validate() rejects it in production.
	UseSimulator bool
}

type BusinessConfig struct {
	// DefaultCostPerMinute is the display rate applied when a request does
	// not override it. Provider-reported costs are kept separately.
	DefaultCostPerMinute float64
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.TokenTTL = optDuration("JWT_TOKEN_TTL")

	c.Provider.BaseURL = strings.TrimSpace(os.Getenv("PROVIDER_BASE_URL"))
	c.Provider.APIKey = os.Getenv("PROVIDER_API_KEY")
	c.Provider.AgentID = strings.TrimSpace(os.Getenv("PROVIDER_AGENT_ID"))
	c.Provider.PageLimit = optInt("PROVIDER_PAGE_LIMIT")
	c.Provider.RequestTimeout = optDuration("PROVIDER_REQUEST_TIMEOUT")
	c.Provider.MaxRetries = optInt("PROVIDER_MAX_RETRIES")
	c.Provider.RetryDelay = optDuration("PROVIDER_RETRY_DELAY")
	c.Provider.SyncInterval = optDuration("PROVIDER_SYNC_INTERVAL")
	c.Provider.UseSimulator = optBool("PROVIDER_USE_SIMULATOR")

	c.Business.DefaultCostPerMinute = optFloat("DEFAULT_COST_PER_MINUTE")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	// The simulator profile runs entirely in memory and never opens
	// Postgres or Redis, so their settings are only required without it.
	if !c.Provider.UseSimulator {
		if c.DB.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required"))
		}
		if strings.TrimSpace(c.DB.SSLMode) == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				// Local-friendly default; production must be explicit.
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}

		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required"))
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() && c.Auth.JWTIssuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER is required in production"))
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 12 * time.Hour
	}

	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://api.retellai.com"
	}
	// A server serving real users must never fall back to fixture data, and
	// a sync path without credentials is a startup error, not a silent demo
	// mode.
	if c.IsProduction() {
		if c.Provider.APIKey == "" {
			errs = append(errs, errors.New("PROVIDER_API_KEY is required in production"))
		}
		if c.Provider.UseSimulator {
			errs = append(errs, errors.New("PROVIDER_USE_SIMULATOR is not allowed in production"))
		}
	}
	if c.Provider.PageLimit <= 0 || c.Provider.PageLimit > 1000 {
		c.Provider.PageLimit = 1000
	}
	if c.Provider.RequestTimeout <= 0 {
		c.Provider.RequestTimeout = 10 * time.Second
	}
	if c.Provider.MaxRetries <= 0 {
		c.Provider.MaxRetries = 3
	}
	if c.Provider.RetryDelay <= 0 {
		c.Provider.RetryDelay = time.Second
	}
	if c.Provider.SyncInterval <= 0 {
		c.Provider.SyncInterval = 5 * time.Minute
	}

	if c.Business.DefaultCostPerMinute < 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_COST_PER_MINUTE must be >= 0, got %v", c.Business.DefaultCostPerMinute))
	}
	if c.Business.DefaultCostPerMinute == 0 {
		c.Business.DefaultCostPerMinute = 0.20
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func optFloat(key string) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func optBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return v == "true" || v == "1"
}

func optDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
