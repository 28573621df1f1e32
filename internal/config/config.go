package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Session  SessionConfig  `env:",prefix=SESSION_"`
	OAuth    OAuthConfig    `env:",prefix=OAUTH_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host           string `env:"HOST,default=localhost"`
	Port           string `env:"PORT,default=5432"`
	User           string `env:"USER,default=identity_service"`
	Password       string `env:"PASSWORD,default=identity_service_password"`
	DBName         string `env:"DB,default=identity_service_db"`
	SSLMode        string `env:"SSLMODE,default=disable"`
	MigrationsPath string `env:"MIGRATIONS_PATH,default=migrations"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type SessionConfig struct {
	TTL          Duration `env:"TTL,default=7d"`
	CookieName   string   `env:"COOKIE_NAME,default=cf_session"`
	CookieSecure bool     `env:"COOKIE_SECURE,default=true"`
}

// OAuthConfig describes the external provider connection. State TTL and
// refresh skew are tunable rather than hard-coded: the skew bounds how
// close to expiry an access token may be before a proactive refresh.
type OAuthConfig struct {
	ClientID        string   `env:"CLIENT_ID,required"`
	ClientSecret    string   `env:"CLIENT_SECRET,required"`
	AuthorizeURL    string   `env:"AUTHORIZE_URL,required"`
	TokenURL        string   `env:"TOKEN_URL,required"`
	RedirectURL     string   `env:"REDIRECT_URL,required"`
	Scopes          []string `env:"SCOPES,default=read,write"`
	StateTTL        Duration `env:"STATE_TTL,default=10m"`
	RefreshSkew     Duration `env:"REFRESH_SKEW,default=5m"`
	RequestTimeout  Duration `env:"REQUEST_TIMEOUT,default=10s"`
	CleanupInterval Duration `env:"STATE_CLEANUP_INTERVAL,default=5m"`
}

type SecurityConfig struct {
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// ScopeString returns the provider scopes as a space-separated string
func (o OAuthConfig) ScopeString() string {
	return strings.Join(o.Scopes, " ")
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if config.Session.TTL.Duration <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}
	if config.OAuth.StateTTL.Duration <= 0 {
		return nil, fmt.Errorf("OAUTH_STATE_TTL must be positive")
	}
	if config.OAuth.RefreshSkew.Duration < 0 {
		return nil, fmt.Errorf("OAUTH_REFRESH_SKEW must not be negative")
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
