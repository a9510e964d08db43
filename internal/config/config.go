package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Port             int           `mapstructure:"port"`
	DatabaseURL      string        `mapstructure:"database_url"`
	PostgresHost     string        `mapstructure:"postgres_host"`
	PostgresPort     string        `mapstructure:"postgres_port"`
	PostgresUser     string        `mapstructure:"postgres_user"`
	PostgresPassword string        `mapstructure:"postgres_password"`
	PostgresDB       string        `mapstructure:"postgres_db"`
	RedisURL         string        `mapstructure:"redis_url"`
	JWTSecret        string        `mapstructure:"jwt_secret"`
	GoogleClientID   string        `mapstructure:"google_client_id"`
	GoogleRedirect   string        `mapstructure:"google_redirect_url"`
	CookieDomain     string        `mapstructure:"cookie_domain"`
	CookieSameSite   string        `mapstructure:"cookie_same_site"`
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	LogLevel         string        `mapstructure:"log_level"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	AccessTokenTTL   time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `mapstructure:"refresh_token_ttl"`
	ReconcileTimeout time.Duration `mapstructure:"reconcile_timeout"`
	// ReconcileConcurrency bounds both the reconcile fan-out and the job's
	// connection pool.
	ReconcileConcurrency int `mapstructure:"reconcile_concurrency"`
}

var ErrMissingJWTSecret = errors.New("jwt_secret is required")

// Load resolves the configuration from, in increasing precedence, the
// defaults, a .env file, the environment and the given command line flags.
func Load(name string, args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found")
	}

	v := viper.New()
	setDefaults(v)

	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.Int("port", 8080, "HTTP listen port")
	flags.String("database_url", "", "PostgreSQL connection string")
	flags.String("redis_url", "", "Redis URL for cross-instance session events")
	flags.String("log_level", "info", "Log level")
	flags.Duration("reconcile_timeout", 5*time.Minute, "Deadline for the vote reconcile job")
	flags.Int("reconcile_concurrency", 4, "Polls reconciled at once by the vote reconcile job")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.AllowedOrigins = splitList(cfg.AllowedOrigins)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_db", "pollstr")
	v.SetDefault("cookie_same_site", "lax")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("log_level", "info")
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("access_token_ttl", 15*time.Minute)
	v.SetDefault("refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("reconcile_timeout", 5*time.Minute)
	v.SetDefault("reconcile_concurrency", 4)
	// Env-only keys still need a registered default to be picked up by
	// Unmarshal.
	for _, key := range []string{
		"database_url", "postgres_user", "postgres_password", "redis_url", "jwt_secret",
		"google_client_id", "google_redirect_url", "cookie_domain",
	} {
		v.SetDefault(key, "")
	}
}

// DSN prefers database_url and falls back to the discrete postgres_* keys.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     c.PostgresHost + ":" + c.PostgresPort,
		Path:     c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) SameSite() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// splitList accepts both a real list and a single comma separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
