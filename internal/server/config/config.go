// Package config handles configuration for the blog server, layering
// built-in defaults, a .env file, environment variables, a JSON overlay and
// command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/goblog/internal/credentials"
)

// Config holds runtime settings for the blog server.
//
// Fields:
//   - WebAddr / APIAddr / GRPCAddr: listen addresses of the session app,
//     the token app and the gRPC health endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). When empty the DSN is built from
//     CredentialsFile, or from BLOG_DB_* variables if that file is absent.
//   - DatabaseMaxConns: upper bound of the shared connection pool.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration: api token lifetime.
//   - SessionValidityDuration: web session lifetime.
//   - AllowedOrigins: CORS origins accepted by the api app.
//   - S3*: object storage for article images.
type Config struct {
	WebAddr  string `env:"BLOG_WEB_ADDR"`
	APIAddr  string `env:"BLOG_API_ADDR"`
	GRPCAddr string `env:"BLOG_GRPC_ADDR"`

	DatabaseDSN      string `env:"BLOG_DATABASE_DSN"`
	CredentialsFile  string `env:"BLOG_CREDENTIALS_FILE"`
	DatabaseMaxConns int    `env:"BLOG_DATABASE_MAX_CONNS"`

	SecretKey                   string        `env:"BLOG_SECRET_KEY"`
	AccessTokenValidityDuration time.Duration `env:"BLOG_ACCESS_TOKEN_TTL"`
	SessionValidityDuration     time.Duration `env:"BLOG_SESSION_TTL"`

	AllowedOrigins []string `env:"BLOG_ALLOWED_ORIGINS" envSeparator:","`

	S3RootUser     string `env:"BLOG_S3_ROOT_USER"`
	S3RootPassword string `env:"BLOG_S3_ROOT_PASSWORD"`
	S3Bucket       string `env:"BLOG_S3_BUCKET"`
	S3Region       string `env:"BLOG_S3_REGION"`
	S3BaseEndpoint string `env:"BLOG_S3_BASE_ENDPOINT"`

	AppName    string
	AppVersion string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.WebAddr = ":5000"
	c.APIAddr = ":8000"
	c.GRPCAddr = ":50051"
	c.DatabaseDSN = ""
	c.CredentialsFile = credentials.DefaultPath
	c.DatabaseMaxConns = 10
	c.SecretKey = "your-secret-key-here-change-this-in-production"
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.SessionValidityDuration = 24 * time.Hour
	c.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:8000"}
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "blog-images"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.AppName = "Go Blog"
	c.AppVersion = "1.0.0"
}

// LoadConfig builds a Config by applying defaults, then overlaying the
// .env file, the environment, an optional JSON file and finally
// command-line flags.
func LoadConfig() *Config {
	args := os.Args[1:]

	cfg := &Config{}
	cfg.LoadDefaults()
	loadDotEnv(".env")
	parseEnv(cfg, Environ())
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}

// ResolveDSN returns the DSN to connect with and the configured cursor
// class. Precedence: explicit DatabaseDSN, then the credentials file, then
// BLOG_DB_* variables from env.
func (c *Config) ResolveDSN(env map[string]string) (string, string, error) {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN, credentials.CursorDict, nil
	}

	if c.CredentialsFile != "" {
		creds, err := credentials.Load(c.CredentialsFile)
		if err == nil {
			return creds.DSN(), creds.CursorClass, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", "", err
		}
	}

	creds, err := credentials.FromEnv(env)
	if err != nil {
		return "", "", fmt.Errorf("no database configuration: %w", err)
	}
	return creds.DSN(), creds.CursorClass, nil
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	m := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
