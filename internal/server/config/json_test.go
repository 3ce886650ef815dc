package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"web_addr":                       ":5050",
		"api_addr":                       ":8080",
		"database_dsn":                   "postgres://u:p@db/blog",
		"database_max_conns":             4,
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "1m",
		"session_validity_duration":      "2h",
		"allowed_origins":                []string{"https://blog.example"},
		"s3_bucket":                      "bucket",
		"s3_region":                      "region",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		parseJson(cfg, []string{"-config", path})

		assert.Equal(t, ":5050", cfg.WebAddr)
		assert.Equal(t, ":8080", cfg.APIAddr)
		assert.Equal(t, "postgres://u:p@db/blog", cfg.DatabaseDSN)
		assert.Equal(t, 4, cfg.DatabaseMaxConns)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 2*time.Hour, cfg.SessionValidityDuration)
		assert.Equal(t, []string{"https://blog.example"}, cfg.AllowedOrigins)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
	})

	t.Run("absent keys keep earlier values", func(t *testing.T) {
		cfg := &Config{GRPCAddr: ":1234", S3RootUser: "root"}
		parseJson(cfg, []string{"-c", path})

		assert.Equal(t, ":1234", cfg.GRPCAddr)
		assert.Equal(t, "root", cfg.S3RootUser)
		assert.Equal(t, ":5050", cfg.WebAddr)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		cfg := &Config{WebAddr: ":1", SecretKey: "key"}
		parseJson(cfg, []string{"-w", ":2"})

		assert.Equal(t, &Config{WebAddr: ":1", SecretKey: "key"}, cfg)
	})
}

func Test_parseJson_Errors(t *testing.T) {
	t.Run("missing file panics", func(t *testing.T) {
		assert.Panics(t, func() {
			parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		})
	})

	t.Run("invalid json panics", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{bad"), 0o600))
		assert.Panics(t, func() { parseJson(&Config{}, []string{"-c", path}) })
	})

	t.Run("invalid duration panics", func(t *testing.T) {
		path := writeTempJSON(t, "", "", map[string]any{"access_token_validity_duration": "soon"})
		assert.Panics(t, func() { parseJson(&Config{}, []string{"-c", path}) })
	})
}
