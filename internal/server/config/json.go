package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/goblog/internal/flagx"
	"github.com/dmitrijs2005/goblog/internal/timex"
)

// JsonConfig is the DTO the optional JSON config file is decoded into.
// Durations accept "30m" style strings or integer nanoseconds. Absent or
// zero fields do not override earlier layers.
type JsonConfig struct {
	WebAddr                     string         `json:"web_addr"`
	APIAddr                     string         `json:"api_addr"`
	GRPCAddr                    string         `json:"grpc_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	CredentialsFile             string         `json:"credentials_file"`
	DatabaseMaxConns            int            `json:"database_max_conns"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	SessionValidityDuration     timex.Duration `json:"session_validity_duration"`
	AllowedOrigins              []string       `json:"allowed_origins"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config in args, if any, and copies
// its non-zero values into config. An unreadable or invalid file panics.
func parseJson(config *Config, args []string) {
	path := flagx.JsonConfigFlags(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.WebAddr, c.WebAddr)
	setString(&config.APIAddr, c.APIAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.CredentialsFile, c.CredentialsFile)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.DatabaseMaxConns > 0 {
		config.DatabaseMaxConns = c.DatabaseMaxConns
	}
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.SessionValidityDuration.Duration > 0 {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
