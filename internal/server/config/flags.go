package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/goblog/internal/flagx"
)

var ownFlags = []string{"-w", "-a", "-g", "-d", "-k", "-m", "-s", "-t", "-b", "-e", "-r", "-u", "-p"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-w string   web (session) app listen address, e.g. ":5000"
//	-a string   api (token) app listen address, e.g. ":8000"
//	-g string   gRPC health listen address
//	-d string   PostgreSQL DSN
//	-k string   credentials file
//	-m int      maximum open database connections
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-b string   S3 bucket
//	-e string   S3 base endpoint
//	-r string   S3 region
//	-u string   S3 root user
//	-p string   S3 root password
//
// Unknown arguments (for instance -c handled by parseJson) are filtered out
// before parsing.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.WebAddr, "w", config.WebAddr, "web app address")
	fs.StringVar(&config.APIAddr, "a", config.APIAddr, "api app address")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.CredentialsFile, "k", config.CredentialsFile, "credentials file")
	fs.IntVar(&config.DatabaseMaxConns, "m", config.DatabaseMaxConns, "max open database connections")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")

	if err := fs.Parse(flagx.FilterArgs(args, ownFlags)); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
