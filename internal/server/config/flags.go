package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/flagx"
)

var knownFlags = []string{
	"-a", "-g", "-l", "-f", "-d", "-w", "-k", "-require-password",
	"-s", "-t", "-o", "-admins", "-u", "-p", "-b", "-r", "-e",
}

// parseFlags populates Config from command-line flags.
//
//	-a string   HTTP listen address (":3000")
//	-g string   gRPC listen address (":50051")
//	-l string   log level
//	-f string   JSON data file
//	-d string   PostgreSQL DSN; selects the database backend when set
//	-w int      minimum id width
//	-k int      bcrypt cost
//	-require-password=bool
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-o string   allowed CORS origins
//	-admins     comma-separated admin emails
//	-u/-p       S3 user and password
//	-b string   S3 bucket; empty disables backups
//	-r string   S3 region
//	-e string   S3 base endpoint
//
// Flags not listed are filtered out first with flagx.FilterArgs, so -c and
// flags owned by other components do not trip the parser.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("userkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.DataFile, "f", config.DataFile, "JSON data file")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.IDWidth, "w", config.IDWidth, "minimum id width")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.BoolVar(&config.RequirePassword, "require-password", config.RequirePassword, "require a password on create")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&config.CORSOrigins, "o", config.CORSOrigins, "allowed CORS origins")
	fs.StringVar(&config.AdminEmails, "admins", config.AdminEmails, "comma-separated admin emails")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	return nil
}
