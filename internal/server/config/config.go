// Package config handles configuration for the server: defaults, an optional
// JSON file, environment variables and command-line flags, applied in that
// order.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/timex"
)

// Config holds runtime settings for the userkeeper server.
//
// DatabaseDSN selects the storage backend: empty means the JSON file at
// DataFile, anything else is a PostgreSQL DSN (pgx). S3Bucket left empty
// disables snapshot backups.
type Config struct {
	HTTPAddr string
	GRPCAddr string
	LogLevel string

	DataFile    string
	DatabaseDSN string

	IDWidth         int
	TimestampLayout string
	TimeZone        string

	BcryptCost      int
	RequirePassword bool

	SecretKey                   string
	AccessTokenValidityDuration time.Duration

	CORSOrigins     string
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// AdminEmails is a comma-separated list of accounts allowed on /admin.
	AdminEmails string

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey and the S3 credentials must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.GRPCAddr = ":50051"
	c.LogLevel = "info"
	c.DataFile = "data/userData.json"
	c.DatabaseDSN = ""
	c.IDWidth = 2
	c.TimestampLayout = timex.DefaultStampLayout
	c.TimeZone = timex.DefaultStampZone
	c.BcryptCost = 10
	c.RequirePassword = true
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.CORSOrigins = "*"
	c.LoginRateLimit = 10
	c.LoginRateWindow = time.Minute
	c.AdminEmails = ""
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// BackupEnabled reports whether S3 snapshots are configured.
func (c *Config) BackupEnabled() bool {
	return c.S3Bucket != ""
}

// Admins returns AdminEmails split on commas, trimmed and lowercased, with
// blanks dropped.
func (c *Config) Admins() []string {
	var out []string
	for _, e := range strings.Split(c.AdminEmails, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Load builds a Config from args (without the program name) and the process
// environment.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args. It panics on malformed input, since the
// server cannot start with a half-applied configuration.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
