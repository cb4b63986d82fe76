package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/userkeeper/internal/flagx"
	"github.com/dmitrijs2005/userkeeper/internal/timex"
)

// JsonConfig mirrors Config for the JSON file. Durations use timex.Duration
// so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	GRPCAddr                    string         `json:"grpc_addr"`
	LogLevel                    string         `json:"log_level"`
	DataFile                    string         `json:"data_file"`
	DatabaseDSN                 string         `json:"database_dsn"`
	IDWidth                     int            `json:"id_width"`
	TimestampLayout             string         `json:"timestamp_layout"`
	TimeZone                    string         `json:"time_zone"`
	BcryptCost                  int            `json:"bcrypt_cost"`
	RequirePassword             bool           `json:"require_password"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	CORSOrigins                 string         `json:"cors_origins"`
	LoginRateLimit              int            `json:"login_rate_limit"`
	LoginRateWindow             timex.Duration `json:"login_rate_window"`
	AdminEmails                 string         `json:"admin_emails"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:                    c.HTTPAddr,
		GRPCAddr:                    c.GRPCAddr,
		LogLevel:                    c.LogLevel,
		DataFile:                    c.DataFile,
		DatabaseDSN:                 c.DatabaseDSN,
		IDWidth:                     c.IDWidth,
		TimestampLayout:             c.TimestampLayout,
		TimeZone:                    c.TimeZone,
		BcryptCost:                  c.BcryptCost,
		RequirePassword:             c.RequirePassword,
		SecretKey:                   c.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		CORSOrigins:                 c.CORSOrigins,
		LoginRateLimit:              c.LoginRateLimit,
		LoginRateWindow:             timex.Duration{Duration: c.LoginRateWindow},
		AdminEmails:                 c.AdminEmails,
		S3RootUser:                  c.S3RootUser,
		S3RootPassword:              c.S3RootPassword,
		S3Bucket:                    c.S3Bucket,
		S3Region:                    c.S3Region,
		S3BaseEndpoint:              c.S3BaseEndpoint,
	}
}

// parseJson overlays the file named by -c/-config onto config. Keys missing
// from the file keep their current values. No flag means nothing to load.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Pre-filled with the current values so absent keys are left alone.
	c := toJson(config)
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.GRPCAddr = c.GRPCAddr
	config.LogLevel = c.LogLevel
	config.DataFile = c.DataFile
	config.DatabaseDSN = c.DatabaseDSN
	config.IDWidth = c.IDWidth
	config.TimestampLayout = c.TimestampLayout
	config.TimeZone = c.TimeZone
	config.BcryptCost = c.BcryptCost
	config.RequirePassword = c.RequirePassword
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.CORSOrigins = c.CORSOrigins
	config.LoginRateLimit = c.LoginRateLimit
	config.LoginRateWindow = c.LoginRateWindow.Duration
	config.AdminEmails = c.AdminEmails
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	return nil
}
