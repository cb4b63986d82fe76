package config

import (
	"fmt"
	"strconv"
	"time"
)

// parseEnv applies environment overrides. PORT sets the HTTP listen port on
// all interfaces; USERS_HTTP_ADDR, when also set, wins over it.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		config.HTTPAddr = ":" + v
	}

	strs := map[string]*string{
		"USERS_HTTP_ADDR":        &config.HTTPAddr,
		"USERS_GRPC_ADDR":        &config.GRPCAddr,
		"USERS_LOG_LEVEL":        &config.LogLevel,
		"USERS_DATA_FILE":        &config.DataFile,
		"USERS_DATABASE_DSN":     &config.DatabaseDSN,
		"USERS_TIME_ZONE":        &config.TimeZone,
		"USERS_SECRET_KEY":       &config.SecretKey,
		"USERS_CORS_ORIGINS":     &config.CORSOrigins,
		"USERS_ADMIN_EMAILS":     &config.AdminEmails,
		"USERS_S3_USER":          &config.S3RootUser,
		"USERS_S3_PASSWORD":      &config.S3RootPassword,
		"USERS_S3_BUCKET":        &config.S3Bucket,
		"USERS_S3_REGION":        &config.S3Region,
		"USERS_S3_BASE_ENDPOINT": &config.S3BaseEndpoint,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"USERS_ID_WIDTH":         &config.IDWidth,
		"USERS_BCRYPT_COST":      &config.BcryptCost,
		"USERS_LOGIN_RATE_LIMIT": &config.LoginRateLimit,
	}
	for name, dst := range ints {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}

	if v, ok := lookup("USERS_REQUIRE_PASSWORD"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("USERS_REQUIRE_PASSWORD: %w", err)
		}
		config.RequirePassword = b
	}

	if v, ok := lookup("USERS_ACCESS_TOKEN_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("USERS_ACCESS_TOKEN_TTL: %w", err)
		}
		config.AccessTokenValidityDuration = d
	}

	return nil
}
