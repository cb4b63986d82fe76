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

func Test_parseJson(t *testing.T) {
	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"http_addr":                      "127.0.0.1:3001",
		"grpc_addr":                      "127.0.0.1:9090",
		"data_file":                      "users.json",
		"database_dsn":                   "postgres://u:p@db/users",
		"id_width":                       4,
		"time_zone":                      "UTC",
		"require_password":               false,
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "1h",
		"login_rate_window":              30000000000,
		"s3_bucket":                      "bucket",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, []string{"-config", full}))

		assert.Equal(t, "127.0.0.1:3001", cfg.HTTPAddr)
		assert.Equal(t, "127.0.0.1:9090", cfg.GRPCAddr)
		assert.Equal(t, "users.json", cfg.DataFile)
		assert.Equal(t, "postgres://u:p@db/users", cfg.DatabaseDSN)
		assert.Equal(t, 4, cfg.IDWidth)
		assert.Equal(t, "UTC", cfg.TimeZone)
		assert.False(t, cfg.RequirePassword)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, time.Hour, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 30*time.Second, cfg.LoginRateWindow)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, 10, cfg.BcryptCost, "absent key keeps default")
	})

	t.Run("no flag leaves config untouched", func(t *testing.T) {
		cfg := &Config{HTTPAddr: "defaults:1234"}
		require.NoError(t, parseJson(cfg, []string{"-a", ":1"}))
		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := &Config{}
		require.Error(t, parseJson(cfg, []string{"-c", bad}))
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := &Config{}
		require.Error(t, parseJson(cfg, []string{"-c", filepath.Join(dir, "nope.json")}))
	})
}
