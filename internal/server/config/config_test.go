package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	assert.False(t, cfg.MergeOverwrite)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.NotEmpty(t, cfg.S3Bucket)
}

func TestLoadConfig_JSONOverlay(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	file := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"endpoint_addr": ":9090",
		"database_dsn": "postgres://json",
		"secret_key": "json-secret",
		"access_token_validity_duration": "30m",
		"merge_overwrite": true,
		"s3_root_user": "ju",
		"s3_root_password": "jp",
		"s3_bucket": "jb",
		"s3_region": "jr",
		"s3_base_endpoint": "http://json:9000/"
	}`), 0o600))

	os.Args = []string{"testbin", "-c", file}
	cfg := LoadConfig()

	assert.Equal(t, ":9090", cfg.EndpointAddr)
	assert.Equal(t, "postgres://json", cfg.DatabaseDSN)
	assert.Equal(t, "json-secret", cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
	assert.True(t, cfg.MergeOverwrite)
	assert.Equal(t, "jb", cfg.S3Bucket)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	file := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"endpoint_addr": ":9090",
		"database_dsn": "postgres://json",
		"secret_key": "json-secret",
		"access_token_validity_duration": "30m",
		"merge_overwrite": false,
		"s3_root_user": "ju",
		"s3_root_password": "jp",
		"s3_bucket": "jb",
		"s3_region": "jr",
		"s3_base_endpoint": "http://json:9000/"
	}`), 0o600))

	os.Args = []string{"testbin", "-c", file, "-a", ":7070", "-t", "60", "-m"}
	cfg := LoadConfig()

	assert.Equal(t, ":7070", cfg.EndpointAddr, "flag wins over JSON")
	assert.Equal(t, time.Hour, cfg.AccessTokenValidityDuration)
	assert.True(t, cfg.MergeOverwrite)
	assert.Equal(t, "postgres://json", cfg.DatabaseDSN, "JSON value survives when no flag given")
}

func TestLoadConfig_FlagsOnly(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "-d", "postgres://flag", "-s", "flag-secret"}
	cfg := LoadConfig()

	assert.Equal(t, "postgres://flag", cfg.DatabaseDSN)
	assert.Equal(t, "flag-secret", cfg.SecretKey)
	assert.Equal(t, ":8080", cfg.EndpointAddr, "default survives")
}
