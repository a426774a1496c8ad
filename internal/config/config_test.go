package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\nstore: memory\njwt_secret: from-file\nlog_format: text\n"), 0o600))

	cfg := defaults()
	require.NoError(t, cfg.loadFile(path))
	require.NoError(t, cfg.applyEnv(envOf(map[string]string{
		"JWT_SECRET":   "from-env",
		"JWT_ALG":      "hs512",
		"OTEL_ENABLED": "true",
	})))

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "HS512", cfg.JWTAlg)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.OTelEnabled)
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	cfg := defaults()
	assert.Error(t, cfg.applyEnv(envOf(map[string]string{"OTEL_ENABLED": "maybe"})))
	assert.Error(t, cfg.applyEnv(envOf(map[string]string{"MAX_UPLOAD_BYTES": "10MB"})))
}

func TestValidate(t *testing.T) {
	ok := defaults()
	ok.JWTSecret = "s"
	ok.DatabaseURL = "postgres://localhost/portal"
	ok.MediaBackend = MediaNone
	require.NoError(t, ok.Validate())

	tests := []struct {
		name string
		edit func(*Config)
		msg  string
	}{
		{"no secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"bad alg", func(c *Config) { c.JWTAlg = "RS256" }, "JWT_ALG"},
		{"no database", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"unknown store", func(c *Config) { c.Store = "sqlite" }, "STORE"},
		{"gridfs without mongo", func(c *Config) { c.MediaBackend = MediaGridFS }, "MONGO_URI"},
		{"s3 without bucket", func(c *Config) { c.MediaBackend = MediaS3 }, "S3_BUCKET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ok
			tt.edit(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	mem := ok
	mem.Store = StoreMemory
	mem.DatabaseURL = ""
	assert.NoError(t, mem.Validate())
}
