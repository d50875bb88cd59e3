package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "s3cret")
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", c.JWT.Secret)
	assert.Equal(t, 24*60, c.JWT.AccessTokenTTLMin)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, "/uploads", c.Storage.PublicPrefix)
	assert.True(t, c.Market.AllowRequesterSelfAssign)
	assert.False(t, c.Market.ProtectOverrides)
	assert.Equal(t, 300, c.Redis.RatingTTLSec)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  http:
    port: 9090
db:
  driver: postgres
  dsn: host=db
market:
  allow_requester_self_assign: false
  protect_overrides: true
`), 0o600))
	t.Setenv("APP_JWT_SECRET", "x")
	t.Setenv("APP_DB_DSN", "host=override")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, "host=override", c.DB.DSN)
	assert.False(t, c.Market.AllowRequesterSelfAssign)
	assert.True(t, c.Market.ProtectOverrides)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "jwt.secret")
}

func TestLoad_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unclosed"), 0o600))
	t.Setenv("APP_JWT_SECRET", "x")
	_, err := Load(path)
	assert.ErrorContains(t, err, "read config")
}
