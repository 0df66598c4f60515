package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("ALUMNI_CONFIG_DIR", t.TempDir())

	conf, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "DEV", conf.Env)
	assert.True(t, conf.Debug)
	assert.Equal(t, "http://localhost:5000/api", conf.API.BaseURL)
	assert.Equal(t, 15*time.Second, conf.API.Timeout)
	assert.Equal(t, "sqlite", conf.TokenStore.Driver)
	assert.Equal(t, "token", conf.TokenStore.Key)
	assert.Equal(t, "/", conf.Routes.HomePath)
	assert.Equal(t, "/dashboard", conf.Routes.DashboardPath)
	assert.Equal(t, 3*time.Second, conf.Notifications.Duration(SeveritySuccess))
	assert.Equal(t, 6*time.Second, conf.Notifications.Duration(SeverityWarning))
}

func TestNewConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	dotEnv := "ALUMNI_APIBASEURL=https://alumni.example.org/api/\nALUMNI_NOTIFYINFODURATION=10s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte(dotEnv), 0o600))

	t.Setenv("ENV", "test")
	t.Setenv("ALUMNI_CONFIG_DIR", dir)
	t.Setenv("ALUMNI_APITIMEOUT", "2s")
	t.Setenv("ALUMNI_DASHBOARDPATH", "/home")
	// set by godotenv
	t.Cleanup(func() {
		_ = os.Unsetenv("ALUMNI_APIBASEURL")
		_ = os.Unsetenv("ALUMNI_NOTIFYINFODURATION")
	})

	conf, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, "memory", conf.TokenStore.Driver)
	assert.Equal(t, "https://alumni.example.org/api", conf.API.BaseURL)
	assert.Equal(t, 2*time.Second, conf.API.Timeout)
	assert.Equal(t, 10*time.Second, conf.Notifications.Duration(SeverityInfo))
	assert.Equal(t, "/home", conf.Routes.DashboardPath)
}
