package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "2016-06-01", cfg.Azure.APIVersion)
	assert.Equal(t, "https://management.azure.com/.default", cfg.Azure.Scope)
	assert.Equal(t, "generated", cfg.Deploy.LicenseIdentifier)
	assert.Equal(t, 60*time.Second, cfg.Azure.RequestTimeout)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  env: production
azure:
  mode: oauth2
  request_timeout: 5s
templates:
  dir: /srv/templates
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("TDS_AZURE_CLIENT_ID", "operator-app")
	t.Setenv("TDS_DEPLOY_LICENSE_IDENTIFIER", "license")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "oauth2", cfg.Azure.Mode)
	assert.Equal(t, 5*time.Second, cfg.Azure.RequestTimeout)
	assert.Equal(t, "/srv/templates", cfg.Templates.Dir)
	assert.Equal(t, "operator-app", cfg.Azure.ClientID)
	assert.Equal(t, "license", cfg.Deploy.LicenseIdentifier)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
