package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectEtc(t *testing.T) string {
	t.Helper()

	root, err := filepath.Abs("../../")
	require.NoError(t, err)

	return filepath.Join(root, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	t.Setenv(EnvConfigJSON, "")
	t.Setenv(EnvMasterKey, "")

	cfg, err := ReadConfig(projectEtc(t))
	require.NoError(t, err)

	assert.Equal(t, "SupplyConnect", cfg.Title)
	assert.Equal(t, 8080, cfg.Webserver.Port)
	assert.NotEmpty(t, cfg.Webserver.URL)
	assert.Equal(t, 8*time.Hour, cfg.Webserver.Session.ExpiryTime)
	assert.Equal(t, EngineSQLite, cfg.DB.GormEngine)
	assert.Equal(t, "access.log", cfg.Log.File.Access.Name)
	assert.Equal(t, 30*time.Minute, cfg.Sync.LockTTL)
	assert.Equal(t, []string{"groups", "users", "memberships"}, cfg.Sync.Kinds)
	assert.Equal(t, uint32(500), cfg.Directory.PageSize)
}

func TestReadConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvConfigJSON, `{"Webserver":{"Port":9090},"DB":{"Password":"from-env"}}`)
	t.Setenv(EnvMasterKey, "master-from-env")

	cfg, err := ReadConfig(projectEtc(t))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Webserver.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Webserver.URL, "fields absent from the JSON keep the file value")
	assert.Equal(t, "from-env", cfg.DB.Password)
	assert.Equal(t, "master-from-env", cfg.Vault.MasterKey)
}

func TestReadConfig_BadJSON(t *testing.T) {
	t.Setenv(EnvConfigJSON, `{"Webserver":`)

	_, err := ReadConfig(projectEtc(t))
	require.Error(t, err)
}

func TestReadConfig_Defaults(t *testing.T) {
	t.Setenv(EnvConfigJSON, "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.toml"), []byte(`
[DB]
Name = "test.db"

[Webserver]
Port = 8081
URL = "http://localhost:8081"
`), 0o600))

	cfg, err := ReadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "SupplyConnect", cfg.Title)
	assert.Equal(t, 5, cfg.Webserver.ShutDownTime)
	assert.Equal(t, 5, cfg.Webserver.LoginBurst)
	assert.Equal(t, 10, cfg.Directory.DefaultTimeout)
	assert.Equal(t, "@every 6h", cfg.Sync.Schedule)
	assert.False(t, cfg.Sync.Enabled)
}

func TestReadConfig_MissingFile(t *testing.T) {
	_, err := ReadConfig(t.TempDir())
	require.Error(t, err)
}

func validConfig() Config {
	return Config{
		Title:     "SupplyConnect",
		DB:        DB{GormEngine: EngineSQLite, Name: "test.db"},
		Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
		Sync:      Sync{Schedule: "@hourly", Kinds: []string{"groups"}},
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(c *Config)
		expectedError error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Webserver.Port = 0 }, expectedError: ErrWebServerPortCanNotBeZero},
		{name: "empty url", mutate: func(c *Config) { c.Webserver.URL = "" }, expectedError: ErrEmptyURL},
		{
			name:          "enabled without schedule",
			mutate:        func(c *Config) { c.Sync.Enabled = true; c.Sync.Schedule = "" },
			expectedError: ErrSyncScheduleMissing,
		},
		{name: "unknown engine", mutate: func(c *Config) { c.DB.GormEngine = "oracle" }, expectedError: ErrInvalidValue},
		{name: "unknown sync kind", mutate: func(c *Config) { c.Sync.Kinds = []string{"printers"} }, expectedError: ErrInvalidValue},
		{name: "no title", mutate: func(c *Config) { c.Title = "" }, expectedError: ErrInvalidValue},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)

			err := validate(c)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestDumpConfig_RedactsSecrets(t *testing.T) {
	c := validConfig()
	c.DB.Password = "db-secret"
	c.Vault.MasterKey = "vault-secret"

	out, err := DumpConfig(c)
	require.NoError(t, err)
	assert.NotContains(t, out, "db-secret")
	assert.NotContains(t, out, "vault-secret")
	assert.Contains(t, out, redacted)

	out, err = DumpConfigJSON(c)
	require.NoError(t, err)
	assert.NotContains(t, out, "vault-secret")
	assert.Contains(t, out, `"Title": "SupplyConnect"`)

	assert.Equal(t, "db-secret", c.DB.Password, "the caller's config is not modified")
}
