package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

const validYAML = `
name: "test-api"
host: "127.0.0.1"
port: 8000
storage:
  db_type: "sqlite"
  db_path: ":memory:"
data_source:
  sources:
    - name: "yahoo"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(writeTempConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "test-api", cfg.Name)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "sqlite", cfg.Storage.DBType)
}

// -----------------------------------------------------------------------------

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(writeTempConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "1mo", cfg.DataSource.DefaultPeriod)
	assert.Equal(t, 15, cfg.Network.RequestTimeout)
	assert.NotEmpty(t, cfg.Scheduler.RefreshCron)
}

// -----------------------------------------------------------------------------

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewConfigMalformedYAML(t *testing.T) {
	_, err := NewConfig(writeTempConfig(t, "name: [unclosed"))
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestNewConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty name", `
host: "127.0.0.1"
port: 8000
storage: {db_type: "sqlite", db_path: ":memory:"}
data_source: {sources: [{name: "yahoo"}]}
`},
		{"privileged port", `
name: "t"
host: "127.0.0.1"
port: 80
storage: {db_type: "sqlite", db_path: ":memory:"}
data_source: {sources: [{name: "yahoo"}]}
`},
		{"unknown db type", `
name: "t"
host: "127.0.0.1"
port: 8000
storage: {db_type: "oracle"}
data_source: {sources: [{name: "yahoo"}]}
`},
		{"postgres without connection string", `
name: "t"
host: "127.0.0.1"
port: 8000
storage: {db_type: "postgres"}
data_source: {sources: [{name: "yahoo"}]}
`},
		{"no sources", `
name: "t"
host: "127.0.0.1"
port: 8000
storage: {db_type: "sqlite", db_path: ":memory:"}
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(writeTempConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

// -----------------------------------------------------------------------------

func TestAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("ALPHA_VANTAGE_API_KEY", "secret-key")

	cfg, err := NewConfig(writeTempConfig(t, `
name: "test-api"
host: "127.0.0.1"
port: 8000
storage:
  db_type: "sqlite"
  db_path: ":memory:"
data_source:
  sources:
    - name: "yahoo"
    - name: "alpha-vantage"
`))
	require.NoError(t, err)
	require.Len(t, cfg.DataSource.Sources, 2)
	assert.Equal(t, "", cfg.DataSource.Sources[0].APIKey)
	assert.Equal(t, "secret-key", cfg.DataSource.Sources[1].APIKey)
}

// -----------------------------------------------------------------------------

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(writeTempConfig(t, validYAML))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(out))

	reloaded, err := NewConfig(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, reloaded.Name)
	assert.Equal(t, cfg.Storage, reloaded.Storage)
}
