package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CHECKLIST_CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, TransportStdio, cfg.Transport.Mode)
	require.Equal(t, StoreLocal, cfg.Store.Mode)
	require.Equal(t, "/", cfg.View.URL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
db:
  path: /tmp/todos.db
transport:
  mode: http
store:
  mode: remote
  url: http://backend:8080
view:
  url: /?filter=%7B%7D
`), 0o600))

	t.Setenv("CHECKLIST_CONFIG_PATH", path)
	t.Setenv("CHECKLIST_SERVER_PORT", "9100")
	t.Setenv("CHECKLIST_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, "/tmp/todos.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, TransportHTTP, cfg.Transport.Mode)
	require.Equal(t, 8081, cfg.Transport.Port)
	require.Equal(t, StoreRemote, cfg.Store.Mode)
	require.Equal(t, "http://backend:8080", cfg.Store.URL)
	require.Equal(t, "/?filter=%7B%7D", cfg.View.URL)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"CHECKLIST_SERVER_PORT":    "eighty",
		"CHECKLIST_TRANSPORT_PORT": "70000",
		"CHECKLIST_TRANSPORT":      "carrier-pigeon",
		"CHECKLIST_STORE_MODE":     "cloud",
		"CHECKLIST_LOG_LEVEL":      "loud",
	}
	for env, value := range cases {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CHECKLIST_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestValidate_RemoteNeedsURL(t *testing.T) {
	cfg := Default()
	cfg.Store = StoreConfig{Mode: StoreRemote}
	require.ErrorIs(t, cfg.Validate(), ErrInvalid)
}
