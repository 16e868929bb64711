package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := lookupEnv
	t.Cleanup(func() { lookupEnv = original })
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func withConfigDir(t *testing.T, dir string) {
	t.Helper()
	original := userConfigDir
	t.Cleanup(func() { userConfigDir = original })
	userConfigDir = func() (string, error) { return dir, nil }
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	withEnv(t, nil)
	withConfigDir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 4711, cfg.Connection.Port)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	withEnv(t, nil)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `connection:
  host: mud.example.org
  transport: ws
  url: wss://mud.example.org/play
  charset: latin1
maps:
  dir: /srv/maps
map:
  cell_size: 3
  cell_spacing: 0
logging:
  level: debug
scripts:
  triggers: ~/triggers.go
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	withEnv(t, map[string]string{"SLCLIENT_PORT": "2323", "SLCLIENT_MAPS_DIR": "/tmp/maps"})

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "mud.example.org", cfg.Connection.Host)
	require.Equal(t, 2323, cfg.Connection.Port)
	require.Equal(t, "ws", cfg.Connection.Transport)
	require.Equal(t, "latin1", cfg.Connection.Charset)
	require.Equal(t, "/tmp/maps", cfg.Maps.Dir)
	require.Equal(t, 3, cfg.Map.CellSize)
	require.Equal(t, 0, cfg.Map.CellSpacing)
	require.True(t, cfg.Map.Open)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, "~/triggers.go", cfg.Scripts.Triggers)
}

func TestLoadRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection: [unbalanced"), 0o644))
	withEnv(t, nil)
	_, err := Load(path)
	require.Error(t, err)

	withEnv(t, map[string]string{"SLCLIENT_PORT": "seventy"})
	withConfigDir(t, t.TempDir())
	_, err = Load("")
	require.Error(t, err)
}

func TestParsePort(t *testing.T) {
	for in, want := range map[string]int{"23": 23, " 4711 ": 4711, "65535": 65535} {
		got, err := ParsePort(in)
		if err != nil || got != want {
			t.Fatalf("ParsePort(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"0", "65536", "-1", "port"} {
		if _, err := ParsePort(in); err == nil {
			t.Fatalf("ParsePort(%q) succeeded", in)
		}
	}
}
