package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, DriverSQLite, cfg.Storage.Driver)
	require.Equal(t, BackendLocal, cfg.Export.Backend)
	require.Equal(t, 100, cfg.Editor.HistoryLimit)
	require.Equal(t, 24*time.Hour, cfg.TokenTTLDuration())
	require.Equal(t, 30*time.Minute, cfg.SessionIdleDuration())
}

func TestFromYAMLOverlaysDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte(`
editor:
  strict_types: true
themes:
  default: brand
  custom:
    - id: brand
      group: Brand
      bg: bg-amber-50
      text: text-amber-950
`))
	require.NoError(t, err)
	require.True(t, cfg.Editor.StrictTypes)
	require.Equal(t, 100, cfg.Editor.HistoryLimit)
	require.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)

	p, err := cfg.Palette()
	require.NoError(t, err)
	require.Equal(t, "brand", p.DefaultID())
	require.True(t, p.Has("midnight"))
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"driver":        "storage:\n  driver: postgres\n",
		"mongo uri":     "storage:\n  driver: mongo\n",
		"remote url":    "export:\n  backend: remote\n",
		"theme default": "themes:\n  default: nope\n",
		"theme fields":  "themes:\n  custom:\n    - id: broken\n",
		"ttl":           "server:\n  token_ttl: soon\n",
		"webhook":       "events:\n  webhooks:\n    - secret: x\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromYAML([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, dir, cfg.Storage.Workspace)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sitebuilder.yml"), []byte("server:\n  addr: :9999\n"), 0o644))
	cfg, err = Load(dir)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Server.Addr)

	require.NoError(t, os.WriteFile(Path(dir), []byte("storage: ["), 0o644))
	_, err = Load(dir)
	require.Error(t, err)
}
