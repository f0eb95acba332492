package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemadraft/internal/layout"
	"github.com/tordrt/schemadraft/internal/provider"
)

func defaults() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(defaults())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 30, cfg.Server.RateLimit)
	assert.Equal(t, provider.KindNone, cfg.Provider.Kind)
	assert.Equal(t, 60*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, layout.DefaultCanvas(), cfg.Canvas)
	assert.Empty(t, cfg.Store.DataDir)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemadraft.yaml")
	doc := `
server:
  port: 9090
  cors_origins: [http://localhost:3000, https://app.example.com]
provider:
  kind: http
  url: http://localhost:3000/api/generate-schema
  timeout: 5s
layout:
  width: 2000
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	t.Setenv("SCHEMADRAFT_STORE_DATA_DIR", "/var/lib/schemadraft")
	t.Setenv("SCHEMADRAFT_SERVER_HOST", "127.0.0.1")

	v, err := NewViper(path)
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/var/lib/schemadraft", cfg.Store.DataDir)
	assert.Equal(t, provider.KindEndpoint, cfg.Provider.Kind)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 2000.0, cfg.Canvas.Width)
	assert.Equal(t, 1000.0, cfg.Canvas.Height)
}

func TestNewViperMissingExplicitFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
	}{
		{"port out of range", map[string]any{"server.port": 70000}},
		{"negative rate limit", map[string]any{"server.rate_limit": -1}},
		{"http provider without url", map[string]any{"provider.kind": "http"}},
		{"unknown provider", map[string]any{"provider.kind": "claude-local"}},
		{"zero timeout", map[string]any{"provider.timeout": "0s"}},
		{"node wider than canvas", map[string]any{"layout.node_width": 5000}},
		{"zero height", map[string]any{"layout.height": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := defaults()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", " c "}))
	assert.Nil(t, splitList([]string{" , "}))
}
