// Package config loads runtime settings for the CLI, HTTP server and MCP
// server from flags, SCHEMADRAFT_* environment variables and an optional
// schemadraft.yaml.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tordrt/schemadraft/internal/layout"
	"github.com/tordrt/schemadraft/internal/provider"
)

// EnvPrefix is prepended to every environment variable, e.g.
// SCHEMADRAFT_SERVER_PORT for server.port.
const EnvPrefix = "SCHEMADRAFT"

// Config is the resolved configuration.
type Config struct {
	Server   Server
	Store    Store
	Provider provider.Settings
	Canvas   layout.Canvas
}

// Server holds HTTP listener settings.
type Server struct {
	Host        string
	Port        int
	CORSOrigins []string
	// RateLimit caps generate-schema calls per client IP per minute. Zero
	// disables the limit.
	RateLimit       int
	ShutdownTimeout time.Duration
}

// Addr returns host:port.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Store holds snapshot persistence settings.
type Store struct {
	// DataDir is where schemadraft.db lives. Empty keeps snapshots in memory.
	DataDir string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	canvas := layout.DefaultCanvas()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 30)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("store.data_dir", "")
	v.SetDefault("provider.kind", provider.KindNone)
	v.SetDefault("provider.url", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.timeout", 60*time.Second)
	v.SetDefault("layout.width", canvas.Width)
	v.SetDefault("layout.height", canvas.Height)
	v.SetDefault("layout.node_width", canvas.NodeWidth)
	v.SetDefault("layout.top_padding", canvas.TopPadding)
}

// NewViper returns a viper instance with defaults, environment binding and
// the config file loaded. A missing config file is not an error; an
// explicitly named one that cannot be read is.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("schemadraft")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.schemadraft")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load resolves a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Server: Server{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			CORSOrigins:     splitList(v.GetStringSlice("server.cors_origins")),
			RateLimit:       v.GetInt("server.rate_limit"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Store: Store{
			DataDir: v.GetString("store.data_dir"),
		},
		Provider: provider.Settings{
			Kind:    strings.ToLower(v.GetString("provider.kind")),
			URL:     v.GetString("provider.url"),
			APIKey:  v.GetString("provider.api_key"),
			Model:   v.GetString("provider.model"),
			Timeout: v.GetDuration("provider.timeout"),
		},
		Canvas: layout.Canvas{
			Width:      v.GetFloat64("layout.width"),
			Height:     v.GetFloat64("layout.height"),
			NodeWidth:  v.GetFloat64("layout.node_width"),
			TopPadding: v.GetFloat64("layout.top_padding"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}

	switch c.Provider.Kind {
	case "", provider.KindNone, provider.KindGemini, provider.KindOpenAI:
	case provider.KindEndpoint:
		if c.Provider.URL == "" {
			return fmt.Errorf("provider.url is required for provider.kind %q", c.Provider.Kind)
		}
	default:
		return fmt.Errorf("unknown provider.kind %q (want http, gemini, openai or none)", c.Provider.Kind)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive")
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("layout.width and layout.height must be positive")
	}
	if c.Canvas.NodeWidth <= 0 || c.Canvas.NodeWidth > c.Canvas.Width {
		return fmt.Errorf("layout.node_width must be positive and fit the canvas width")
	}
	return nil
}

// splitList accepts both YAML lists and comma-separated environment values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
