package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nestview/nestview/pkg/cache"
	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/hypergraph"
	"github.com/nestview/nestview/pkg/viewstore"
)

// =============================================================================
// Config
// =============================================================================

// Config is the TOML configuration shared by the CLI and the server.
type Config struct {
	Server ServerConfig `toml:"server"`
	Layout LayoutConfig `toml:"layout"`
	Views  ViewsConfig  `toml:"views"`
	Cache  CacheConfig  `toml:"cache"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LayoutConfig sets the default engine and the dimension parameters
// of the graph state core.
type LayoutConfig struct {
	Engine            string  `toml:"engine"`
	CollapsedWidth    float64 `toml:"collapsed_width"`
	CollapsedHeight   float64 `toml:"collapsed_height"`
	MinExpandedWidth  float64 `toml:"min_expanded_width"`
	MinExpandedHeight float64 `toml:"min_expanded_height"`
	LabelHeight       float64 `toml:"label_height"`
	Padding           float64 `toml:"padding"`
}

// ViewsConfig selects and configures the saved-view backend.
type ViewsConfig struct {
	// Backend is one of "memory", "file", "redis", "mongo".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Empty uses the user
	// config dir.
	Dir string `toml:"dir"`

	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

// RedisConfig configures the redis view backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	TTLHours int    `toml:"ttl_hours"`
}

// MongoConfig configures the mongo view backend.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// CacheConfig selects the server's layout cache backend.
type CacheConfig struct {
	// Backend is one of "memory", "file", "none".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Empty uses the user
	// cache dir.
	Dir string `toml:"dir"`
}

// defaultConfig returns the built-in configuration.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Layout: LayoutConfig{Engine: "grid"},
		Views:  ViewsConfig{Backend: "file"},
		Cache:  CacheConfig{Backend: "memory"},
	}
}

// loadConfig reads the TOML config file. An empty path checks the
// default location (<user config dir>/nestview/config.toml) and falls
// back to the built-in defaults when no file exists.
func (c *CLI) loadConfig() (Config, error) {
	cfg := defaultConfig()

	path := c.configPath
	if path == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(cfgDir, appName, "config.toml")
		if _, err := os.Stat(path); err != nil {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	return cfg, nil
}

// graphConfig maps the layout section onto the state core's dimension
// config, keeping defaults for unset fields.
func (cfg Config) graphConfig() hypergraph.Config {
	gc := hypergraph.DefaultConfig()
	if cfg.Layout.CollapsedWidth > 0 {
		gc.CollapsedWidth = cfg.Layout.CollapsedWidth
	}
	if cfg.Layout.CollapsedHeight > 0 {
		gc.CollapsedHeight = cfg.Layout.CollapsedHeight
	}
	if cfg.Layout.MinExpandedWidth > 0 {
		gc.MinExpandedWidth = cfg.Layout.MinExpandedWidth
	}
	if cfg.Layout.MinExpandedHeight > 0 {
		gc.MinExpandedHeight = cfg.Layout.MinExpandedHeight
	}
	if cfg.Layout.LabelHeight > 0 {
		gc.LabelHeight = cfg.Layout.LabelHeight
	}
	if cfg.Layout.Padding > 0 {
		gc.Padding = cfg.Layout.Padding
	}
	return gc
}

// openViewStore builds the configured saved-view backend.
func (cfg Config) openViewStore(ctx context.Context) (viewstore.Store, error) {
	switch cfg.Views.Backend {
	case "", "memory":
		return viewstore.NewMemoryStore(), nil
	case "file":
		return viewstore.NewFileStore(cfg.Views.Dir)
	case "redis":
		return viewstore.NewRedisStore(ctx, viewstore.RedisConfig{
			Addr:     cfg.Views.Redis.Addr,
			Password: cfg.Views.Redis.Password,
			DB:       cfg.Views.Redis.DB,
			TTL:      time.Duration(cfg.Views.Redis.TTLHours) * time.Hour,
		})
	case "mongo":
		return viewstore.NewMongoStore(ctx, viewstore.MongoConfig{
			URI:        cfg.Views.Mongo.URI,
			Database:   cfg.Views.Mongo.Database,
			Collection: cfg.Views.Mongo.Collection,
		})
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown view backend %q", cfg.Views.Backend)
	}
}

// openLayoutCache builds the configured layout cache backend.
func (cfg Config) openLayoutCache() (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		return cache.NewMemoryCache(), nil
	case "none":
		return cache.NewNullCache(), nil
	case "file":
		dir := cfg.Cache.Dir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeStorage, err, "resolve cache dir")
			}
			dir = filepath.Join(base, appName)
		}
		return cache.NewFileCache(dir)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown cache backend %q", cfg.Cache.Backend)
	}
}
