package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Log      LogConfig      `mapstructure:"log"`
	Output   OutputConfig   `mapstructure:"output"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Serve    ServeConfig    `mapstructure:"serve"`
}

// ServiceConfig locates the inspection service.
type ServiceConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Slice     time.Duration `mapstructure:"slice"`
	ReadLimit int64         `mapstructure:"read_limit"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// OutputConfig holds presentation settings.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Pretty bool   `mapstructure:"pretty"`
}

// SnapshotConfig holds where captured trees are saved for later diffing.
type SnapshotConfig struct {
	Dir    string        `mapstructure:"dir"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

// ServeConfig holds MCP server settings.
type ServeConfig struct {
	Transport string        `mapstructure:"transport"`
	Port      int           `mapstructure:"port"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// flagKeys maps persistent command-line flags to config keys.
var flagKeys = map[string]string{
	"url":       "service.url",
	"timeout":   "service.timeout",
	"log-level": "log.level",
	"format":    "output.format",
	"pretty":    "output.pretty",
}

// Path returns the config file location: $INSPECTOR_CONFIG or
// ~/.config/inspector-cli/config.yaml.
func Path() string {
	if p := os.Getenv("INSPECTOR_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "inspector-cli", "config.yaml")
}

// Load reads configuration from defaults, the config file, env and flags, in
// increasing precedence. Env var overrides use prefix INSPECTOR_. flags may
// be nil; only flags that were set override the other sources. A set
// --config flag replaces Path().
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault("service.url", "ws://localhost:38301/")
	v.SetDefault("service.timeout", 10*time.Second)
	v.SetDefault("service.slice", 2*time.Second)
	v.SetDefault("service.read_limit", int64(64<<20))
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.json", false)
	v.SetDefault("output.format", "yaml")
	v.SetDefault("output.pretty", false)
	v.SetDefault("snapshot.dir", filepath.Join(os.TempDir(), "inspector-cli"))
	v.SetDefault("snapshot.max_age", time.Hour)
	v.SetDefault("serve.transport", "stdio")
	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.cache_ttl", 500*time.Millisecond)

	path := Path()
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Changed {
			path = f.Value.String()
		}
	}
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("INSPECTOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing file is fine; SetConfigFile reports it as an fs error.
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
