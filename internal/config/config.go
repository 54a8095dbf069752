// Package config loads tally settings from defaults, an optional
// tally.toml file and TALLY_ prefixed environment variables.
package config

import (
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config holds all configuration for tally.
type Config struct {
	Log      LogConfig
	Output   OutputConfig
	Engine   EngineConfig
	Server   ServerConfig
	Loader   LoaderConfig
	Datasets map[string]string
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

type OutputConfig struct {
	Format  string
	MaxRows int
}

type EngineConfig struct {
	// SpillThreshold is the number of rows from which the partition index
	// is kept in a pebble store. Zero disables spilling.
	SpillThreshold int
	SpillDir       string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoaderConfig struct {
	NAStrings []string
}

// Addr returns the address the API server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Load reads the configuration. If file is empty, tally.toml is searched
// for in the working directory, $HOME/.tally and /etc/tally, and a missing
// file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("tally")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tally/")
		v.AddConfigPath("/etc/tally/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}

	cfg := &Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Output: OutputConfig{
			Format:  v.GetString("output.format"),
			MaxRows: v.GetInt("output.max_rows"),
		},
		Engine: EngineConfig{
			SpillThreshold: v.GetInt("engine.spill_threshold"),
			SpillDir:       v.GetString("engine.spill_dir"),
		},
		Server: ServerConfig{
			Host:         v.GetString("server.host"),
			Port:         v.GetInt("server.port"),
			ReadTimeout:  time.Duration(v.GetInt("server.read_timeout")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("server.write_timeout")) * time.Second,
		},
		Loader: LoaderConfig{
			NAStrings: v.GetStringSlice("loader.na_strings"),
		},
		Datasets: v.GetStringMapString("datasets"),
	}

	if err := cfg.resolveDatasets(v.ConfigFileUsed()); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	v.SetDefault("output.format", "text")
	v.SetDefault("output.max_rows", 20)

	v.SetDefault("engine.spill_threshold", 0)
	v.SetDefault("engine.spill_dir", "")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("loader.na_strings", []string{"NA", ""})
}

// resolveDatasets makes relative dataset paths relative to the config file.
func (c *Config) resolveDatasets(configFile string) error {
	if configFile == "" {
		return nil
	}
	dir := filepath.Dir(configFile)
	for name, path := range c.Datasets {
		if path == "" {
			return errors.Newf("datasets.%s: empty path", name)
		}
		if strings.HasPrefix(path, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path = filepath.Join(home, path[2:])
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		c.Datasets[name] = path
	}
	return nil
}

// DatasetNames returns the names of the configured datasets, sorted.
func (c *Config) DatasetNames() []string {
	names := make([]string, 0, len(c.Datasets))
	for name := range c.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the values that cannot be corrected later.
func (c *Config) Validate() error {
	if c.Output.MaxRows < 0 {
		return errors.Newf("output.max_rows must be positive, got %d", c.Output.MaxRows)
	}
	if c.Engine.SpillThreshold < 0 {
		return errors.Newf("engine.spill_threshold must be positive, got %d", c.Engine.SpillThreshold)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}
