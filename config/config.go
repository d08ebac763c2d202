// Package config loads registry and logging settings from a YAML file.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/pumped-fn/tinystore"
)

type Config struct {
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
}

type StoreConfig struct {
	// RevalidateInterval is the registry-wide revalidation period.
	// A negative value disables revalidation.
	RevalidateInterval time.Duration `yaml:"revalidate_interval"`
}

type LogConfig struct {
	// Level is the minimum level to output ("debug", "info", "warn", "error").
	Level string `yaml:"level"`
	// Format is "text", "json" or "auto". Auto picks text on a terminal.
	Format string `yaml:"format"`
}

// ValidFormats lists the accepted log formats.
var ValidFormats = []string{"text", "json", "auto"}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Store: StoreConfig{
			RevalidateInterval: tinystore.DefaultRevalidateInterval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads a YAML config file on top of the defaults.
// If path is empty, only defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that cannot be repaired by defaults
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	for _, f := range ValidFormats {
		if strings.EqualFold(c.Log.Format, f) {
			return nil
		}
	}
	return fmt.Errorf("invalid log format %q: must be one of %v", c.Log.Format, ValidFormats)
}

// RegistryOptions turns the config into registry options, logging to out
func (c *Config) RegistryOptions(out io.Writer) []tinystore.RegistryOption {
	return []tinystore.RegistryOption{
		tinystore.WithLogger(c.Log.NewLogger(out)),
		tinystore.WithRevalidateInterval(c.Store.RevalidateInterval),
	}
}

// NewLogger builds a logger tagged with the tinystore component
func (c LogConfig) NewLogger(out io.Writer) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(c.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	default:
		if isTerminal(out) {
			logger.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
		} else {
			logger.SetFormatter(&logrus.JSONFormatter{})
		}
	}

	return logger.WithField("component", "tinystore")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
