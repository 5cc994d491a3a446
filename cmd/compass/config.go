package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/compass/pkg/logger"
	"github.com/dmitrymomot/compass/pkg/routepattern"
)

var (
	errNoRoutes        = errors.New("config: no routes declared")
	errInvalidRoute    = errors.New("config: invalid route")
	errInvalidLogLevel = errors.New("config: invalid log level")
	errInvalidPath     = errors.New("config: server paths must start with /")
)

// Config is the YAML configuration shared by all commands.
type Config struct {
	Sentry logger.SentryConfig `yaml:"sentry"`
	Log    LogConfig           `yaml:"log"`
	Server ServerConfig        `yaml:"server"`
	Routes []RouteConfig       `yaml:"routes"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	SocketPath      string        `yaml:"socket_path"`
	MetricsPath     string        `yaml:"metrics_path"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures the command logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RouteConfig declares one route of the served app.
type RouteConfig struct {
	Pattern    string   `yaml:"pattern"`
	Controller string   `yaml:"controller"`
	Redirect   string   `yaml:"redirect"`
	Actions    []string `yaml:"actions"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			SocketPath:      "/history",
			MetricsPath:     "/metrics",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logger.FormatJSON,
		},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	for i := range cfg.Routes {
		if len(cfg.Routes[i].Actions) == 0 {
			cfg.Routes[i].Actions = []string{"index"}
		}
	}
	return cfg, nil
}

// Validate checks the log level and server paths and compiles every route
// pattern.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, c.Log.Level)
	}

	var errs []error
	for _, p := range []string{c.Server.SocketPath, c.Server.MetricsPath} {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("%w: %q", errInvalidPath, p))
		}
	}
	for i, r := range c.Routes {
		if r.Controller == "" {
			errs = append(errs, fmt.Errorf("%w: routes[%d] %q has no controller", errInvalidRoute, i, r.Pattern))
		}
		if _, err := routepattern.Compile(r.Pattern); err != nil {
			errs = append(errs, fmt.Errorf("%w: routes[%d]: %w", errInvalidRoute, i, err))
		}
	}
	return errors.Join(errs...)
}
