// Package config loads the client configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPort is the port used when neither the file, the environment nor
// the command line names one.
const DefaultPort = 4711

// Config is the root of config.yaml.
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Maps       MapsConfig       `yaml:"maps"`
	Map        MapConfig        `yaml:"map"`
	Logging    LoggingConfig    `yaml:"logging"`
	Scripts    ScriptsConfig    `yaml:"scripts"`
}

type ConnectionConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Transport string `yaml:"transport"`
	URL       string `yaml:"url"`
	Charset   string `yaml:"charset"`
	Insecure  bool   `yaml:"insecure_skip_verify"`
}

type MapsConfig struct {
	Dir string `yaml:"dir"`
}

// MapConfig sets the map pane layout in terminal columns.
type MapConfig struct {
	CellSize    int  `yaml:"cell_size"`
	CellSpacing int  `yaml:"cell_spacing"`
	Open        bool `yaml:"open"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type ScriptsConfig struct {
	Triggers string `yaml:"triggers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Connection: ConnectionConfig{
			Port:      DefaultPort,
			Transport: "tcp",
			Charset:   "utf-8",
		},
		Map: MapConfig{
			CellSize:    1,
			CellSpacing: 1,
			Open:        true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var (
	lookupEnv     = os.LookupEnv
	userConfigDir = os.UserConfigDir
)

// DefaultPath returns <user config dir>/SLClient/config.yaml.
func DefaultPath() string {
	dir, err := userConfigDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "SLClient", "config.yaml")
}

// Load reads path over the defaults and applies SLCLIENT_* overrides. A
// missing file is not an error when path was not given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv("SLCLIENT_HOST"); ok && strings.TrimSpace(v) != "" {
		c.Connection.Host = strings.TrimSpace(v)
	}
	if v, ok := lookupEnv("SLCLIENT_PORT"); ok && strings.TrimSpace(v) != "" {
		port, err := ParsePort(v)
		if err != nil {
			return fmt.Errorf("SLCLIENT_PORT: %w", err)
		}
		c.Connection.Port = port
	}
	if v, ok := lookupEnv("SLCLIENT_MAPS_DIR"); ok && strings.TrimSpace(v) != "" {
		c.Maps.Dir = strings.TrimSpace(v)
	}
	if v, ok := lookupEnv("SLCLIENT_LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		c.Logging.Level = strings.TrimSpace(v)
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Connection.Port <= 0 {
		c.Connection.Port = def.Connection.Port
	}
	if strings.TrimSpace(c.Connection.Transport) == "" {
		c.Connection.Transport = def.Connection.Transport
	}
	if strings.TrimSpace(c.Connection.Charset) == "" {
		c.Connection.Charset = def.Connection.Charset
	}
	if c.Map.CellSize <= 0 {
		c.Map.CellSize = def.Map.CellSize
	}
	if c.Map.CellSpacing < 0 {
		c.Map.CellSpacing = def.Map.CellSpacing
	}
}

// ParsePort validates a TCP port number.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}
