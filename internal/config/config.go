// Package config builds the immutable runtime configuration for homedash.
//
// Values come from (lowest to highest precedence) built-in defaults, a config
// file, the environment (NODE_ENV, PORT, BASE) and command-line flags. The
// resulting Config is constructed once at startup and never mutated.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Mode selects the rendering pipeline for the lifetime of the process.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// Defaults
const (
	DefaultHost       = "localhost"
	DefaultPort       = 3001
	DefaultBase       = "/"
	DefaultRoot       = "."
	DefaultPublicDir  = "public"
	DefaultConfigFile = "config.json"
	DefaultDBURL      = "homedash.db"
)

// ErrInvalidConfig is returned when a configuration value fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the process-wide configuration.
type Config struct {
	Mode Mode
	Host string
	Port int
	// Base is the URL prefix the application is mounted under. Always starts
	// and ends with a slash.
	Base string
	// Root is the project directory holding index.html, src/ and dist/.
	Root      string
	PublicDir string

	DBURL    string
	DBToken  string
	DBDriver string
}

// File is the on-disk config file shape.
type File struct {
	DBURL    string `yaml:"db_url" toml:"db_url"`
	DBToken  string `yaml:"db_token" toml:"db_token"`
	DBDriver string `yaml:"db_driver" toml:"db_driver"`
}

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Mode:      ModeDevelopment,
		Host:      DefaultHost,
		Port:      DefaultPort,
		Base:      DefaultBase,
		Root:      DefaultRoot,
		PublicDir: DefaultPublicDir,
		DBURL:     DefaultDBURL,
	}
}

// ParseMode maps a NODE_ENV style value onto a Mode. Only "production"
// selects production; every other value means development.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeProduction)) {
		return ModeProduction
	}
	return ModeDevelopment
}

// LoadFile reads a config file. JSON and YAML are parsed with yaml.v3 and
// TOML with go-toml. A missing file returns an empty File and no error when
// optional is true.
func LoadFile(path string, optional bool) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return f, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return f, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case ".json", ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return f, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		return f, fmt.Errorf("%w: unsupported config file extension %q", ErrInvalidConfig, filepath.Ext(path))
	}
	return f, nil
}

// Apply merges non-empty file values into the config.
func (c *Config) Apply(f File) {
	if f.DBURL != "" {
		c.DBURL = f.DBURL
	}
	if f.DBToken != "" {
		c.DBToken = f.DBToken
	}
	if f.DBDriver != "" {
		c.DBDriver = f.DBDriver
	}
}

// ApplyEnv merges NODE_ENV, PORT and BASE using lookup (normally os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("NODE_ENV"); ok {
		c.Mode = ParseMode(v)
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT %q is not a number", ErrInvalidConfig, v)
		}
		c.Port = port
	}
	if v, ok := lookup("BASE"); ok && v != "" {
		c.Base = v
	}
	return nil
}

// Validate checks the config and normalises the base path.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeDevelopment, ModeProduction:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.DBURL == "" {
		return fmt.Errorf("%w: db_url is required", ErrInvalidConfig)
	}
	c.Base = NormalizeBase(c.Base)
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	if c.PublicDir == "" {
		c.PublicDir = DefaultPublicDir
	}
	return nil
}

// NormalizeBase returns base with exactly one leading and one trailing slash.
func NormalizeBase(base string) string {
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return "/"
	}
	return "/" + base + "/"
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the production pipeline is selected.
func (c Config) IsProduction() bool {
	return c.Mode == ModeProduction
}

// Project paths, relative to Root.
func (c Config) IndexHTMLPath() string { return filepath.Join(c.Root, "index.html") }
func (c Config) DevEntryPath() string  { return filepath.Join(c.Root, "src", "entry-server.go") }
func (c Config) SourceDir() string     { return filepath.Join(c.Root, "src") }
func (c Config) ClientDistDir() string { return filepath.Join(c.Root, "dist", "client") }
func (c Config) ProdTemplatePath() string {
	return filepath.Join(c.ClientDistDir(), "index.html")
}
func (c Config) ManifestPath() string {
	return filepath.Join(c.ClientDistDir(), ".vite", "ssr-manifest.json")
}
func (c Config) ProdEntryPath() string {
	return filepath.Join(c.Root, "dist", "server", "entry-server.go")
}
func (c Config) PublicPath() string {
	if filepath.IsAbs(c.PublicDir) {
		return c.PublicDir
	}
	return filepath.Join(c.Root, c.PublicDir)
}
