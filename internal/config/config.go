// Package config loads taskboard settings. Later sources win:
// defaults, the TOML file, the .env file, TASKBOARD_* variables, then flags
// (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/amirbrooks/taskboard/internal/storage"
	"github.com/amirbrooks/taskboard/internal/store"
)

const (
	DefaultConfigName = "config.toml"
	DefaultEnvFile    = ".env"
	DefaultAddr       = "127.0.0.1:8080"
	envPrefix         = "TASKBOARD_"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Root    string        `toml:"-"`
	File    string        `toml:"-"`
	Storage StorageConfig `toml:"storage"`
	Seed    bool          `toml:"seed"`
	User    string        `toml:"user"`
	Log     LogConfig     `toml:"log"`
	Server  ServerConfig  `toml:"server"`
}

type StorageConfig struct {
	Backend  string `toml:"backend"`
	Path     string `toml:"path"`
	RedisURL string `toml:"redis_url"`
	Key      string `toml:"key"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LoadOptions struct {
	// Root overrides TASKBOARD_ROOT and ~/.taskboard.
	Root string
	// ConfigPath must exist when set. Otherwise <root>/config.toml is read
	// if present.
	ConfigPath string
	// EnvFile defaults to .env in the working directory. A missing file is
	// ignored.
	EnvFile string
}

// Default returns the built-in settings for root.
func Default(root string) *Config {
	return &Config{
		Root: root,
		Storage: StorageConfig{
			Backend: storage.BackendFile,
			Key:     store.DefaultKey,
		},
		Seed: true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	root, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}
	cfg := Default(root)

	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	required := path != ""
	if path == "" {
		path = filepath.Join(root, DefaultConfigName)
	}
	path = expandHome(path)
	if _, err := os.Stat(path); err == nil {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	} else if required {
		return nil, fmt.Errorf("%w: config file %s: %v", ErrInvalid, path, err)
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	c.File = path
	return nil
}

func (c *Config) loadEnv() error {
	if v := os.Getenv(envPrefix + "BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv(envPrefix + "STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(envPrefix + "REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv(envPrefix + "KEY"); v != "" {
		c.Storage.Key = v
	}
	if v := os.Getenv(envPrefix + "SEED"); v != "" {
		b, ok := ParseBool(v)
		if !ok {
			return fmt.Errorf("%w: %sSEED=%q is not a boolean", ErrInvalid, envPrefix, v)
		}
		c.Seed = b
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(envPrefix + "LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(envPrefix + "ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(envPrefix + "USER"); v != "" {
		c.User = strings.TrimSpace(v)
	}
	return nil
}

// Validate rejects settings no backend can open.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	case storage.BackendRedis:
		if strings.TrimSpace(c.Storage.RedisURL) == "" {
			return fmt.Errorf("%w: storage.redis_url is required for the redis backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: storage.backend %q (want file, sqlite, redis or memory)", ErrInvalid, c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("%w: storage.key is empty", ErrInvalid)
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", "text", "json", "logfmt":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// StorageOptions fills in backend paths under the root when none is set.
func (c *Config) StorageOptions() storage.Options {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	path := expandHome(c.Storage.Path)
	if path == "" {
		switch backend {
		case storage.BackendSQLite:
			path = filepath.Join(c.Root, "taskboard.db")
		default:
			path = filepath.Join(c.Root, "data")
		}
	}
	return storage.Options{Backend: backend, Path: path, RedisURL: c.Storage.RedisURL}
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		root = os.Getenv(envPrefix + "ROOT")
	}
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		root = filepath.Join(home, ".taskboard")
	}
	return filepath.Abs(expandHome(root))
}

func expandHome(p string) string {
	p = strings.TrimSpace(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// ParseBool accepts 1/0, true/false, yes/no and on/off.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
