package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	commoncfg "github.com/duaragha/cat-tracker-sub000/common/config"
)

// Config cat-tracker-api (REST API) settings.
type Config struct {
	HTTP struct {
		Addr         string        `yaml:"addr" env:"HTTP_ADDR" env-default:":3001"`
		ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
		WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	} `yaml:"http"`
	Database     commoncfg.DatabaseConfig `yaml:"database"`
	// MemoryStore keeps everything in process memory; nothing survives a restart.
	MemoryStore  bool                     `yaml:"memory_store" env:"MEMORY_STORE" env-default:"false"`
	Redis        commoncfg.RedisConfig    `yaml:"redis"`
	// ChangeStream is the Redis stream every write is appended to when Redis is enabled.
	ChangeStream string                   `yaml:"change_stream" env:"CHANGE_STREAM" env-default:"cat-tracker:changes"`
	MQTT         commoncfg.MQTTConfig     `yaml:"mqtt"`
	Log          commoncfg.LogConfig      `yaml:"log"`
}

// ClientConfig cat-tracker (offline-first client) settings.
type ClientConfig struct {
	Server  string `yaml:"server" env:"CAT_TRACKER_SERVER" env-default:"http://localhost:3001"`
	DataDir string `yaml:"data_dir" env:"CAT_TRACKER_DATA_DIR"`
	// CacheBackend is "file" (default) or "redis".
	CacheBackend string `yaml:"cache_backend" env:"CACHE_BACKEND" env-default:"file"`

	SyncDebounce   time.Duration `yaml:"sync_debounce" env:"SYNC_DEBOUNCE" env-default:"2s"`
	SyncInterval   time.Duration `yaml:"sync_interval" env:"SYNC_INTERVAL" env-default:"30s"`
	ProbeInterval  time.Duration `yaml:"probe_interval" env:"PROBE_INTERVAL" env-default:"10s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"10s"`

	Redis commoncfg.RedisConfig `yaml:"redis"`
	MQTT  commoncfg.MQTTConfig  `yaml:"mqtt"`
	Log   commoncfg.LogConfig   `yaml:"log"`
}

// Load reads the server config from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg, nil
}

// LoadClient reads the client config. A YAML file at path is applied first when
// it exists; environment variables override it.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return cfg.withDefaults()
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg.withDefaults()
}

func (c *ClientConfig) withDefaults() (*ClientConfig, error) {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		c.DataDir = filepath.Join(home, ".cat-tracker")
	}
	switch c.CacheBackend {
	case "file", "redis":
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q (use file or redis)", c.CacheBackend)
	}
	return c, nil
}

// CacheDir holds the local cache files when CacheBackend is "file".
func (c *ClientConfig) CacheDir() string {
	return filepath.Join(c.DataDir, "cache")
}
