package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Driver names understood by common/database.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig selects and tunes the persistent store.
// A non-empty URL selects PostgreSQL; otherwise the SQLite file at SQLitePath is used.
type DatabaseConfig struct {
	URL        string        `yaml:"url" env:"DATABASE_URL"`
	SQLitePath string        `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"cat-tracker.db"`
	MaxConns   int           `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"10"`
	MaxIdle    int           `yaml:"max_idle" env:"DB_MAX_IDLE" env-default:"2"`
	MaxLife    time.Duration `yaml:"max_life" env:"DB_MAX_LIFE" env-default:"5m"`
}

// Driver reports which SQL dialect the config selects.
func (c *DatabaseConfig) Driver() string {
	if strings.TrimSpace(c.URL) != "" {
		return DriverPostgres
	}
	return DriverSQLite
}

// GetDSN returns the connection string for the selected driver.
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver() == DriverPostgres {
		return c.URL
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", c.SQLitePath)
}

// Redacted returns the DSN with any password stripped, for logging.
func (c *DatabaseConfig) Redacted() string {
	if c.Driver() != DriverPostgres {
		return c.SQLitePath
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return "postgres://<unparseable>"
	}
	return u.Redacted()
}

// RedisConfig Redis connection settings.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// MQTTConfig MQTT broker settings.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled" env:"MQTT_ENABLED" env-default:"false"`
	Broker   string `yaml:"broker" env:"MQTT_BROKER" env-default:"tcp://localhost:1883"`
	ClientID string `yaml:"client_id" env:"MQTT_CLIENT_ID" env-default:"cat-tracker-api"`
	Username string `yaml:"username" env:"MQTT_USERNAME"`
	Password string `yaml:"password" env:"MQTT_PASSWORD"`
	Topic    string `yaml:"topic" env:"MQTT_TOPIC" env-default:"cat-tracker/changes"`
	QoS      byte   `yaml:"qos" env:"MQTT_QOS" env-default:"1"`
}

// LogConfig logger settings shared by both binaries.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	// File enables a rotating log file in addition to stdout (empty = stdout only).
	File string `yaml:"file" env:"LOG_FILE"`
}
