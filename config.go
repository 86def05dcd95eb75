package ygggo_mysqlx

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"
)

// Environment variables read by applyEnv. Values set in the environment
// override the corresponding Config fields.
const (
	EnvDriver             = "YGGGO_MYSQLX_DRIVER"
	EnvDSN                = "YGGGO_MYSQLX_DSN"
	EnvHost               = "YGGGO_MYSQLX_HOST"
	EnvPort               = "YGGGO_MYSQLX_PORT"
	EnvUsername           = "YGGGO_MYSQLX_USERNAME"
	EnvPassword           = "YGGGO_MYSQLX_PASSWORD"
	EnvDatabase           = "YGGGO_MYSQLX_DATABASE"
	EnvSlowQueryThreshold = "YGGGO_MYSQLX_SLOW_QUERY_THRESHOLD"
	EnvStmtCacheSize      = "YGGGO_MYSQLX_STMT_CACHE_SIZE"
	EnvLenientNamed       = "YGGGO_MYSQLX_LENIENT_NAMED"
)

// PoolConfig holds database/sql pool settings.
type PoolConfig struct {
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Config holds library configuration.
type Config struct {
	// Driver allows overriding the sql driver (e.g., "mysql" in prod, "sqlite" in tests).
	Driver string
	DSN    string
	// Field-based DSN building (used when DSN is empty)
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Params   map[string]string
	Pool     PoolConfig

	Logging   LoggingConfig
	Telemetry TelemetryConfig
	Metrics   MetricsConfig

	// SlowQueryThreshold marks executions slower than this as slow in the logs.
	SlowQueryThreshold time.Duration
	// StmtCacheSize enables a per-connection cache of prepared statements.
	StmtCacheSize int
	// LenientNamed skips named placeholders that have no value instead of
	// failing the bind.
	LenientNamed bool
}

// dsnFromConfig returns a DSN string.
// Priority: if Config.DSN is non-empty, return it unchanged.
// Otherwise build from host/port/username/password/database/params.
func dsnFromConfig(c Config) (string, error) {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN, nil
	}
	if c.Host == "" {
		return "", fmt.Errorf("config: neither DSN nor Host set")
	}
	mc := mysql.NewConfig()
	mc.User = c.Username
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.Host
	if c.Port > 0 {
		mc.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	mc.DBName = c.Database
	for k, v := range c.Params {
		switch k {
		case "parseTime":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return "", fmt.Errorf("config: parseTime: %w", err)
			}
			mc.ParseTime = b
		default:
			if mc.Params == nil {
				mc.Params = make(map[string]string, len(c.Params))
			}
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN(), nil
}

// applyEnv overlays YGGGO_MYSQLX_* environment variables onto cfg.
// Malformed numeric values are ignored.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDriver); v != "" {
		cfg.Driver = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv(EnvSlowQueryThreshold); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SlowQueryThreshold = d
		}
	}
	if v := os.Getenv(EnvStmtCacheSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StmtCacheSize = n
		}
	}
	if v := os.Getenv(EnvLenientNamed); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LenientNamed = b
		}
	}
}
