package ygggo_mysqlx

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	// Database file path, use ":memory:" for in-memory database
	Path string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// SQLite-specific settings
	BusyTimeout time.Duration
	JournalMode string // WAL, DELETE, TRUNCATE, PERSIST, MEMORY, OFF
	Synchronous string // FULL, NORMAL, OFF
}

// DefaultSQLiteConfig returns an in-memory configuration. An in-memory
// database lives in a single connection, so the pool is capped at one.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		BusyTimeout:     5 * time.Second,
	}
}

// OpenSQLite opens a SQLite database through modernc.org/sqlite. SQLite uses
// the same ? markers as MySQL, so statements, previews and fetches behave
// alike; cfg supplies the logging, telemetry, metrics and binding settings.
func OpenSQLite(ctx context.Context, sc SQLiteConfig, cfg Config) (*DB, error) {
	db, err := sql.Open("sqlite", buildSQLiteDSN(sc))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	applyPool(db, PoolConfig{
		MaxOpen:         sc.MaxOpenConns,
		MaxIdle:         sc.MaxIdleConns,
		ConnMaxLifetime: sc.ConnMaxLifetime,
		ConnMaxIdleTime: sc.ConnMaxIdleTime,
	})

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	cfg.Driver = "sqlite"
	return &DB{db: db, cfg: cfg}, nil
}

// buildSQLiteDSN builds a modernc.org/sqlite DSN; pragmas are passed as
// repeated _pragma parameters.
func buildSQLiteDSN(sc SQLiteConfig) string {
	pragmas := []string{"foreign_keys(1)"}
	if sc.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", sc.BusyTimeout.Milliseconds()))
	}
	if sc.JournalMode != "" {
		pragmas = append(pragmas, "journal_mode("+strings.ToUpper(sc.JournalMode)+")")
	}
	if sc.Synchronous != "" {
		pragmas = append(pragmas, "synchronous("+strings.ToUpper(sc.Synchronous)+")")
	}

	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	path := sc.Path
	if path == "" {
		path = ":memory:"
	}
	return "file:" + path + "?" + q.Encode()
}
