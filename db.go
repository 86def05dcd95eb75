package ygggo_mysqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/XSAM/otelsql"
	_ "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel/attribute"
)

// DB owns a *sql.DB and hands out Conns bound to single pooled connections.
type DB struct {
	db   *sql.DB
	cfg  Config
	slow *SlowQueryRecorder
}

// Open opens the database described by cfg and verifies it with a ping.
// With telemetry enabled the driver itself is instrumented through otelsql.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = "mysql"
	}
	dsn, err := dsnFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.Telemetry.Enabled {
		db, err = otelsql.Open(cfg.Driver, dsn,
			otelsql.WithAttributes(attribute.String("db.system", cfg.Driver)))
	} else {
		db, err = sql.Open(cfg.Driver, dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	applyPool(db, cfg.Pool)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return &DB{db: db, cfg: cfg}, nil
}

// OpenEnv is Open with YGGGO_MYSQLX_* environment variables applied on top of cfg.
func OpenEnv(ctx context.Context, cfg Config) (*DB, error) {
	applyEnv(&cfg)
	return Open(ctx, cfg)
}

// NewDB wraps an already opened *sql.DB.
func NewDB(db *sql.DB, cfg Config) *DB {
	return &DB{db: db, cfg: cfg}
}

func applyPool(db *sql.DB, pc PoolConfig) {
	if pc.MaxOpen > 0 {
		db.SetMaxOpenConns(pc.MaxOpen)
	}
	if pc.MaxIdle > 0 {
		db.SetMaxIdleConns(pc.MaxIdle)
	}
	if pc.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pc.ConnMaxLifetime)
	}
	if pc.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pc.ConnMaxIdleTime)
	}
}

// Conn acquires a dedicated connection. Closing the Conn returns it to the pool.
func (d *DB) Conn(ctx context.Context) (*Conn, error) {
	if d == nil || d.db == nil {
		return nil, errors.New("nil db")
	}
	sc, err := d.db.Conn(ctx)
	if err != nil {
		return nil, &ConnectionError{Op: "acquire connection", Message: err.Error(), Err: err}
	}
	c := NewConn(sc, d.cfg)
	c.closer = sc
	c.slowQueries = d.slow
	return c, nil
}

// WithConn acquires a connection, calls fn, and always returns the connection.
func (d *DB) WithConn(ctx context.Context, fn func(*Conn) error) error {
	c, err := d.Conn(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// Tx is a Conn running inside a database transaction. Commit and Rollback
// delegate to the driver.
type Tx struct {
	*Conn
	tx *sql.Tx
}

// BeginTx starts a transaction; its statements run on the transaction's connection.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	if d == nil || d.db == nil {
		return nil, errors.New("nil db")
	}
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, &ConnectionError{Op: "begin transaction", Message: err.Error(), Err: err}
	}
	c := NewConn(tx, d.cfg)
	c.slowQueries = d.slow
	return &Tx{Conn: c, tx: tx}, nil
}

// Commit closes cached statements and commits.
func (t *Tx) Commit() error {
	_ = t.Conn.Close()
	return t.tx.Commit()
}

// Rollback closes cached statements and rolls back.
func (t *Tx) Rollback() error {
	_ = t.Conn.Close()
	return t.tx.Rollback()
}

// SetSlowQueryRecorder shares r with every Conn and Tx obtained afterwards.
func (d *DB) SetSlowQueryRecorder(r *SlowQueryRecorder) { d.slow = r }

// Ping verifies the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	if d == nil || d.db == nil {
		return errors.New("nil db")
	}
	return d.db.PingContext(ctx)
}

// DB exposes the underlying *sql.DB.
func (d *DB) DB() *sql.DB { return d.db }

// Close closes the underlying *sql.DB.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
