// Package db owns the process-wide connection pool and its schema bootstrap.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sliceline/sliceline/internal/shared"
)

// Conn is the subset of *pgx.Conn the repositories use. Keeping it an
// interface lets the pool be exercised without a live server.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// DialFunc opens a new raw connection.
type DialFunc func(ctx context.Context) (Conn, error)

// InitFunc runs once against the bootstrap connection after the schema has
// been created and selected. schemaExisted reports whether the schema was
// already present; table creation and first-run seeding key off it.
type InitFunc func(ctx context.Context, conn Conn, schemaExisted bool) error

// Config carries the pool's connection settings.
type Config struct {
	DSN    string
	Schema string
}

// Pool hands out reusable connections. Initialization is lazy: the first
// Acquire triggers the schema bootstrap, and every caller waits on it.
//
// The pool has no upper bound and performs no health check on reuse; a
// connection that went stale while idle is only discovered when a query
// against it fails. That is an accepted weakness, not an invariant to fix
// here.
type Pool struct {
	dial   DialFunc
	schema string
	initFn InitFunc
	logger *slog.Logger

	initOnce sync.Once
	initErr  error

	mu     sync.Mutex
	idle   []Conn
	closed bool
}

// New constructs a pool that dials Postgres with the configured DSN.
func New(cfg Config, logger *slog.Logger, initFn InitFunc) *Pool {
	dsn := cfg.DSN
	return &Pool{
		dial: func(ctx context.Context) (Conn, error) {
			return pgx.Connect(ctx, dsn)
		},
		schema: cfg.Schema,
		initFn: initFn,
		logger: logger,
	}
}

// NewWithDial constructs a pool around a custom dialer.
func NewWithDial(dial DialFunc, schema string, logger *slog.Logger, initFn InitFunc) *Pool {
	return &Pool{dial: dial, schema: schema, initFn: initFn, logger: logger}
}

// Acquire returns an idle connection if one is available, else opens a new
// one. The first call runs the schema bootstrap; if that fails the pool is
// permanently unusable and every caller sees ErrInfrastructure.
func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	p.initOnce.Do(func() {
		p.initErr = p.initialize(ctx)
	})
	if p.initErr != nil {
		return nil, fmt.Errorf("%w: pool initialization failed: %v", shared.ErrInfrastructure, p.initErr)
	}

	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		conn := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	conn, err := p.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", shared.ErrInfrastructure, err)
	}
	if _, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{p.schema}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("%w: select schema: %v", shared.ErrInfrastructure, err)
	}
	return conn, nil
}

// Release returns a connection to the idle set. It never closes the
// connection unless the pool has already been shut down.
func (p *Pool) Release(conn Conn) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = conn.Close(context.Background())
		return
	}
	p.idle = append(p.idle, conn)
	p.mu.Unlock()
}

// CloseAll drains the idle set and closes every connection. Connections still
// checked out are closed when they are released.
func (p *Pool) CloseAll(ctx context.Context) error {
	p.mu.Lock()
	conns := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	var firstErr error
	for _, conn := range conns {
		if err := conn.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Pool) initialize(ctx context.Context) error {
	conn, err := p.dial(ctx)
	if err != nil {
		p.logger.Error("could not connect to backing store, most data operations will fail",
			slog.Any("error", err))
		return err
	}

	ident := pgx.Identifier{p.schema}.Sanitize()

	var exists bool
	err = conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`,
		p.schema).Scan(&exists)
	if err == nil {
		p.logger.Info("schema check", slog.String("schema", p.schema), slog.Bool("exists", exists))
		_, err = conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident)
	}
	if err == nil {
		_, err = conn.Exec(ctx, "SET search_path TO "+ident)
	}
	if err == nil && p.initFn != nil {
		err = p.initFn(ctx, conn, exists)
	}
	if err != nil {
		_ = conn.Close(ctx)
		p.logger.Error("schema bootstrap failed, pool is unusable",
			slog.String("schema", p.schema), slog.Any("error", err))
		return err
	}

	p.Release(conn)
	return nil
}
