package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/sliceline/sliceline/internal/platform/db"
)

// SessionRegistry records which tokens are currently honored. Existence of a
// revocation key means the token is live; absence means it was logged out or
// never issued.
type SessionRegistry interface {
	RecordLogin(ctx context.Context, userID int64, revocationKey string) error
	IsActive(ctx context.Context, revocationKey string) (bool, error)
	RecordLogout(ctx context.Context, revocationKey string) error
}

// PGSessionRegistry keeps sessions in the auth_sessions table, optionally
// fronted by a redis write-through cache for the hot IsActive path. The table
// is the source of truth; cache failures are logged and ignored.
type PGSessionRegistry struct {
	pool     *db.Pool
	logger   *slog.Logger
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewSessionRegistry constructs a registry without a cache.
func NewSessionRegistry(pool *db.Pool, logger *slog.Logger) *PGSessionRegistry {
	return &PGSessionRegistry{pool: pool, logger: logger}
}

// WithCache attaches a redis client used as a write-through cache.
func (r *PGSessionRegistry) WithCache(client *redis.Client, ttl time.Duration) *PGSessionRegistry {
	r.cache = client
	r.cacheTTL = ttl
	return r
}

// RecordLogin inserts a session entry. Concurrent logins for the same user
// are independent entries.
func (r *PGSessionRegistry) RecordLogin(ctx context.Context, userID int64, revocationKey string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(conn)

	r.logQuery(`INSERT INTO auth_sessions (token, user_id) VALUES ($1, $2)`)
	if _, err := conn.Exec(ctx,
		`INSERT INTO auth_sessions (token, user_id) VALUES ($1, $2)`,
		revocationKey, userID); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	r.cacheSet(ctx, revocationKey, userID)
	return nil
}

// IsActive reports whether the revocation key maps to a live session. An
// empty key never matches.
func (r *PGSessionRegistry) IsActive(ctx context.Context, revocationKey string) (bool, error) {
	if revocationKey == "" {
		return false, nil
	}
	if r.cacheHit(ctx, revocationKey) {
		return true, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer r.pool.Release(conn)

	var userID int64
	r.logQuery(`SELECT user_id FROM auth_sessions WHERE token = $1`)
	err = conn.QueryRow(ctx, `SELECT user_id FROM auth_sessions WHERE token = $1`, revocationKey).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("session lookup: %w", err)
	}
	r.cacheSet(ctx, revocationKey, userID)
	return true, nil
}

// RecordLogout deletes the session entry. Deleting an absent key is a no-op.
func (r *PGSessionRegistry) RecordLogout(ctx context.Context, revocationKey string) error {
	r.cacheDel(ctx, revocationKey)

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(conn)

	r.logQuery(`DELETE FROM auth_sessions WHERE token = $1`)
	if _, err := conn.Exec(ctx, `DELETE FROM auth_sessions WHERE token = $1`, revocationKey); err != nil {
		return fmt.Errorf("record logout: %w", err)
	}
	return nil
}

func (r *PGSessionRegistry) cacheKey(revocationKey string) string {
	return "session:" + revocationKey
}

func (r *PGSessionRegistry) cacheHit(ctx context.Context, revocationKey string) bool {
	if r.cache == nil {
		return false
	}
	n, err := r.cache.Exists(ctx, r.cacheKey(revocationKey)).Result()
	if err != nil {
		r.logger.Warn("session cache read", slog.Any("error", err))
		return false
	}
	return n > 0
}

func (r *PGSessionRegistry) cacheSet(ctx context.Context, revocationKey string, userID int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, r.cacheKey(revocationKey), strconv.FormatInt(userID, 10), r.cacheTTL).Err(); err != nil {
		r.logger.Warn("session cache write", slog.Any("error", err))
	}
}

func (r *PGSessionRegistry) cacheDel(ctx context.Context, revocationKey string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, r.cacheKey(revocationKey)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		r.logger.Warn("session cache delete", slog.Any("error", err))
	}
}

func (r *PGSessionRegistry) logQuery(sql string) {
	if r.logger != nil {
		r.logger.Debug("db query", slog.String("query", sql))
	}
}

var _ SessionRegistry = (*PGSessionRegistry)(nil)
