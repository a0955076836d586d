package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sliceline/sliceline/internal/authz"
	"github.com/sliceline/sliceline/internal/platform/db"
	"github.com/sliceline/sliceline/internal/shared"
)

// Repository defines persistence operations for user accounts.
type Repository interface {
	AddUser(ctx context.Context, nu NewUser) (User, error)
	GetUser(ctx context.Context, email, password string) (User, error)
	UpdateUser(ctx context.Context, userID int64, email, password string) (User, error)
}

// PGRepository implements Repository against the pooled Postgres connections.
type PGRepository struct {
	pool   *db.Pool
	logger *slog.Logger
	creds  Credentials
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *db.Pool, logger *slog.Logger, creds Credentials) *PGRepository {
	return &PGRepository{pool: pool, logger: logger, creds: creds}
}

// AddUser hashes the password, inserts the account, and writes every
// requested role grant on a single connection.
func (r *PGRepository) AddUser(ctx context.Context, nu NewUser) (User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return User{}, err
	}
	defer r.pool.Release(conn)
	return r.AddUserWithConn(ctx, conn, nu)
}

// AddUserWithConn is AddUser against an already-acquired connection. The
// schema bootstrap uses it to seed the default administrator before the pool
// serves its first caller.
func (r *PGRepository) AddUserWithConn(ctx context.Context, conn db.Conn, nu NewUser) (User, error) {
	hashed, err := r.creds.Hash(nu.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	var userID int64
	r.logQuery(`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id`)
	err = conn.QueryRow(ctx,
		`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id`,
		nu.Name, nu.Email, hashed).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("%w: email already in use", shared.ErrConflict)
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	grants := make([]authz.RoleGrant, 0, len(nu.Roles))
	for _, spec := range nu.Roles {
		var objectID int64
		if spec.Role == authz.RoleFranchisee {
			objectID, err = r.franchiseIDByName(ctx, conn, spec.Object)
			if err != nil {
				return User{}, err
			}
		}
		r.logQuery(`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3)`)
		if _, err := conn.Exec(ctx,
			`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3)`,
			userID, string(spec.Role), objectID); err != nil {
			return User{}, fmt.Errorf("insert role grant: %w", err)
		}
		grants = append(grants, authz.RoleGrant{Role: spec.Role, ObjectID: objectID})
	}

	return User{ID: userID, Name: nu.Name, Email: nu.Email, Roles: grants}, nil
}

// GetUser authenticates by email and password. A missing account and a wrong
// password surface as the same "unknown user" failure.
func (r *PGRepository) GetUser(ctx context.Context, email, password string) (User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return User{}, err
	}
	defer r.pool.Release(conn)

	var (
		user   User
		hashed string
	)
	r.logQuery(`SELECT id, name, email, password FROM users WHERE email = $1`)
	err = conn.QueryRow(ctx,
		`SELECT id, name, email, password FROM users WHERE email = $1`,
		email).Scan(&user.ID, &user.Name, &user.Email, &hashed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("%w: unknown user", shared.ErrNotFound)
		}
		return User{}, fmt.Errorf("select user: %w", err)
	}
	if !r.creds.Compare(hashed, password) {
		return User{}, fmt.Errorf("%w: unknown user", shared.ErrNotFound)
	}

	user.Roles, err = r.rolesWithConn(ctx, conn, user.ID)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateUser changes the email and/or password of an account. Empty fields
// are left untouched.
func (r *PGRepository) UpdateUser(ctx context.Context, userID int64, email, password string) (User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return User{}, err
	}
	defer r.pool.Release(conn)

	var user User
	r.logQuery(`SELECT id, name, email FROM users WHERE id = $1`)
	err = conn.QueryRow(ctx,
		`SELECT id, name, email FROM users WHERE id = $1`,
		userID).Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("%w: unknown user", shared.ErrNotFound)
		}
		return User{}, fmt.Errorf("select user: %w", err)
	}

	if email != "" {
		r.logQuery(`UPDATE users SET email = $1 WHERE id = $2`)
		if _, err := conn.Exec(ctx, `UPDATE users SET email = $1 WHERE id = $2`, email, userID); err != nil {
			if isUniqueViolation(err) {
				return User{}, fmt.Errorf("%w: email already in use", shared.ErrConflict)
			}
			return User{}, fmt.Errorf("update email: %w", err)
		}
		user.Email = email
	}
	if password != "" {
		hashed, err := r.creds.Hash(password)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		r.logQuery(`UPDATE users SET password = $1 WHERE id = $2`)
		if _, err := conn.Exec(ctx, `UPDATE users SET password = $1 WHERE id = $2`, hashed, userID); err != nil {
			return User{}, fmt.Errorf("update password: %w", err)
		}
	}

	user.Roles, err = r.rolesWithConn(ctx, conn, user.ID)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *PGRepository) rolesWithConn(ctx context.Context, conn db.Conn, userID int64) ([]authz.RoleGrant, error) {
	r.logQuery(`SELECT role, object_id FROM user_roles WHERE user_id = $1`)
	rows, err := conn.Query(ctx, `SELECT role, object_id FROM user_roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("select roles: %w", err)
	}
	defer rows.Close()

	var grants []authz.RoleGrant
	for rows.Next() {
		var (
			role     string
			objectID int64
		)
		if err := rows.Scan(&role, &objectID); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		grants = append(grants, authz.RoleGrant{Role: authz.Role(role), ObjectID: objectID})
	}
	return grants, rows.Err()
}

func (r *PGRepository) franchiseIDByName(ctx context.Context, conn db.Conn, name string) (int64, error) {
	var id int64
	r.logQuery(`SELECT id FROM franchises WHERE name = $1`)
	err := conn.QueryRow(ctx, `SELECT id FROM franchises WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: unknown franchise %q", shared.ErrNotFound, name)
		}
		return 0, fmt.Errorf("select franchise: %w", err)
	}
	return id, nil
}

func (r *PGRepository) logQuery(sql string) {
	if r.logger != nil {
		r.logger.Debug("db query", slog.String("query", sql))
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
