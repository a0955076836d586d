package franchise

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

// Repository defines persistence operations for franchises and stores.
type Repository interface {
	ListSummaries(ctx context.Context) ([]Summary, error)
	ListDetailed(ctx context.Context) ([]Franchise, error)
	GetDetail(ctx context.Context, franchiseID int64) (Franchise, error)
	UserFranchises(ctx context.Context, userID int64) ([]Franchise, error)
	Create(ctx context.Context, nf NewFranchise) (Franchise, error)
	Delete(ctx context.Context, franchiseID int64) error
	CreateStore(ctx context.Context, franchiseID int64, name string) (Store, error)
	DeleteStore(ctx context.Context, franchiseID, storeID int64) error
}

// PGRepository implements Repository against the pooled Postgres connections.
// Every exported operation acquires exactly one connection and releases it on
// every exit path; internal helpers run on the caller's connection.
type PGRepository struct {
	pool   *db.Pool
	logger *slog.Logger
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *db.Pool, logger *slog.Logger) *PGRepository {
	return &PGRepository{pool: pool, logger: logger}
}

// ListSummaries returns the public franchise listing.
func (r *PGRepository) ListSummaries(ctx context.Context) ([]Summary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Release(conn)

	ids, names, err := r.franchiseRowsWithConn(ctx, conn)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(ids))
	for i := range ids {
		stores, err := r.storeSummariesWithConn(ctx, conn, ids[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summary{ID: ids[i], Name: names[i], Stores: stores})
	}
	return summaries, nil
}

// ListDetailed returns every franchise with admins and store revenue
// resolved. Admin view only.
func (r *PGRepository) ListDetailed(ctx context.Context) ([]Franchise, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Release(conn)

	ids, names, err := r.franchiseRowsWithConn(ctx, conn)
	if err != nil {
		return nil, err
	}

	franchises := make([]Franchise, 0, len(ids))
	for i := range ids {
		f := Franchise{ID: ids[i], Name: names[i]}
		if err := r.fillDetailWithConn(ctx, conn, &f); err != nil {
			return nil, err
		}
		franchises = append(franchises, f)
	}
	return franchises, nil
}

// GetDetail returns one franchise with admins and store revenue resolved.
func (r *PGRepository) GetDetail(ctx context.Context, franchiseID int64) (Franchise, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return Franchise{}, err
	}
	defer r.pool.Release(conn)

	f := Franchise{ID: franchiseID}
	r.logQuery(`SELECT name FROM franchises WHERE id = $1`)
	err = conn.QueryRow(ctx, `SELECT name FROM franchises WHERE id = $1`, franchiseID).Scan(&f.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Franchise{}, fmt.Errorf("%w: unknown franchise", shared.ErrNotFound)
		}
		return Franchise{}, fmt.Errorf("select franchise: %w", err)
	}
	if err := r.fillDetailWithConn(ctx, conn, &f); err != nil {
		return Franchise{}, err
	}
	return f, nil
}

// UserFranchises returns the detailed franchises the user holds a franchisee
// grant on.
func (r *PGRepository) UserFranchises(ctx context.Context, userID int64) ([]Franchise, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Release(conn)

	r.logQuery(`SELECT object_id FROM user_roles WHERE role = $1 AND user_id = $2`)
	rows, err := conn.Query(ctx,
		`SELECT object_id FROM user_roles WHERE role = $1 AND user_id = $2`,
		string(authz.RoleFranchisee), userID)
	if err != nil {
		return nil, fmt.Errorf("select franchise grants: %w", err)
	}
	var franchiseIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		franchiseIDs = append(franchiseIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(franchiseIDs) == 0 {
		return []Franchise{}, nil
	}

	r.logQuery(`SELECT id, name FROM franchises WHERE id = ANY($1) ORDER BY id`)
	rows, err = conn.Query(ctx, `SELECT id, name FROM franchises WHERE id = ANY($1) ORDER BY id`, franchiseIDs)
	if err != nil {
		return nil, fmt.Errorf("select franchises: %w", err)
	}
	var franchises []Franchise
	for rows.Next() {
		var f Franchise
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan franchise: %w", err)
		}
		franchises = append(franchises, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range franchises {
		if err := r.fillDetailWithConn(ctx, conn, &franchises[i]); err != nil {
			return nil, err
		}
	}
	return franchises, nil
}

// Create inserts a franchise and grants the franchisee role to each named
// admin. Admin emails that resolve to no user fail the whole operation.
func (r *PGRepository) Create(ctx context.Context, nf NewFranchise) (Franchise, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return Franchise{}, err
	}
	defer r.pool.Release(conn)

	admins := make([]Admin, 0, len(nf.AdminEmails))
	for _, email := range nf.AdminEmails {
		var admin Admin
		r.logQuery(`SELECT id, name FROM users WHERE email = $1`)
		err := conn.QueryRow(ctx, `SELECT id, name FROM users WHERE email = $1`, email).Scan(&admin.ID, &admin.Name)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Franchise{}, fmt.Errorf("%w: unknown user for franchise admin %s provided", shared.ErrNotFound, email)
			}
			return Franchise{}, fmt.Errorf("select admin: %w", err)
		}
		admin.Email = email
		admins = append(admins, admin)
	}

	var franchiseID int64
	r.logQuery(`INSERT INTO franchises (name) VALUES ($1) RETURNING id`)
	err = conn.QueryRow(ctx, `INSERT INTO franchises (name) VALUES ($1) RETURNING id`, nf.Name).Scan(&franchiseID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Franchise{}, fmt.Errorf("%w: franchise name already in use", shared.ErrConflict)
		}
		return Franchise{}, fmt.Errorf("insert franchise: %w", err)
	}

	for _, admin := range admins {
		r.logQuery(`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3)`)
		if _, err := conn.Exec(ctx,
			`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3)`,
			admin.ID, string(authz.RoleFranchisee), franchiseID); err != nil {
			return Franchise{}, fmt.Errorf("insert franchisee grant: %w", err)
		}
	}

	return Franchise{ID: franchiseID, Name: nf.Name, Admins: admins, Stores: []Store{}}, nil
}

// Delete removes the franchise, its stores, and its franchisee grants as one
// atomic unit. Any failure rolls the whole sequence back.
func (r *PGRepository) Delete(ctx context.Context, franchiseID int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(conn)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: unable to delete franchise", shared.ErrDependency)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	steps := []struct {
		sql  string
		args []any
	}{
		{`DELETE FROM stores WHERE franchise_id = $1`, []any{franchiseID}},
		{`DELETE FROM user_roles WHERE role = $1 AND object_id = $2`, []any{string(authz.RoleFranchisee), franchiseID}},
		{`DELETE FROM franchises WHERE id = $1`, []any{franchiseID}},
	}
	for _, step := range steps {
		r.logQuery(step.sql)
		if _, err := tx.Exec(ctx, step.sql, step.args...); err != nil {
			return fmt.Errorf("%w: unable to delete franchise", shared.ErrDependency)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: unable to delete franchise", shared.ErrDependency)
	}
	return nil
}

// CreateStore adds a store under the franchise.
func (r *PGRepository) CreateStore(ctx context.Context, franchiseID int64, name string) (Store, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return Store{}, err
	}
	defer r.pool.Release(conn)

	var storeID int64
	r.logQuery(`INSERT INTO stores (franchise_id, name) VALUES ($1, $2) RETURNING id`)
	err = conn.QueryRow(ctx,
		`INSERT INTO stores (franchise_id, name) VALUES ($1, $2) RETURNING id`,
		franchiseID, name).Scan(&storeID)
	if err != nil {
		return Store{}, fmt.Errorf("insert store: %w", err)
	}
	return Store{ID: storeID, FranchiseID: franchiseID, Name: name}, nil
}

// DeleteStore removes a store. Deleting an absent store is a no-op.
func (r *PGRepository) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Release(conn)

	r.logQuery(`DELETE FROM stores WHERE franchise_id = $1 AND id = $2`)
	if _, err := conn.Exec(ctx, `DELETE FROM stores WHERE franchise_id = $1 AND id = $2`, franchiseID, storeID); err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	return nil
}

func (r *PGRepository) franchiseRowsWithConn(ctx context.Context, conn db.Conn) ([]int64, []string, error) {
	r.logQuery(`SELECT id, name FROM franchises ORDER BY id`)
	rows, err := conn.Query(ctx, `SELECT id, name FROM franchises ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("select franchises: %w", err)
	}
	defer rows.Close()

	var (
		ids   []int64
		names []string
	)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, nil, fmt.Errorf("scan franchise: %w", err)
		}
		ids = append(ids, id)
		names = append(names, name)
	}
	return ids, names, rows.Err()
}

func (r *PGRepository) storeSummariesWithConn(ctx context.Context, conn db.Conn, franchiseID int64) ([]StoreSummary, error) {
	r.logQuery(`SELECT id, name FROM stores WHERE franchise_id = $1 ORDER BY id`)
	rows, err := conn.Query(ctx, `SELECT id, name FROM stores WHERE franchise_id = $1 ORDER BY id`, franchiseID)
	if err != nil {
		return nil, fmt.Errorf("select stores: %w", err)
	}
	defer rows.Close()

	stores := []StoreSummary{}
	for rows.Next() {
		var s StoreSummary
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

// fillDetailWithConn resolves admins and store revenue on the caller's
// connection so an outer operation never acquires a second one.
func (r *PGRepository) fillDetailWithConn(ctx context.Context, conn db.Conn, f *Franchise) error {
	r.logQuery(`SELECT u.id, u.name, u.email FROM user_roles ur JOIN users u ON u.id = ur.user_id WHERE ur.object_id = $1 AND ur.role = $2`)
	rows, err := conn.Query(ctx,
		`SELECT u.id, u.name, u.email FROM user_roles ur JOIN users u ON u.id = ur.user_id WHERE ur.object_id = $1 AND ur.role = $2 ORDER BY u.id`,
		f.ID, string(authz.RoleFranchisee))
	if err != nil {
		return fmt.Errorf("select franchise admins: %w", err)
	}
	f.Admins = []Admin{}
	for rows.Next() {
		var admin Admin
		if err := rows.Scan(&admin.ID, &admin.Name, &admin.Email); err != nil {
			rows.Close()
			return fmt.Errorf("scan admin: %w", err)
		}
		f.Admins = append(f.Admins, admin)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	const revenueSQL = `SELECT s.id, s.name, COALESCE(SUM(oi.price), 0) AS total_revenue
		FROM stores s
		LEFT JOIN diner_orders o ON o.store_id = s.id
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE s.franchise_id = $1
		GROUP BY s.id, s.name
		ORDER BY s.id`
	r.logQuery(revenueSQL)
	rows, err = conn.Query(ctx, revenueSQL, f.ID)
	if err != nil {
		return fmt.Errorf("select store revenue: %w", err)
	}
	f.Stores = []Store{}
	for rows.Next() {
		var s Store
		if err := rows.Scan(&s.ID, &s.Name, &s.TotalRevenue); err != nil {
			rows.Close()
			return fmt.Errorf("scan store revenue: %w", err)
		}
		f.Stores = append(f.Stores, s)
	}
	rows.Close()
	return rows.Err()
}

func (r *PGRepository) logQuery(sql string) {
	if r.logger != nil {
		r.logger.Debug("db query", slog.String("query", sql))
	}
}

var _ Repository = (*PGRepository)(nil)
