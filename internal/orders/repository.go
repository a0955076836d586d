package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/sliceline/sliceline/internal/platform/db"
	"github.com/sliceline/sliceline/internal/shared"
)

// Repository defines persistence operations for the menu and diner orders.
type Repository interface {
	Menu(ctx context.Context) ([]MenuItem, error)
	AddMenuItem(ctx context.Context, item MenuItem) (MenuItem, error)
	OrdersForDiner(ctx context.Context, dinerID int64, page int) (OrderPage, error)
	AddDinerOrder(ctx context.Context, dinerID int64, order NewOrder) (Order, error)
}

// PGRepository implements Repository against the pooled Postgres connections.
type PGRepository struct {
	pool        *db.Pool
	logger      *slog.Logger
	listPerPage int
}

// NewRepository constructs a PGRepository. listPerPage is the fixed order
// listing page size.
func NewRepository(pool *db.Pool, logger *slog.Logger, listPerPage int) *PGRepository {
	return &PGRepository{pool: pool, logger: logger, listPerPage: listPerPage}
}

// Menu returns every menu item.
func (r *PGRepository) Menu(ctx context.Context) ([]MenuItem, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Release(conn)

	r.logQuery(`SELECT id, title, description, image, price FROM menu_items ORDER BY id`)
	rows, err := conn.Query(ctx, `SELECT id, title, description, image, price FROM menu_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select menu: %w", err)
	}
	defer rows.Close()

	items := []MenuItem{}
	for rows.Next() {
		var item MenuItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Image, &item.Price); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AddMenuItem inserts a menu item and returns it with its assigned id.
func (r *PGRepository) AddMenuItem(ctx context.Context, item MenuItem) (MenuItem, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return MenuItem{}, err
	}
	defer r.pool.Release(conn)

	r.logQuery(`INSERT INTO menu_items (title, description, image, price) VALUES ($1, $2, $3, $4) RETURNING id`)
	err = conn.QueryRow(ctx,
		`INSERT INTO menu_items (title, description, image, price) VALUES ($1, $2, $3, $4) RETURNING id`,
		item.Title, item.Description, item.Image, item.Price).Scan(&item.ID)
	if err != nil {
		return MenuItem{}, fmt.Errorf("insert menu item: %w", err)
	}
	return item, nil
}

// OrdersForDiner returns one page of the diner's order history. Pages are
// 1-based; a page past the end is an empty sequence.
func (r *PGRepository) OrdersForDiner(ctx context.Context, dinerID int64, page int) (OrderPage, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return OrderPage{}, err
	}
	defer r.pool.Release(conn)

	if page <= 0 {
		page = 1
	}
	offset := shared.Offset(page, r.listPerPage)

	r.logQuery(`SELECT id, franchise_id, store_id, date FROM diner_orders WHERE diner_id = $1 ORDER BY id LIMIT $2 OFFSET $3`)
	rows, err := conn.Query(ctx,
		`SELECT id, franchise_id, store_id, date FROM diner_orders WHERE diner_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		dinerID, r.listPerPage, offset)
	if err != nil {
		return OrderPage{}, fmt.Errorf("select orders: %w", err)
	}
	orders := []Order{}
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.FranchiseID, &order.StoreID, &order.Date); err != nil {
			rows.Close()
			return OrderPage{}, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return OrderPage{}, err
	}

	for i := range orders {
		items, err := r.orderItemsWithConn(ctx, conn, orders[i].ID)
		if err != nil {
			return OrderPage{}, err
		}
		orders[i].Items = items
	}
	return OrderPage{DinerID: dinerID, Orders: orders, Page: page}, nil
}

// AddDinerOrder inserts the order header, then each line after resolving its
// menu item. The sequence runs on one connection but is deliberately not a
// transaction: a failed line leaves the header and earlier lines in place,
// matching the reference behavior of treating fulfillment as best-effort.
func (r *PGRepository) AddDinerOrder(ctx context.Context, dinerID int64, order NewOrder) (Order, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return Order{}, err
	}
	defer r.pool.Release(conn)

	placed := Order{FranchiseID: order.FranchiseID, StoreID: order.StoreID}
	r.logQuery(`INSERT INTO diner_orders (diner_id, franchise_id, store_id, date) VALUES ($1, $2, $3, now()) RETURNING id, date`)
	err = conn.QueryRow(ctx,
		`INSERT INTO diner_orders (diner_id, franchise_id, store_id, date) VALUES ($1, $2, $3, now()) RETURNING id, date`,
		dinerID, order.FranchiseID, order.StoreID).Scan(&placed.ID, &placed.Date)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		var menuID int64
		r.logQuery(`SELECT id FROM menu_items WHERE id = $1`)
		err := conn.QueryRow(ctx, `SELECT id FROM menu_items WHERE id = $1`, item.MenuID).Scan(&menuID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Order{}, fmt.Errorf("%w: no menu item %d", shared.ErrNotFound, item.MenuID)
			}
			return Order{}, fmt.Errorf("select menu item: %w", err)
		}

		line := item
		r.logQuery(`INSERT INTO order_items (order_id, menu_id, description, price) VALUES ($1, $2, $3, $4) RETURNING id`)
		err = conn.QueryRow(ctx,
			`INSERT INTO order_items (order_id, menu_id, description, price) VALUES ($1, $2, $3, $4) RETURNING id`,
			placed.ID, menuID, item.Description, item.Price).Scan(&line.ID)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
		placed.Items = append(placed.Items, line)
	}
	return placed, nil
}

func (r *PGRepository) orderItemsWithConn(ctx context.Context, conn db.Conn, orderID int64) ([]OrderItem, error) {
	r.logQuery(`SELECT id, menu_id, description, price FROM order_items WHERE order_id = $1 ORDER BY id`)
	rows, err := conn.Query(ctx,
		`SELECT id, menu_id, description, price FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	items := []OrderItem{}
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.MenuID, &item.Description, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PGRepository) logQuery(sql string) {
	if r.logger != nil {
		r.logger.Debug("db query", slog.String("query", sql))
	}
}

var _ Repository = (*PGRepository)(nil)
