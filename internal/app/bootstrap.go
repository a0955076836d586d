package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sliceline/sliceline/internal/authz"
	"github.com/sliceline/sliceline/internal/platform/db"
	"github.com/sliceline/sliceline/internal/users"
)

var tableCreateStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id BIGINT NOT NULL,
		role TEXT NOT NULL,
		object_id BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_roles_user ON user_roles (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_roles_object ON user_roles (role, object_id)`,
	`CREATE TABLE IF NOT EXISTS franchises (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS stores (
		id BIGSERIAL PRIMARY KEY,
		franchise_id BIGINT NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		image TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS diner_orders (
		id BIGSERIAL PRIMARY KEY,
		diner_id BIGINT NOT NULL,
		franchise_id BIGINT NOT NULL,
		store_id BIGINT NOT NULL,
		date TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL,
		menu_id BIGINT NOT NULL,
		description TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auth_sessions (
		token TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL
	)`,
}

// Bootstrap creates the tables and, on a fresh schema only, seeds the default
// administrator account. It runs once on the pool's bootstrap connection.
func Bootstrap(ctx context.Context, conn db.Conn, schemaExisted bool, logger *slog.Logger, cfg *Config, seed *users.PGRepository) error {
	if schemaExisted {
		return nil
	}

	logger.Info("creating tables", slog.String("schema", cfg.DBSchema))
	for _, stmt := range tableCreateStatements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}

	admin, err := seed.AddUserWithConn(ctx, conn, users.NewUser{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Roles:    []users.RoleSpec{{Role: authz.RoleAdmin}},
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	logger.Info("seeded default administrator", slog.Int64("userId", admin.ID), slog.String("email", admin.Email))
	return nil
}
