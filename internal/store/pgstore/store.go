// Package pgstore implements subscription, usage and payment storage on PostgreSQL.
package pgstore

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/seokit/pkg/subscription"
)

// Migrations holds the goose migrations for the tables and the increment_usage function.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations to pass to pg.Migrate.
const MigrationsDir = "migrations"

// DB is the subset of *pgxpool.Pool used by Store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements subscription.Store.
type Store struct {
	db DB
}

var _ subscription.Store = (*Store)(nil)

// New creates a Store on db.
func New(db DB) *Store {
	return &Store{db: db}
}
