package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

// PostgresConfig configures the Postgres backend
type PostgresConfig struct {
	DSN          string
	TenantsTable string
	OrdersTable  string
}

// OpenPostgres connects to Postgres through the pgx stdlib driver
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDB(*config)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewPostgresStore opens the database and builds both repositories
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, cursors *CursorCodec) (*Store, error) {
	db, err := OpenPostgres(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return &Store{
		Tenants: NewPostgresTenantRepository(db, cfg.TenantsTable, cursors),
		Orders:  NewPostgresOrderRepository(db, cfg.OrdersTable, cursors),
		close:   db.Close,
	}, nil
}

// quoteTable quotes a configured table name for use in SQL text
func quoteTable(name string) string {
	return pq.QuoteIdentifier(name)
}

// nullableJSON maps an empty encoding to SQL NULL
func nullableJSON(raw []byte) any {
	if raw == nil {
		return nil
	}
	return raw
}
