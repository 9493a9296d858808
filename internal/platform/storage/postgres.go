package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

// ConnectPostgres opens a small pool and verifies the connection.
func ConnectPostgres(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	slog.Debug("connected to PostgreSQL")
	return db, nil
}

// Postgres keeps entries in the client_storage table, one row per
// (namespace, key).
type Postgres struct {
	db        *sql.DB
	namespace string
}

func NewPostgres(db *sql.DB, namespace string) *Postgres {
	return &Postgres{db: db, namespace: namespace}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS client_storage (
	              namespace TEXT NOT NULL,
	              key TEXT NOT NULL,
	              value TEXT NOT NULL,
	              updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	              PRIMARY KEY (namespace, key)
	          )`
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("postgres.Migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM client_storage WHERE namespace = $1 AND key = $2`
	var value string
	err := p.db.QueryRowContext(ctx, query, p.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("postgres.Get: %w", err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO client_storage (namespace, key, value, updated_at)
	          VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := p.db.ExecContext(ctx, query, p.namespace, key, value); err != nil {
		return fmt.Errorf("postgres.Set: %w", err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `DELETE FROM client_storage WHERE namespace = $1 AND key = $2`
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, query, p.namespace, k); err != nil {
			return fmt.Errorf("postgres.Remove %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
