package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore is the Standard-profile audit store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn, runs pending goose migrations from
// migrationsDir using a database/sql handle over the pgx stdlib driver,
// then returns a store backed by a pgxpool for normal operation.
func OpenPostgres(ctx context.Context, dsn, migrationsDir string) (*PostgresStore, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: opening migration connection: %w", err)
	}
	defer sqlDB.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("audit: setting goose dialect: %w", err)
	}
	if err := goose.Up(sqlDB, migrationsDir); err != nil {
		return nil, fmt.Errorf("audit: running migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: opening pool: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_entries (action, framework, name, version, detail) VALUES ($1, $2, $3, $4, $5)`,
		e.Action, e.Framework, e.Name, e.Version, e.Detail)
	if err != nil {
		return fmt.Errorf("audit: recording entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, action, framework, name, version, detail, created_at FROM audit_entries ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: listing entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.Framework, &e.Name, &e.Version, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scanning entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
