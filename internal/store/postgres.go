package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps session state in a kv_entries table, scoped by session ID
// so many client sessions can share one database. Schema lives in
// internal/migrate.
type Postgres struct {
	pool      *pgxpool.Pool
	sessionID string
}

func NewPostgres(pool *pgxpool.Pool, sessionID string) *Postgres {
	return &Postgres{pool: pool, sessionID: sessionID}
}

// OpenPostgres opens a pgx pool and verifies connectivity with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	const q = `
SELECT value
FROM kv_entries
WHERE session_id = $1 AND key = $2
`
	var value []byte
	err := p.pool.QueryRow(ctx, q, p.sessionID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoValue
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (p *Postgres) Save(ctx context.Context, key string, value []byte) error {
	const q = `
INSERT INTO kv_entries (session_id, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`
	_, err := p.pool.Exec(ctx, q, p.sessionID, key, value)
	return err
}

func (p *Postgres) Clear(ctx context.Context, key string) error {
	const q = `
DELETE FROM kv_entries
WHERE session_id = $1 AND key = $2
`
	_, err := p.pool.Exec(ctx, q, p.sessionID, key)
	return err
}
