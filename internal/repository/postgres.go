package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SlotsSchema creates the single table the Postgres backend needs.
const SlotsSchema = `CREATE TABLE IF NOT EXISTS storefront_slots (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type pgSlots struct{ pool *pgxpool.Pool }

func NewPostgresSlotRepository(pool *pgxpool.Pool) SlotRepository {
	return &pgSlots{pool: pool}
}

// Migrate applies SlotsSchema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, SlotsSchema); err != nil {
		return fmt.Errorf("create slots table: %w", err)
	}
	return nil
}

func (r *pgSlots) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM storefront_slots WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("get slot %s: %w", key, err)
	}
	return value, nil
}

func (r *pgSlots) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO storefront_slots (key, value, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set slot %s: %w", key, err)
	}
	return nil
}

func (r *pgSlots) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM storefront_slots WHERE key = ANY($1)`, keys); err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	return nil
}

func (r *pgSlots) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
