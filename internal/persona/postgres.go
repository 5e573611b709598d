package persona

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCatalog reads profiles from the personalities table maintained by
// the external catalog owner. Nullable columns map to empty fields.
type PostgresCatalog struct {
	pool *pgxpool.Pool
}

func NewPostgresCatalog(ctx context.Context, databaseURL string) (*PostgresCatalog, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS personalities (
		id TEXT PRIMARY KEY,
		display_name TEXT,
		voice TEXT,
		traits TEXT[]
	);`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init personality schema: %w", err)
	}
	return &PostgresCatalog{pool: pool}, nil
}

func (c *PostgresCatalog) Get(ctx context.Context, id string) (Profile, error) {
	var (
		p           Profile
		name, voice *string
	)
	err := c.pool.QueryRow(ctx,
		`SELECT id, display_name, voice, traits FROM personalities WHERE id=$1`,
		id,
	).Scan(&p.ID, &name, &voice, &p.Traits)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get personality: %w", err)
	}
	if name != nil {
		p.DisplayName = *name
	}
	if voice != nil {
		p.Voice = *voice
	}
	return p, nil
}

func (c *PostgresCatalog) Close() error {
	c.pool.Close()
	return nil
}
