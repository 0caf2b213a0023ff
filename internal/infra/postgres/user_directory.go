package postgres

import (
	"context"
	"errors"

	"mcq-contest-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserDirectory remembers every identity seen by the API so leaderboards can
// show display names.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

func (d *UserDirectory) Lookup(ctx context.Context, userID string) (domain.Identity, error) {
	u := domain.Identity{ID: userID}
	var role string
	err := d.pool.QueryRow(ctx, `SELECT display_name, role FROM users WHERE id=$1`, userID).Scan(&u.DisplayName, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Identity{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Identity{}, domain.NewStorageError("postgres.users.lookup", err)
	}
	u.Role = domain.Role(role)
	return u, nil
}

func (d *UserDirectory) Upsert(ctx context.Context, identity domain.Identity) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO users (id, display_name, role, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (id) DO UPDATE SET display_name=EXCLUDED.display_name, role=EXCLUDED.role, updated_at=now()`,
		identity.ID, identity.DisplayName, string(identity.Role))
	return domain.NewStorageError("postgres.users.upsert", err)
}
