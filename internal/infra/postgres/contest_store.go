package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"mcq-contest-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ContestStore persists contest definitions as JSONB. The active flag is
// mirrored into its own column so dashboards can filter in SQL.
type ContestStore struct {
	pool *pgxpool.Pool
}

func NewContestStore(pool *pgxpool.Pool) *ContestStore {
	return &ContestStore{pool: pool}
}

func (s *ContestStore) Get(ctx context.Context, contestID string) (domain.Contest, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM contests WHERE id=$1`, contestID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contest{}, domain.ErrContestNotFound
	}
	if err != nil {
		return domain.Contest{}, domain.NewStorageError("postgres.contests.get", err)
	}
	return decodeContest(raw)
}

func (s *ContestStore) List(ctx context.Context, activeOnly bool) ([]domain.Contest, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM contests WHERE active OR NOT $1 ORDER BY seq`, activeOnly)
	if err != nil {
		return nil, domain.NewStorageError("postgres.contests.list", err)
	}
	defer rows.Close()

	out := []domain.Contest{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, domain.NewStorageError("postgres.contests.list", err)
		}
		c, err := decodeContest(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("postgres.contests.list", err)
	}
	return out, nil
}

func (s *ContestStore) Create(ctx context.Context, contest domain.Contest) error {
	if err := domain.ValidateContest(contest); err != nil {
		return err
	}
	data, err := json.Marshal(contest)
	if err != nil {
		return domain.NewStorageError("postgres.contests.encode", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO contests (id, active, data, created_at) VALUES ($1, $2, $3::jsonb, $4)`,
		contest.ID, contest.Active, string(data), contest.CreatedAt)
	return domain.NewStorageError("postgres.contests.create", err)
}

func (s *ContestStore) Update(ctx context.Context, contest domain.Contest) error {
	if err := domain.ValidateContest(contest); err != nil {
		return err
	}
	data, err := json.Marshal(contest)
	if err != nil {
		return domain.NewStorageError("postgres.contests.encode", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE contests SET active=$2, data=$3::jsonb WHERE id=$1`,
		contest.ID, contest.Active, string(data))
	if err != nil {
		return domain.NewStorageError("postgres.contests.update", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContestNotFound
	}
	return nil
}

func (s *ContestStore) Delete(ctx context.Context, contestID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contests WHERE id=$1`, contestID)
	if err != nil {
		return domain.NewStorageError("postgres.contests.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContestNotFound
	}
	return nil
}

func decodeContest(raw []byte) (domain.Contest, error) {
	var c domain.Contest
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Contest{}, domain.NewStorageError("postgres.contests.decode", err)
	}
	return c, nil
}
