package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"mcq-contest-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const attemptColumns = `id, contest_id, student_id, started_at, answers, score, completed, expired, completed_at`

// AttemptStore keeps attempts in Postgres. The (contest_id, student_id)
// unique constraint and conditional updates carry the atomicity rules.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) FindOne(ctx context.Context, contestID, studentID string) (domain.Attempt, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE contest_id=$1 AND student_id=$2`,
		contestID, studentID)
	return scanAttempt(row, "postgres.attempts.find")
}

func (s *AttemptStore) InsertIfAbsent(ctx context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	answers, err := encodeAnswers(attempt.Answers)
	if err != nil {
		return domain.Attempt{}, false, err
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO attempts (id, contest_id, student_id, started_at, answers, score)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		 ON CONFLICT (contest_id, student_id) DO NOTHING`,
		attempt.ID, attempt.ContestID, attempt.StudentID, attempt.StartedAt, answers, attempt.Score)
	if err != nil {
		return domain.Attempt{}, false, domain.NewStorageError("postgres.attempts.insert", err)
	}
	if tag.RowsAffected() == 1 {
		return attempt, true, nil
	}
	existing, err := s.FindOne(ctx, attempt.ContestID, attempt.StudentID)
	return existing, false, err
}

func (s *AttemptStore) CompleteIfOpen(ctx context.Context, attemptID string, c domain.Completion) (domain.Attempt, error) {
	var answers interface{}
	if c.Answers != nil {
		encoded, err := encodeAnswers(c.Answers)
		if err != nil {
			return domain.Attempt{}, err
		}
		answers = encoded
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE attempts
		 SET answers=COALESCE($2::jsonb, answers), score=$3, completed=TRUE, expired=$4, completed_at=$5
		 WHERE id=$1 AND completed=FALSE
		 RETURNING `+attemptColumns,
		attemptID, answers, c.Score, c.Expired, c.CompletedAt)
	done, err := scanAttempt(row, "postgres.attempts.complete")
	if !errors.Is(err, domain.ErrNotFound) {
		return done, err
	}

	// No open row matched: either the id is unknown or someone completed it first.
	current, err := scanAttempt(s.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id=$1`, attemptID), "postgres.attempts.get")
	if err != nil {
		return domain.Attempt{}, err
	}
	return current, domain.ErrAlreadySubmitted
}

func (s *AttemptStore) ListByContest(ctx context.Context, contestID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE contest_id=$1 ORDER BY seq`, contestID)
	if err != nil {
		return nil, domain.NewStorageError("postgres.attempts.list", err)
	}
	defer rows.Close()

	out := []domain.Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows, "postgres.attempts.list")
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("postgres.attempts.list", err)
	}
	return out, nil
}

func (s *AttemptStore) CountByContest(ctx context.Context, contestID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM attempts WHERE contest_id=$1`, contestID).Scan(&n)
	if err != nil {
		return 0, domain.NewStorageError("postgres.attempts.count", err)
	}
	return n, nil
}

func (s *AttemptStore) DeleteByContest(ctx context.Context, contestID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM attempts WHERE contest_id=$1`, contestID)
	return domain.NewStorageError("postgres.attempts.delete", err)
}

func scanAttempt(row pgx.Row, op string) (domain.Attempt, error) {
	var (
		a           domain.Attempt
		answers     []byte
		completedAt *time.Time
	)
	err := row.Scan(&a.ID, &a.ContestID, &a.StudentID, &a.StartedAt, &answers,
		&a.Score, &a.Completed, &a.Expired, &completedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, domain.NewStorageError(op, err)
	}
	if completedAt != nil {
		a.CompletedAt = *completedAt
	}
	a.Answers = map[string]domain.Answer{}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &a.Answers); err != nil {
			return domain.Attempt{}, domain.NewStorageError(op, err)
		}
	}
	return a, nil
}

func encodeAnswers(answers map[string]domain.Answer) (string, error) {
	if answers == nil {
		answers = map[string]domain.Answer{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return "", domain.NewStorageError("postgres.attempts.encode", err)
	}
	return string(data), nil
}
