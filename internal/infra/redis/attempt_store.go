package redis

import (
	"context"
	"encoding/json"
	"errors"

	"mcq-contest-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic transaction retries under contention.
const maxTxRetries = 32

// AttemptStore keeps attempts in Redis so several service instances can share
// them. Layout:
//
//	SET   attempt:{attemptID}                    {json}
//	SET   contest:{contestID}:student:{studentID} {attemptID}
//	RPUSH contest:{contestID}:attempts            {attemptID}
//
// Conditional writes use WATCH/MULTI so the create-if-absent and
// complete-if-open rules hold across processes.
type AttemptStore struct {
	client *redis.Client
}

func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

func (s *AttemptStore) FindOne(ctx context.Context, contestID, studentID string) (domain.Attempt, error) {
	id, err := s.client.Get(ctx, pairKey(contestID, studentID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, domain.NewStorageError("redis.attempts.find", err)
	}
	return s.load(ctx, s.client, id)
}

func (s *AttemptStore) InsertIfAbsent(ctx context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return domain.Attempt{}, false, domain.NewStorageError("redis.attempts.encode", err)
	}

	var (
		out     domain.Attempt
		created bool
	)
	pk := pairKey(attempt.ContestID, attempt.StudentID)
	txf := func(tx *redis.Tx) error {
		id, err := tx.Get(ctx, pk).Result()
		switch {
		case err == nil:
			out, err = s.load(ctx, tx, id)
			created = false
			return err
		case !errors.Is(err, redis.Nil):
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, attemptKey(attempt.ID), payload, 0)
			pipe.Set(ctx, pk, attempt.ID, 0)
			pipe.RPush(ctx, contestAttemptsKey(attempt.ContestID), attempt.ID)
			return nil
		})
		out, created = attempt, true
		return err
	}

	if err := s.watch(ctx, txf, pk); err != nil {
		return domain.Attempt{}, false, wrapStorage("redis.attempts.insert", err)
	}
	return out, created, nil
}

func (s *AttemptStore) CompleteIfOpen(ctx context.Context, attemptID string, c domain.Completion) (domain.Attempt, error) {
	var out domain.Attempt
	key := attemptKey(attemptID)
	txf := func(tx *redis.Tx) error {
		current, err := s.load(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if current.Completed {
			out = current
			return domain.ErrAlreadySubmitted
		}

		updated := c.Apply(current)
		payload, err := json.Marshal(updated)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		out = updated
		return err
	}

	if err := s.watch(ctx, txf, key); err != nil {
		if errors.Is(err, domain.ErrAlreadySubmitted) {
			return out, err
		}
		return domain.Attempt{}, wrapStorage("redis.attempts.complete", err)
	}
	return out, nil
}

func (s *AttemptStore) ListByContest(ctx context.Context, contestID string) ([]domain.Attempt, error) {
	ids, err := s.client.LRange(ctx, contestAttemptsKey(contestID), 0, -1).Result()
	if err != nil {
		return nil, domain.NewStorageError("redis.attempts.list", err)
	}
	if len(ids) == 0 {
		return []domain.Attempt{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = attemptKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.NewStorageError("redis.attempts.list", err)
	}

	out := make([]domain.Attempt, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var a domain.Attempt
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, domain.NewStorageError("redis.attempts.decode", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *AttemptStore) CountByContest(ctx context.Context, contestID string) (int, error) {
	n, err := s.client.LLen(ctx, contestAttemptsKey(contestID)).Result()
	if err != nil {
		return 0, domain.NewStorageError("redis.attempts.count", err)
	}
	return int(n), nil
}

func (s *AttemptStore) DeleteByContest(ctx context.Context, contestID string) error {
	attempts, err := s.ListByContest(ctx, contestID)
	if err != nil {
		return err
	}
	keys := make([]string, 0, 2*len(attempts)+1)
	keys = append(keys, contestAttemptsKey(contestID))
	for _, a := range attempts {
		keys = append(keys, attemptKey(a.ID), pairKey(a.ContestID, a.StudentID))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return domain.NewStorageError("redis.attempts.delete", err)
	}
	return nil
}

// watch runs txf under WATCH keys, retrying when a concurrent writer touched
// them between the read and EXEC.
func (s *AttemptStore) watch(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return redis.TxFailedErr
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *AttemptStore) load(ctx context.Context, g getter, attemptID string) (domain.Attempt, error) {
	payload, err := g.Get(ctx, attemptKey(attemptID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, domain.NewStorageError("redis.attempts.load", err)
	}
	var a domain.Attempt
	if err := json.Unmarshal(payload, &a); err != nil {
		return domain.Attempt{}, domain.NewStorageError("redis.attempts.decode", err)
	}
	if a.Answers == nil {
		a.Answers = map[string]domain.Answer{}
	}
	return a, nil
}

// wrapStorage leaves domain outcomes untouched and tags everything else.
func wrapStorage(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrStorage) {
		return err
	}
	return domain.NewStorageError(op, err)
}

func attemptKey(attemptID string) string {
	return "attempt:" + attemptID
}

func pairKey(contestID, studentID string) string {
	return "contest:" + contestID + ":student:" + studentID
}

func contestAttemptsKey(contestID string) string {
	return "contest:" + contestID + ":attempts"
}
