package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"mcq-contest-service/internal/app"
	"mcq-contest-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ContestCache caches contest definitions in Redis and falls back to the
// backing repository on a miss. Definitions are stored as JSON:
//
//	SET contest:{contestID}:definition {json} EX ttl
//	INCR contest:{contestID}:version
//
// Writes go through to the backing store, bump the version and drop the
// cached copy. A load only stores its result while the version it started
// from is still current. A non-positive ttl disables caching.
type ContestCache struct {
	client  *redis.Client
	backing app.ContestRepository
	ttl     time.Duration
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewContestCache(client *redis.Client, backing app.ContestRepository, ttl time.Duration) *ContestCache {
	return &ContestCache{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ContestCache) Get(ctx context.Context, contestID string) (domain.Contest, error) {
	if c, ok := r.cached(ctx, contestID); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(contestID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if c, ok := r.cached(ctx, contestID); ok {
			return c, nil
		}

		version, err := r.client.Get(ctx, versionKey(contestID)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			version = -1
		}

		contest, err := r.backing.Get(ctx, contestID)
		if err != nil {
			return domain.Contest{}, err
		}
		if version >= 0 {
			r.fill(ctx, contest, version)
		}
		return contest, nil
	})
	if err != nil {
		return domain.Contest{}, err
	}
	return result.(domain.Contest), nil
}

// List reads through; dashboards need the full, current set.
func (r *ContestCache) List(ctx context.Context, activeOnly bool) ([]domain.Contest, error) {
	return r.backing.List(ctx, activeOnly)
}

func (r *ContestCache) Create(ctx context.Context, contest domain.Contest) error {
	defer r.evict(ctx, contest.ID)
	return r.backing.Create(ctx, contest)
}

func (r *ContestCache) Update(ctx context.Context, contest domain.Contest) error {
	defer r.evict(ctx, contest.ID)
	return r.backing.Update(ctx, contest)
}

func (r *ContestCache) Delete(ctx context.Context, contestID string) error {
	defer r.evict(ctx, contestID)
	return r.backing.Delete(ctx, contestID)
}

func (r *ContestCache) cached(ctx context.Context, contestID string) (domain.Contest, bool) {
	payload, err := r.client.Get(ctx, definitionKey(contestID)).Bytes()
	if err != nil {
		return domain.Contest{}, false
	}
	var contest domain.Contest
	if err := json.Unmarshal(payload, &contest); err != nil {
		return domain.Contest{}, false
	}
	return contest, true
}

// fill stores contest unless an eviction bumped the version since the load
// began. Losing the WATCH race just skips the write.
func (r *ContestCache) fill(ctx context.Context, contest domain.Contest, version int64) {
	ttl := r.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	payload, err := json.Marshal(contest)
	if err != nil {
		return
	}
	vkey := versionKey(contest.ID)
	_ = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, definitionKey(contest.ID), payload, ttl)
			return nil
		})
		return err
	}, vkey)
}

func (r *ContestCache) evict(ctx context.Context, contestID string) {
	_ = r.client.Incr(ctx, versionKey(contestID)).Err()
	_ = r.client.Del(ctx, definitionKey(contestID)).Err()
	r.sf.Forget(contestID)
}

func definitionKey(contestID string) string {
	return "contest:" + contestID + ":definition"
}

func versionKey(contestID string) string {
	return "contest:" + contestID + ":version"
}

func (r *ContestCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
