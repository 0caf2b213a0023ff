package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"mcq-contest-service/internal/app"
	"mcq-contest-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// ContestCache keeps contest definitions in process with a TTL to avoid
// repeated DB hits. Writes go to the backing store and evict the entry, so a
// submission always grades against the latest saved definition.
type ContestCache struct {
	backing app.ContestRepository
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedContest
	// gen counts evictions per id; a load only fills the cache if no
	// eviction happened while it was reading the backing store.
	gen map[string]uint64
}

type cachedContest struct {
	contest   domain.Contest
	expiresAt time.Time
}

func NewContestCache(backing app.ContestRepository, ttl time.Duration) *ContestCache {
	return &ContestCache{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedContest),
		gen:     make(map[string]uint64),
	}
}

func (r *ContestCache) Get(ctx context.Context, contestID string) (domain.Contest, error) {
	if c, ok := r.lookup(contestID); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(contestID, func() (interface{}, error) {
		if c, ok := r.lookup(contestID); ok {
			return c, nil
		}

		r.mu.RLock()
		gen := r.gen[contestID]
		r.mu.RUnlock()

		contest, err := r.backing.Get(ctx, contestID)
		if err != nil {
			return domain.Contest{}, err
		}

		r.mu.Lock()
		if r.gen[contestID] == gen {
			r.cache[contestID] = cachedContest{
				contest:   contest,
				expiresAt: r.clock().Add(r.ttlWithJitter()),
			}
		}
		r.mu.Unlock()
		return contest, nil
	})
	if err != nil {
		return domain.Contest{}, err
	}
	return result.(domain.Contest), nil
}

// List always reads through; dashboards need the full, current set.
func (r *ContestCache) List(ctx context.Context, activeOnly bool) ([]domain.Contest, error) {
	return r.backing.List(ctx, activeOnly)
}

func (r *ContestCache) Create(ctx context.Context, contest domain.Contest) error {
	defer r.evict(contest.ID)
	return r.backing.Create(ctx, contest)
}

func (r *ContestCache) Update(ctx context.Context, contest domain.Contest) error {
	defer r.evict(contest.ID)
	return r.backing.Update(ctx, contest)
}

func (r *ContestCache) Delete(ctx context.Context, contestID string) error {
	defer r.evict(contestID)
	return r.backing.Delete(ctx, contestID)
}

func (r *ContestCache) lookup(contestID string) (domain.Contest, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[contestID]; ok && entry.expiresAt.After(now) {
		return entry.contest, true
	}
	return domain.Contest{}, false
}

func (r *ContestCache) evict(contestID string) {
	r.mu.Lock()
	delete(r.cache, contestID)
	r.gen[contestID]++
	r.mu.Unlock()
	r.sf.Forget(contestID)
}

func (r *ContestCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
