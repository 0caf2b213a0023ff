package app

import (
	"context"
	"sync"

	"mcq-contest-service/internal/domain"

	"go.uber.org/zap"
)

// LeaderboardBuilder is the part of LeaderboardService the hub depends on.
type LeaderboardBuilder interface {
	BuildLeaderboard(ctx context.Context, contestID string) (domain.Leaderboard, error)
}

// LeaderboardHub fans leaderboard snapshots out to live subscribers. It
// implements CompletionNotifier so the attempt service can drive it.
type LeaderboardHub struct {
	builder LeaderboardBuilder
	log     *zap.Logger

	mu    sync.RWMutex
	feeds map[string]*feed
}

type feed struct {
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardHub(builder LeaderboardBuilder, opts ...Option) *LeaderboardHub {
	o := buildOptions(opts)
	return &LeaderboardHub{
		builder: builder,
		log:     o.log,
		feeds:   make(map[string]*feed),
	}
}

// Subscribe returns a channel primed with the current leaderboard. The caller
// must invoke the returned cancel function to avoid leaks.
func (h *LeaderboardHub) Subscribe(ctx context.Context, contestID string) (<-chan domain.Leaderboard, func(), error) {
	initial, err := h.builder.BuildLeaderboard(ctx, contestID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	h.mu.Lock()
	f, ok := h.feeds[contestID]
	if !ok {
		f = &feed{subscribers: make(map[chan domain.Leaderboard]struct{})}
		h.feeds[contestID] = f
	}
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		empty := len(f.subscribers) == 0
		f.mu.Unlock()
		if empty && h.feeds[contestID] == f {
			delete(h.feeds, contestID)
		}
	}
	return ch, cancel, nil
}

// AttemptCompleted rebuilds the contest leaderboard and pushes it to every
// subscriber. Contests nobody watches cost nothing.
func (h *LeaderboardHub) AttemptCompleted(ctx context.Context, contestID string) {
	h.mu.RLock()
	f, ok := h.feeds[contestID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	lb, err := h.builder.BuildLeaderboard(ctx, contestID)
	if err != nil {
		h.log.Warn("leaderboard rebuild failed", zap.String("contest", contestID), zap.Error(err))
		return
	}
	f.broadcast(lb)
}

// Subscribers reports how many live subscribers a contest has.
func (h *LeaderboardHub) Subscribers(contestID string) int {
	h.mu.RLock()
	f, ok := h.feeds[contestID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

func (f *feed) broadcast(lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- lb:
		default:
			// Slow subscriber: replace its oldest snapshot with the newest.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
