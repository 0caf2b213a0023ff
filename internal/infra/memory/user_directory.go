package memory

import (
	"context"
	"sync"

	"mcq-contest-service/internal/domain"
)

// UserDirectory is an in-memory implementation of app.UserDirectory.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]domain.Identity
}

func NewUserDirectory(seed ...domain.Identity) *UserDirectory {
	d := &UserDirectory{users: make(map[string]domain.Identity, len(seed))}
	for _, u := range seed {
		d.users[u.ID] = u
	}
	return d
}

func (d *UserDirectory) Lookup(_ context.Context, userID string) (domain.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.users[userID]; ok {
		return u, nil
	}
	return domain.Identity{}, domain.ErrNotFound
}

func (d *UserDirectory) Upsert(_ context.Context, identity domain.Identity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[identity.ID] = identity
	return nil
}
