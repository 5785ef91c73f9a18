// Package users tracks registered display names and activity timestamps,
// keyed by the Telegram user id.
package users

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID           int64
	DisplayName  string
	Handle       string // Telegram username, may be empty
	RegisteredAt time.Time
	LastActiveAt time.Time
}

// Store is the user directory. Users are created on first name submission
// and never deleted.
type Store interface {
	// Upsert registers the user or overwrites the display name and handle,
	// refreshing the last-active timestamp.
	Upsert(ctx context.Context, id int64, displayName, handle string) error
	// DisplayName returns the registered name, or ErrNotFound.
	DisplayName(ctx context.Context, id int64) (string, error)
	// TouchActivity bumps last_active_at only. Unknown ids are a no-op.
	TouchActivity(ctx context.Context, id int64) error

	// Count returns the total number of registered users.
	Count(ctx context.Context) (int, error)
	// CountActiveSince counts users active after the cutoff.
	CountActiveSince(ctx context.Context, cutoff time.Time) (int, error)
	// Recent returns the newest registrations, most recent first.
	Recent(ctx context.Context, limit int) ([]User, error)
	// AllIDs returns every registered user id (broadcast fan-out).
	AllIDs(ctx context.Context) ([]int64, error)
}

type memoryStore struct {
	mu    sync.RWMutex
	users map[int64]User
}

// NewInMemoryStore is the map-backed directory used by tests.
func NewInMemoryStore() Store {
	return &memoryStore{users: map[int64]User{}}
}

func (m *memoryStore) Upsert(_ context.Context, id int64, displayName, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	u, ok := m.users[id]
	if !ok {
		u = User{ID: id, RegisteredAt: now}
	}
	u.DisplayName = displayName
	u.Handle = handle
	u.LastActiveAt = now
	m.users[id] = u
	return nil
}

func (m *memoryStore) DisplayName(_ context.Context, id int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return "", ErrNotFound
	}
	return u.DisplayName, nil
}

func (m *memoryStore) TouchActivity(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	u.LastActiveAt = time.Now()
	m.users[id] = u
	return nil
}

func (m *memoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *memoryStore) CountActiveSince(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, u := range m.users {
		if u.LastActiveAt.After(cutoff) {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) Recent(_ context.Context, limit int) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.After(out[j].RegisteredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) AllIDs(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
