// Package lock provides a per-tenant advisory lock around the registration
// saga. Two simultaneous first-time registrations for the same tenant could
// otherwise both pass the "handle unset" checks before either persists and
// double-create external entities.
package lock

import (
	"context"
	"sync"
	"time"

	id "sendcore/pkg/domain"
	"sendcore/pkg/platform/sentinel"
)

// TenantLock guards the saga for one tenant at a time.
//
// Acquire returns sentinel.ErrLocked while another holder is active. The
// returned release func is safe to call more than once.
type TenantLock interface {
	Acquire(ctx context.Context, tenantID id.TenantID, ttl time.Duration) (release func(), err error)
}

// InMemory is a single-process TenantLock for tests and local development.
type InMemory struct {
	mu    sync.Mutex
	held  map[id.TenantID]time.Time
	clock func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{held: make(map[id.TenantID]time.Time), clock: time.Now}
}

// WithClock overrides the clock for expiry tests.
func (l *InMemory) WithClock(clock func() time.Time) *InMemory {
	l.clock = clock
	return l
}

func (l *InMemory) Acquire(_ context.Context, tenantID id.TenantID, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if expiry, ok := l.held[tenantID]; ok && now.Before(expiry) {
		return nil, sentinel.ErrLocked
	}
	l.held[tenantID] = now.Add(ttl)

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.held, tenantID)
		})
	}
	return release, nil
}
