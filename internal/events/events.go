// Package events publishes registration status transitions for downstream
// consumers (compliance audit, CRM timeline). Publishing is fire-and-forget
// from the reconciler's point of view: a publish failure is logged, never
// surfaced to the tenant.
package events

import (
	"context"
	"sync"
	"time"

	id "sendcore/pkg/domain"

	"sendcore/internal/registration/models"
)

// StatusChanged records one observed transition of a tenant's registration.
type StatusChanged struct {
	TenantID          id.TenantID               `json:"tenant_id"`
	From              models.RegistrationStatus `json:"from"`
	To                models.RegistrationStatus `json:"to"`
	ApplicationStatus models.ApplicationStatus  `json:"application_status"`
	MessagingReady    bool                      `json:"messaging_ready"`
	DeclinedReason    string                    `json:"declined_reason,omitempty"`
	ObservedAt        time.Time                 `json:"observed_at"`
}

// Publisher emits registration events.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChanged) error
	Close()
}

// Memory collects events in-process. Used in tests and as the default sink
// when no broker is configured.
type Memory struct {
	mu     sync.Mutex
	events []StatusChanged
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) PublishStatusChanged(_ context.Context, event StatusChanged) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (m *Memory) Events() []StatusChanged {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StatusChanged(nil), m.events...)
}

func (m *Memory) Close() {}
