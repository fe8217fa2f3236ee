package store

import (
	"context"
	"sort"
	"sync"
	"time"

	id "sendcore/pkg/domain"
	"sendcore/pkg/platform/sentinel"

	"sendcore/internal/registration/models"
)

// InMemory is a mutex-guarded ProfileStore for tests and local development.
// It honors the same set-if-absent handle semantics as the Postgres store.
type InMemory struct {
	mu       sync.Mutex
	profiles map[id.TenantID]*models.RegistrationProfile
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[id.TenantID]*models.RegistrationProfile)}
}

func (s *InMemory) Get(_ context.Context, tenantID id.TenantID) (*models.RegistrationProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory) UpsertFacts(_ context.Context, tenantID id.TenantID, facts models.BusinessFacts) (*models.RegistrationProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	p, ok := s.profiles[tenantID]
	if !ok {
		p = &models.RegistrationProfile{
			TenantID:           tenantID,
			RegistrationStatus: models.RegistrationNotStarted,
			ApplicationStatus:  models.ApplicationPending,
			CreatedAt:          now,
		}
		s.profiles[tenantID] = p
	}
	p.Facts = facts
	p.Facts.SampleMessages = append([]string(nil), facts.SampleMessages...)
	p.UpdatedAt = now
	return p.Clone(), nil
}

func (s *InMemory) SetHandle(_ context.Context, tenantID id.TenantID, field models.Field, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[tenantID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	if existing := p.Handle(field); existing != "" {
		return existing, nil
	}
	p.SetHandle(field, value)
	p.UpdatedAt = time.Now()
	return value, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, tenantID id.TenantID, update StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[tenantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.BrandStatus = update.BrandStatus
	p.BrandFailureDetail = update.BrandFailureDetail
	p.CampaignStatus = update.CampaignStatus
	p.RegistrationStatus = update.RegistrationStatus
	p.ApplicationStatus = update.ApplicationStatus
	p.MessagingReady = update.MessagingReady
	p.DeclinedReason = update.DeclinedReason
	p.LastSyncedAt = update.LastSyncedAt
	p.UpdatedAt = time.Now()
	return nil
}

func (s *InMemory) SetLastError(_ context.Context, tenantID id.TenantID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[tenantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.LastError = message
	p.UpdatedAt = time.Now()
	return nil
}

func (s *InMemory) MarkApprovalNotified(_ context.Context, tenantID id.TenantID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[tenantID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if p.ApprovalNotifiedAt != nil {
		return false, nil
	}
	p.ApprovalNotifiedAt = &at
	p.UpdatedAt = time.Now()
	return true, nil
}

func (s *InMemory) FindByHandle(_ context.Context, field models.Field, value string) (*models.RegistrationProfile, error) {
	if value == "" {
		return nil, sentinel.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Handle(field) == value {
			return p.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListUnfinished(_ context.Context, limit int) ([]*models.RegistrationProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.RegistrationProfile
	for _, p := range s.profiles {
		if p.ApplicationStatus != models.ApplicationApproved {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSyncedAt.Before(out[j].LastSyncedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
