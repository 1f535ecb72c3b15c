// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package mock provides in-memory implementations of the repository and
// relay ports for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/mailutil"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

// MockRepository is a mutex-guarded in-memory document store implementing
// both repository ports with the same semantics as the NATS storage: every
// mutation appends one log entry and bumps updated/by.
type MockRepository struct {
	mu      sync.RWMutex
	tenants map[string]*model.Tenant
	mls     map[string]*model.MailingList

	// Now supplies timestamps; tests override it for deterministic clocks.
	Now func() time.Time
}

// NewMockRepository creates an empty mock repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		tenants: make(map[string]*model.Tenant),
		mls:     make(map[string]*model.MailingList),
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateTenant stores a new tenant.
func (m *MockRepository) CreateTenant(_ context.Context, tenant *model.Tenant, by string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tenants[tenant.TenantName]; ok {
		return errors.NewConflict("tenant already exists")
	}
	now := m.Now()
	doc := tenant.Clone()
	doc.Created = now
	doc.Updated = now
	doc.By = by
	doc.Logs = []model.LogEntry{{Op: model.OpCreate, By: by, TS: now}}
	m.tenants[doc.TenantName] = doc
	return nil
}

// UpdateTenant applies a partial update.
func (m *MockRepository) UpdateTenant(_ context.Context, tenantName string, by string, patch *model.TenantPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tenant, ok := m.tenants[tenantName]
	if !ok {
		return errors.NewNotFound("tenant not found")
	}
	now := m.Now()
	patch.Apply(tenant)
	tenant.Logs = append(tenant.Logs, model.LogEntry{
		Op: model.OpUpdate, By: by, TS: now, Config: patch.LogConfig(),
	})
	tenant.Updated = now
	tenant.By = by
	return nil
}

// DeleteTenant removes the tenant.
func (m *MockRepository) DeleteTenant(_ context.Context, tenantName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tenants[tenantName]; !ok {
		return errors.NewNotFound("tenant not found")
	}
	delete(m.tenants, tenantName)
	return nil
}

// GetTenant fetches one tenant by name.
func (m *MockRepository) GetTenant(_ context.Context, tenantName string) (*model.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tenant, ok := m.tenants[tenantName]
	if !ok {
		return nil, errors.NewNotFound("tenant not found")
	}
	return tenant.Clone(), nil
}

// FindTenants returns the tenants matching filter.
func (m *MockRepository) FindTenants(_ context.Context, filter model.Filter, sortKey string, desc bool) ([]*model.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.Tenant
	for _, tenant := range m.tenants {
		if filter.Matches(tenant) {
			out = append(out, tenant.Clone())
		}
	}
	if sortKey == "" {
		sortKey = "tenant_name"
	}
	model.SortByField(out, sortKey, desc)
	return out, nil
}

// IncrementCounter advances the tenant counter and returns the new value.
func (m *MockRepository) IncrementCounter(_ context.Context, tenantName string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tenant, ok := m.tenants[tenantName]
	if !ok {
		return 0, errors.NewNotFound("tenant not found")
	}
	tenant.Counter++
	return tenant.Counter, nil
}

// CreateMailingList stores a new list in status "new".
func (m *MockRepository) CreateMailingList(_ context.Context, mlName, tenantName, subject string, members mailutil.AddressSet, by string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.mls[mlName]; ok {
		return errors.NewConflict("mailing list already exists")
	}
	now := m.Now()
	m.mls[mlName] = &model.MailingList{
		MLName:     mlName,
		TenantName: tenantName,
		Subject:    subject,
		Members:    members.Sorted(),
		Status:     model.StatusNew,
		Created:    now,
		Updated:    now,
		By:         by,
		Logs: []model.LogEntry{
			{Op: model.OpCreate, By: by, TS: now, Members: members.Sorted()},
		},
	}
	return nil
}

// GetMailingList fetches one list by name.
func (m *MockRepository) GetMailingList(_ context.Context, mlName string) (*model.MailingList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ml, ok := m.mls[mlName]
	if !ok {
		return nil, errors.NewNotFound("mailing list not found")
	}
	return ml.Clone(), nil
}

// FindMailingLists returns the lists matching filter.
func (m *MockRepository) FindMailingLists(_ context.Context, filter model.Filter, sortKey string, desc bool) ([]*model.MailingList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.MailingList
	for _, ml := range m.mls {
		if filter.Matches(ml) {
			out = append(out, ml.Clone())
		}
	}
	if sortKey == "" {
		sortKey = "ml_name"
	}
	model.SortByField(out, sortKey, desc)
	return out, nil
}

// ChangeStatus moves the list to status.
func (m *MockRepository) ChangeStatus(_ context.Context, mlName string, status model.Status, by string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, ok := m.mls[mlName]
	if !ok {
		return errors.NewNotFound("mailing list not found")
	}
	if !ml.Status.CanTransitionTo(status) {
		return errors.NewValidation("invalid status transition from " + string(ml.Status) + " to " + string(status))
	}
	now := m.Now()
	ml.Status = status
	ml.Logs = append(ml.Logs, model.LogEntry{Op: model.OpForStatus(status), By: by, TS: now})
	ml.Updated = now
	ml.By = by
	return nil
}

// AddMembers unions addrs into the membership.
func (m *MockRepository) AddMembers(_ context.Context, mlName string, addrs mailutil.AddressSet, by string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, ok := m.mls[mlName]
	if !ok {
		return errors.NewNotFound("mailing list not found")
	}
	now := m.Now()
	ml.Members = mailutil.NewAddressSet(ml.Members...).Union(addrs).Sorted()
	ml.Logs = append(ml.Logs, model.LogEntry{
		Op: model.OpAddMembers, By: by, TS: now, Members: addrs.Sorted(),
	})
	ml.Updated = now
	ml.By = by
	return nil
}

// DelMembers subtracts addrs from the membership.
func (m *MockRepository) DelMembers(_ context.Context, mlName string, addrs mailutil.AddressSet, by string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, ok := m.mls[mlName]
	if !ok {
		return errors.NewNotFound("mailing list not found")
	}
	now := m.Now()
	ml.Members = mailutil.NewAddressSet(ml.Members...).Diff(addrs).Sorted()
	ml.Logs = append(ml.Logs, model.LogEntry{
		Op: model.OpDelMembers, By: by, TS: now, Members: addrs.Sorted(),
	})
	ml.Updated = now
	ml.By = by
	return nil
}

// GetMembers returns the current membership.
func (m *MockRepository) GetMembers(_ context.Context, mlName string) (mailutil.AddressSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ml, ok := m.mls[mlName]
	if !ok {
		return nil, errors.NewNotFound("mailing list not found")
	}
	return mailutil.NewAddressSet(ml.Members...), nil
}

// MarkOrphaned moves stale open lists of the tenant to "orphaned".
func (m *MockRepository) MarkOrphaned(_ context.Context, tenantName string, lastUpdated time.Time, by string) ([]*model.MailingList, error) {
	return m.sweep(tenantName, model.StatusOpen, model.StatusOrphaned, lastUpdated, by)
}

// MarkClosed moves stale orphaned lists of the tenant to "closed".
func (m *MockRepository) MarkClosed(_ context.Context, tenantName string, lastUpdated time.Time, by string) ([]*model.MailingList, error) {
	return m.sweep(tenantName, model.StatusOrphaned, model.StatusClosed, lastUpdated, by)
}

func (m *MockRepository) sweep(tenantName string, from, to model.Status, lastUpdated time.Time, by string) ([]*model.MailingList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var moved []*model.MailingList
	for _, ml := range m.mls {
		if ml.TenantName != tenantName || ml.Status != from || !ml.Updated.Before(lastUpdated) {
			continue
		}
		moved = append(moved, ml.Clone())
		now := m.Now()
		ml.Status = to
		ml.Logs = append(ml.Logs, model.LogEntry{Op: model.OpForStatus(to), By: by, TS: now})
		ml.Updated = now
		ml.By = by
	}
	model.SortByField(moved, "ml_name", false)
	return moved, nil
}

// LogPost records a fan-out with its recipient set.
func (m *MockRepository) LogPost(_ context.Context, mlName string, members mailutil.AddressSet, by string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, ok := m.mls[mlName]
	if !ok {
		return errors.NewNotFound("mailing list not found")
	}
	now := m.Now()
	ml.Logs = append(ml.Logs, model.LogEntry{Op: model.OpPost, By: by, TS: now, Members: members.Sorted()})
	ml.Updated = now
	ml.By = by
	return nil
}

// GetLogs returns the list's log entries.
func (m *MockRepository) GetLogs(_ context.Context, mlName string) ([]model.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ml, ok := m.mls[mlName]
	if !ok {
		return nil, errors.NewNotFound("mailing list not found")
	}
	return append([]model.LogEntry(nil), ml.Logs...), nil
}

// DeleteByTenant removes every list owned by the tenant.
func (m *MockRepository) DeleteByTenant(_ context.Context, tenantName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, ml := range m.mls {
		if ml.TenantName == tenantName {
			delete(m.mls, name)
		}
	}
	return nil
}

// SetUpdated rewrites a list's activity timestamp directly; tests use it to
// age documents past the reviewer cutoffs.
func (m *MockRepository) SetUpdated(mlName string, updated time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ml, ok := m.mls[mlName]; ok {
		ml.Updated = updated
	}
}
