// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/mailutil"
	errs "github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

// casRetries bounds optimistic-concurrency retry loops. Contention on a
// single tenant or list document is rare, so a handful of attempts is plenty.
const casRetries = 10

// Storage implements the tenant and mailing-list repositories on NATS
// JetStream key-value buckets. Documents are JSON; every mutation is a
// revision-checked read-modify-write, so the appended log entry, the
// updated/by bump, and the change itself land in one atomic step.
type Storage struct {
	client *NATSClient
}

// NewStorage creates a Storage backed by the given client.
func NewStorage(client *NATSClient) *Storage {
	return &Storage{client: client}
}

// isWrongRevision reports whether err means the revision check lost a race
// and the operation should be retried with a fresh read.
func isWrongRevision(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
	}
	return false
}

// CreateTenant stores a new tenant document keyed by tenant name.
func (s *Storage) CreateTenant(ctx context.Context, tenant *model.Tenant, by string) error {
	slog.DebugContext(ctx, "nats storage: creating tenant", "tenant_name", tenant.TenantName)

	now := time.Now().UTC()
	doc := tenant.Clone()
	doc.Created = now
	doc.Updated = now
	doc.By = by
	doc.Logs = []model.LogEntry{{Op: model.OpCreate, By: by, TS: now}}

	data, err := json.Marshal(doc)
	if err != nil {
		return errs.NewUnexpected("failed to encode tenant", err)
	}

	if _, err := s.client.tenantKV.Create(ctx, doc.TenantName, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return errs.NewConflict("tenant already exists")
		}
		slog.ErrorContext(ctx, "failed to create tenant", "error", err, "tenant_name", doc.TenantName)
		return errs.NewServiceUnavailable("failed to create tenant", err)
	}
	return nil
}

// UpdateTenant applies a partial update and logs which fields changed.
func (s *Storage) UpdateTenant(ctx context.Context, tenantName string, by string, patch *model.TenantPatch) error {
	slog.DebugContext(ctx, "nats storage: updating tenant", "tenant_name", tenantName)

	return s.mutateTenant(ctx, tenantName, func(t *model.Tenant, now time.Time) error {
		patch.Apply(t)
		t.Logs = append(t.Logs, model.LogEntry{
			Op: model.OpUpdate, By: by, TS: now, Config: patch.LogConfig(),
		})
		t.Updated = now
		t.By = by
		return nil
	})
}

// DeleteTenant removes the tenant document.
func (s *Storage) DeleteTenant(ctx context.Context, tenantName string) error {
	slog.DebugContext(ctx, "nats storage: deleting tenant", "tenant_name", tenantName)

	if _, _, err := s.getTenant(ctx, tenantName); err != nil {
		return err
	}
	if err := s.client.tenantKV.Delete(ctx, tenantName); err != nil {
		slog.ErrorContext(ctx, "failed to delete tenant", "error", err, "tenant_name", tenantName)
		return errs.NewServiceUnavailable("failed to delete tenant", err)
	}
	return nil
}

// GetTenant fetches one tenant by name.
func (s *Storage) GetTenant(ctx context.Context, tenantName string) (*model.Tenant, error) {
	tenant, _, err := s.getTenant(ctx, tenantName)
	return tenant, err
}

// FindTenants returns the tenants matching filter, sorted by sortKey.
func (s *Storage) FindTenants(ctx context.Context, filter model.Filter, sortKey string, desc bool) ([]*model.Tenant, error) {
	keys, err := s.listKeys(ctx, s.client.tenantKV)
	if err != nil {
		return nil, err
	}

	var out []*model.Tenant
	for _, key := range keys {
		tenant, _, err := s.getTenant(ctx, key)
		if err != nil {
			if errs.IsNotFound(err) {
				continue // deleted between listing and fetch
			}
			return nil, err
		}
		if filter.Matches(tenant) {
			out = append(out, tenant)
		}
	}
	model.SortByField(out, sortKey, desc)
	return out, nil
}

// IncrementCounter atomically advances the tenant counter and returns the new
// value. The counter bump is not an audit-log event.
func (s *Storage) IncrementCounter(ctx context.Context, tenantName string) (int64, error) {
	var counter int64
	err := s.mutateTenant(ctx, tenantName, func(t *model.Tenant, _ time.Time) error {
		t.Counter++
		counter = t.Counter
		return nil
	})
	if err != nil {
		return 0, err
	}
	return counter, nil
}

// CreateMailingList stores a new list in status "new".
func (s *Storage) CreateMailingList(ctx context.Context, mlName, tenantName, subject string, members mailutil.AddressSet, by string) error {
	slog.DebugContext(ctx, "nats storage: creating mailing list",
		"ml_name", mlName,
		"tenant_name", tenantName,
	)

	now := time.Now().UTC()
	doc := &model.MailingList{
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

	data, err := json.Marshal(doc)
	if err != nil {
		return errs.NewUnexpected("failed to encode mailing list", err)
	}

	if _, err := s.client.mlKV.Create(ctx, mlName, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return errs.NewConflict("mailing list already exists")
		}
		slog.ErrorContext(ctx, "failed to create mailing list", "error", err, "ml_name", mlName)
		return errs.NewServiceUnavailable("failed to create mailing list", err)
	}
	return nil
}

// GetMailingList fetches one list by name.
func (s *Storage) GetMailingList(ctx context.Context, mlName string) (*model.MailingList, error) {
	ml, _, err := s.getML(ctx, mlName)
	return ml, err
}

// FindMailingLists returns the lists matching filter, sorted by sortKey.
func (s *Storage) FindMailingLists(ctx context.Context, filter model.Filter, sortKey string, desc bool) ([]*model.MailingList, error) {
	keys, err := s.listKeys(ctx, s.client.mlKV)
	if err != nil {
		return nil, err
	}

	var out []*model.MailingList
	for _, key := range keys {
		ml, _, err := s.getML(ctx, key)
		if err != nil {
			if errs.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if filter.Matches(ml) {
			out = append(out, ml)
		}
	}
	model.SortByField(out, sortKey, desc)
	return out, nil
}

// ChangeStatus moves the list to status and logs the transition.
func (s *Storage) ChangeStatus(ctx context.Context, mlName string, status model.Status, by string) error {
	slog.DebugContext(ctx, "nats storage: changing mailing list status",
		"ml_name", mlName,
		"status", status,
	)

	return s.mutateML(ctx, mlName, func(ml *model.MailingList, now time.Time) error {
		if !ml.Status.CanTransitionTo(status) {
			return errs.NewValidation("invalid status transition from " + string(ml.Status) + " to " + string(status))
		}
		ml.Status = status
		ml.Logs = append(ml.Logs, model.LogEntry{Op: model.OpForStatus(status), By: by, TS: now})
		ml.Updated = now
		ml.By = by
		return nil
	})
}

// AddMembers unions addrs into the membership.
func (s *Storage) AddMembers(ctx context.Context, mlName string, addrs mailutil.AddressSet, by string) error {
	return s.mutateML(ctx, mlName, func(ml *model.MailingList, now time.Time) error {
		members := mailutil.NewAddressSet(ml.Members...).Union(addrs)
		ml.Members = members.Sorted()
		ml.Logs = append(ml.Logs, model.LogEntry{
			Op: model.OpAddMembers, By: by, TS: now, Members: addrs.Sorted(),
		})
		ml.Updated = now
		ml.By = by
		return nil
	})
}

// DelMembers subtracts addrs from the membership.
func (s *Storage) DelMembers(ctx context.Context, mlName string, addrs mailutil.AddressSet, by string) error {
	return s.mutateML(ctx, mlName, func(ml *model.MailingList, now time.Time) error {
		members := mailutil.NewAddressSet(ml.Members...).Diff(addrs)
		ml.Members = members.Sorted()
		ml.Logs = append(ml.Logs, model.LogEntry{
			Op: model.OpDelMembers, By: by, TS: now, Members: addrs.Sorted(),
		})
		ml.Updated = now
		ml.By = by
		return nil
	})
}

// GetMembers returns the current membership.
func (s *Storage) GetMembers(ctx context.Context, mlName string) (mailutil.AddressSet, error) {
	ml, _, err := s.getML(ctx, mlName)
	if err != nil {
		return nil, err
	}
	return mailutil.NewAddressSet(ml.Members...), nil
}

// MarkOrphaned moves every open list of the tenant whose activity predates
// lastUpdated into "orphaned", returning the lists moved.
func (s *Storage) MarkOrphaned(ctx context.Context, tenantName string, lastUpdated time.Time, by string) ([]*model.MailingList, error) {
	return s.sweep(ctx, tenantName, model.StatusOpen, model.StatusOrphaned, lastUpdated, by)
}

// MarkClosed moves every orphaned list of the tenant whose activity predates
// lastUpdated into "closed", returning the lists moved.
func (s *Storage) MarkClosed(ctx context.Context, tenantName string, lastUpdated time.Time, by string) ([]*model.MailingList, error) {
	return s.sweep(ctx, tenantName, model.StatusOrphaned, model.StatusClosed, lastUpdated, by)
}

// sweep is the shared inactivity pass behind MarkOrphaned and MarkClosed.
func (s *Storage) sweep(ctx context.Context, tenantName string, from, to model.Status, lastUpdated time.Time, by string) ([]*model.MailingList, error) {
	filter := model.Filter{
		"tenant_name": model.Eq(tenantName),
		"status":      model.Eq(string(from)),
		"updated":     model.Lt(lastUpdated),
	}
	stale, err := s.FindMailingLists(ctx, filter, "ml_name", false)
	if err != nil {
		return nil, err
	}

	var moved []*model.MailingList
	for _, ml := range stale {
		err := s.mutateML(ctx, ml.MLName, func(doc *model.MailingList, now time.Time) error {
			// Re-check under the revision guard: someone may have posted
			// or reopened between the scan and this write.
			if doc.Status != from || !doc.Updated.Before(lastUpdated) {
				return errSweepSkip
			}
			doc.Status = to
			doc.Logs = append(doc.Logs, model.LogEntry{Op: model.OpForStatus(to), By: by, TS: now})
			doc.Updated = now
			doc.By = by
			return nil
		})
		if err != nil {
			if errors.Is(err, errSweepSkip) {
				continue
			}
			return moved, err
		}
		moved = append(moved, ml)
	}
	return moved, nil
}

var errSweepSkip = errors.New("sweep: document changed, skipping")

// LogPost records a fan-out with its recipient set, refreshing the activity
// timestamp.
func (s *Storage) LogPost(ctx context.Context, mlName string, members mailutil.AddressSet, by string) error {
	return s.mutateML(ctx, mlName, func(ml *model.MailingList, now time.Time) error {
		ml.Logs = append(ml.Logs, model.LogEntry{Op: model.OpPost, By: by, TS: now, Members: members.Sorted()})
		ml.Updated = now
		ml.By = by
		return nil
	})
}

// GetLogs returns the list's log entries in append order.
func (s *Storage) GetLogs(ctx context.Context, mlName string) ([]model.LogEntry, error) {
	ml, _, err := s.getML(ctx, mlName)
	if err != nil {
		return nil, err
	}
	return ml.Logs, nil
}

// DeleteByTenant removes every list owned by the tenant.
func (s *Storage) DeleteByTenant(ctx context.Context, tenantName string) error {
	lists, err := s.FindMailingLists(ctx, model.Filter{"tenant_name": model.Eq(tenantName)}, "", false)
	if err != nil {
		return err
	}
	for _, ml := range lists {
		if err := s.client.mlKV.Delete(ctx, ml.MLName); err != nil {
			slog.ErrorContext(ctx, "failed to delete mailing list", "error", err, "ml_name", ml.MLName)
			return errs.NewServiceUnavailable("failed to delete mailing list", err)
		}
	}
	return nil
}

func (s *Storage) getTenant(ctx context.Context, tenantName string) (*model.Tenant, uint64, error) {
	if tenantName == "" {
		return nil, 0, errs.NewValidation("tenant name cannot be empty")
	}
	entry, err := s.client.tenantKV.Get(ctx, tenantName)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, errs.NewNotFound("tenant not found")
		}
		slog.ErrorContext(ctx, "failed to get tenant", "error", err, "tenant_name", tenantName)
		return nil, 0, errs.NewServiceUnavailable("failed to get tenant", err)
	}
	tenant := &model.Tenant{}
	if err := json.Unmarshal(entry.Value(), tenant); err != nil {
		return nil, 0, errs.NewUnexpected("failed to decode tenant", err)
	}
	return tenant, entry.Revision(), nil
}

func (s *Storage) getML(ctx context.Context, mlName string) (*model.MailingList, uint64, error) {
	if mlName == "" {
		return nil, 0, errs.NewValidation("mailing list name cannot be empty")
	}
	entry, err := s.client.mlKV.Get(ctx, mlName)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, errs.NewNotFound("mailing list not found")
		}
		slog.ErrorContext(ctx, "failed to get mailing list", "error", err, "ml_name", mlName)
		return nil, 0, errs.NewServiceUnavailable("failed to get mailing list", err)
	}
	ml := &model.MailingList{}
	if err := json.Unmarshal(entry.Value(), ml); err != nil {
		return nil, 0, errs.NewUnexpected("failed to decode mailing list", err)
	}
	return ml, entry.Revision(), nil
}

// mutateTenant runs fn inside a revision-checked read-modify-write loop.
func (s *Storage) mutateTenant(ctx context.Context, tenantName string, fn func(*model.Tenant, time.Time) error) error {
	for i := 0; i < casRetries; i++ {
		tenant, rev, err := s.getTenant(ctx, tenantName)
		if err != nil {
			return err
		}
		if err := fn(tenant, time.Now().UTC()); err != nil {
			return err
		}
		data, err := json.Marshal(tenant)
		if err != nil {
			return errs.NewUnexpected("failed to encode tenant", err)
		}
		_, err = s.client.tenantKV.Update(ctx, tenantName, data, rev)
		if err == nil {
			return nil
		}
		if !isWrongRevision(err) {
			slog.ErrorContext(ctx, "failed to update tenant", "error", err, "tenant_name", tenantName)
			return errs.NewServiceUnavailable("failed to update tenant", err)
		}
	}
	return errs.NewServiceUnavailable("tenant update lost too many revision races")
}

// mutateML runs fn inside a revision-checked read-modify-write loop.
func (s *Storage) mutateML(ctx context.Context, mlName string, fn func(*model.MailingList, time.Time) error) error {
	for i := 0; i < casRetries; i++ {
		ml, rev, err := s.getML(ctx, mlName)
		if err != nil {
			return err
		}
		if err := fn(ml, time.Now().UTC()); err != nil {
			return err
		}
		data, err := json.Marshal(ml)
		if err != nil {
			return errs.NewUnexpected("failed to encode mailing list", err)
		}
		_, err = s.client.mlKV.Update(ctx, mlName, data, rev)
		if err == nil {
			return nil
		}
		if !isWrongRevision(err) {
			slog.ErrorContext(ctx, "failed to update mailing list", "error", err, "ml_name", mlName)
			return errs.NewServiceUnavailable("failed to update mailing list", err)
		}
	}
	return errs.NewServiceUnavailable("mailing list update lost too many revision races")
}

// listKeys drains a bucket's key lister. An empty bucket is not an error.
func (s *Storage) listKeys(ctx context.Context, kv jetstream.KeyValue) ([]string, error) {
	lister, err := kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, errs.NewServiceUnavailable("failed to list keys", err)
	}
	var keys []string
	for key := range lister.Keys() {
		keys = append(keys, key)
	}
	return keys, nil
}
