// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/mailutil"
)

// MailingListRepository persists mailing-list documents. Mutations append a
// log entry and bump updated/by atomically with the change, so list activity
// can be judged from the document alone.
type MailingListRepository interface {
	// CreateMailingList stores a new list with the given initial members in
	// status "new". It returns a Conflict error when the name is taken.
	CreateMailingList(ctx context.Context, mlName, tenantName, subject string, members mailutil.AddressSet, by string) error

	// GetMailingList fetches one list by name.
	GetMailingList(ctx context.Context, mlName string) (*model.MailingList, error)

	// FindMailingLists returns the lists matching filter, sorted by sortKey
	// when it is non-empty.
	FindMailingLists(ctx context.Context, filter model.Filter, sortKey string, desc bool) ([]*model.MailingList, error)

	// ChangeStatus moves the list to status, recording who asked.
	ChangeStatus(ctx context.Context, mlName string, status model.Status, by string) error

	// AddMembers unions addrs into the membership.
	AddMembers(ctx context.Context, mlName string, addrs mailutil.AddressSet, by string) error

	// DelMembers subtracts addrs from the membership.
	DelMembers(ctx context.Context, mlName string, addrs mailutil.AddressSet, by string) error

	// GetMembers returns the current membership.
	GetMembers(ctx context.Context, mlName string) (mailutil.AddressSet, error)

	// MarkOrphaned moves to "orphaned" every open list of the tenant whose
	// last activity is older than lastUpdated, and returns the lists moved.
	MarkOrphaned(ctx context.Context, tenantName string, lastUpdated time.Time, by string) ([]*model.MailingList, error)

	// MarkClosed moves to "closed" every orphaned list of the tenant whose
	// last activity is older than lastUpdated, and returns the lists moved.
	MarkClosed(ctx context.Context, tenantName string, lastUpdated time.Time, by string) ([]*model.MailingList, error)

	// LogPost records a post fan-out with its recipient set, refreshing the
	// activity timestamp.
	LogPost(ctx context.Context, mlName string, members mailutil.AddressSet, by string) error

	// GetLogs returns the list's log entries in append order.
	GetLogs(ctx context.Context, mlName string) ([]model.LogEntry, error)

	// DeleteByTenant removes every list owned by the tenant.
	DeleteByTenant(ctx context.Context, tenantName string) error
}
