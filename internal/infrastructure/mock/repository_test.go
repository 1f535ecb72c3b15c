// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/mailutil"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

func newRepoWithList(t *testing.T, members ...string) *MockRepository {
	t.Helper()
	repo := NewMockRepository()
	err := repo.CreateMailingList(context.Background(), "ml-000001", "acme", "subject",
		mailutil.NewAddressSet(members...), "a@x.org")
	require.NoError(t, err)
	return repo
}

func TestAddThenDelRoundTrip(t *testing.T) {
	repo := newRepoWithList(t, "a@x.org")
	ctx := context.Background()

	batch := mailutil.NewAddressSet("b@x.org", "c@x.org")
	require.NoError(t, repo.AddMembers(ctx, "ml-000001", batch, "a@x.org"))
	require.NoError(t, repo.DelMembers(ctx, "ml-000001", batch, "a@x.org"))

	members, err := repo.GetMembers(ctx, "ml-000001")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.org"}, members.Sorted())

	// Both operations were logged even though the net change is zero.
	logs, err := repo.GetLogs(ctx, "ml-000001")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, model.OpAddMembers, logs[1].Op)
	assert.Equal(t, model.OpDelMembers, logs[2].Op)
}

func TestMembershipIsASet(t *testing.T) {
	repo := newRepoWithList(t, "a@x.org")
	ctx := context.Background()

	require.NoError(t, repo.AddMembers(ctx, "ml-000001",
		mailutil.NewAddressSet("a@x.org", "b@x.org"), "a@x.org"))

	members, err := repo.GetMembers(ctx, "ml-000001")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.org", "b@x.org"}, members.Sorted())
}

func TestStatusTransitionValidation(t *testing.T) {
	repo := newRepoWithList(t, "a@x.org")
	ctx := context.Background()

	// new -> orphaned is never legal.
	err := repo.ChangeStatus(ctx, "ml-000001", model.StatusOrphaned, "a@x.org")
	assert.True(t, errors.IsValidation(err))

	require.NoError(t, repo.ChangeStatus(ctx, "ml-000001", model.StatusOpen, "a@x.org"))
	require.NoError(t, repo.ChangeStatus(ctx, "ml-000001", model.StatusClosed, "a@x.org"))

	// closed -> orphaned is never legal either.
	err = repo.ChangeStatus(ctx, "ml-000001", model.StatusOrphaned, "reviewer")
	assert.True(t, errors.IsValidation(err))

	// Reopen, and verify one log entry per transition.
	require.NoError(t, repo.ChangeStatus(ctx, "ml-000001", model.StatusOpen, "a@x.org"))
	logs, err := repo.GetLogs(ctx, "ml-000001")
	require.NoError(t, err)
	ops := make([]string, 0, len(logs))
	for _, entry := range logs {
		ops = append(ops, entry.Op)
	}
	assert.Equal(t, []string{model.OpCreate, model.OpReopen, model.OpClose, model.OpReopen}, ops)
}

func TestSweepIdempotency(t *testing.T) {
	repo := newRepoWithList(t, "a@x.org")
	ctx := context.Background()

	require.NoError(t, repo.ChangeStatus(ctx, "ml-000001", model.StatusOpen, "a@x.org"))
	repo.SetUpdated("ml-000001", time.Now().UTC().Add(-48*time.Hour))

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	moved, err := repo.MarkOrphaned(ctx, "acme", cutoff, "reviewer")
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, "ml-000001", moved[0].MLName)

	// Same cutoff again: the list is already orphaned and freshly updated.
	moved, err = repo.MarkOrphaned(ctx, "acme", cutoff, "reviewer")
	require.NoError(t, err)
	assert.Empty(t, moved)

	// And the closing sweep only sees it once it is stale again.
	moved, err = repo.MarkClosed(ctx, "acme", cutoff, "reviewer")
	require.NoError(t, err)
	assert.Empty(t, moved)

	repo.SetUpdated("ml-000001", time.Now().UTC().Add(-48*time.Hour))
	moved, err = repo.MarkClosed(ctx, "acme", cutoff, "reviewer")
	require.NoError(t, err)
	require.Len(t, moved, 1)

	ml, err := repo.GetMailingList(ctx, "ml-000001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, ml.Status)
}

func TestIncrementCounter(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateTenant(ctx, &model.Tenant{TenantName: "acme"}, "CLI"))

	for want := int64(1); want <= 3; want++ {
		n, err := repo.IncrementCounter(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	_, err := repo.IncrementCounter(ctx, "ghost")
	assert.True(t, errors.IsNotFound(err))
}

func TestFindMailingListsFilterAndSort(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()

	for _, name := range []string{"ml-000003", "ml-000001", "ml-000002"} {
		require.NoError(t, repo.CreateMailingList(ctx, name, "acme", "s",
			mailutil.NewAddressSet("a@x.org"), "a@x.org"))
	}
	require.NoError(t, repo.ChangeStatus(ctx, "ml-000002", model.StatusOpen, "a@x.org"))

	open, err := repo.FindMailingLists(ctx, model.Filter{
		"status": model.Eq(string(model.StatusOpen)),
	}, "ml_name", false)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "ml-000002", open[0].MLName)

	all, err := repo.FindMailingLists(ctx, model.Filter{}, "ml_name", true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ml-000003", all[0].MLName)
}

func TestCreateMailingListConflict(t *testing.T) {
	repo := newRepoWithList(t, "a@x.org")

	err := repo.CreateMailingList(context.Background(), "ml-000001", "acme", "other",
		mailutil.NewAddressSet("b@x.org"), "b@x.org")
	assert.True(t, errors.IsConflict(err))
}

func TestGetMembersMissingList(t *testing.T) {
	repo := NewMockRepository()

	_, err := repo.GetMembers(context.Background(), "ml-999999")
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteByTenant(t *testing.T) {
	repo := newRepoWithList(t, "a@x.org")
	ctx := context.Background()
	require.NoError(t, repo.CreateMailingList(ctx, "ml-other", "globex", "s",
		mailutil.NewAddressSet("z@x.org"), "z@x.org"))

	require.NoError(t, repo.DeleteByTenant(ctx, "acme"))

	_, err := repo.GetMailingList(ctx, "ml-000001")
	assert.True(t, errors.IsNotFound(err))

	_, err = repo.GetMailingList(ctx, "ml-other")
	assert.NoError(t, err)
}
