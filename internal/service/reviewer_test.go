// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/constants"
)

func setupReviewer(t *testing.T) (*Reviewer, *mock.MockRepository, *mock.MockRelay) {
	t.Helper()
	repo := mock.NewMockRepository()
	relay := mock.NewMockRelay()
	require.NoError(t, repo.CreateTenant(context.Background(), testTenant(), constants.ActorCLI))
	return NewReviewer(repo, repo, relay, testDomain), repo, relay
}

func TestReviewerOrphansIdleList(t *testing.T) {
	reviewer, repo, relay := setupReviewer(t)
	ctx := context.Background()

	seedList(t, repo, "ml-000010", "a@x.org")
	require.NoError(t, repo.ChangeStatus(ctx, "ml-000010", model.StatusOpen, "a@x.org"))
	repo.SetUpdated("ml-000010", time.Now().UTC().Add(-30*24*time.Hour))

	require.NoError(t, reviewer.Run(ctx))

	ml, err := repo.GetMailingList(ctx, "ml-000010")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOrphaned, ml.Status)

	sent := relay.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ml-000010-error@"+testDomain, sent[0].From)
	assert.ElementsMatch(t, []string{"a@x.org", "admin@x.org"}, sent[0].Rcpts)
	assert.Contains(t, string(sent[0].Msg), "ml-000010 is idle")

	// A second run within the window is a no-op.
	require.NoError(t, reviewer.Run(ctx))
	ml, err = repo.GetMailingList(ctx, "ml-000010")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOrphaned, ml.Status)
	assert.Len(t, relay.Sent(), 1)
}

func TestReviewerClosesIdleOrphanedList(t *testing.T) {
	reviewer, repo, relay := setupReviewer(t)
	ctx := context.Background()

	seedList(t, repo, "ml-000010", "a@x.org")
	require.NoError(t, repo.ChangeStatus(ctx, "ml-000010", model.StatusOpen, "a@x.org"))
	require.NoError(t, repo.ChangeStatus(ctx, "ml-000010", model.StatusOrphaned, constants.ActorReviewer))
	repo.SetUpdated("ml-000010", time.Now().UTC().Add(-30*24*time.Hour))

	require.NoError(t, reviewer.Run(ctx))

	ml, err := repo.GetMailingList(ctx, "ml-000010")
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, ml.Status)
	require.Len(t, relay.Sent(), 1)
	assert.Contains(t, string(relay.Sent()[0].Msg), "ml-000010 is done")
}

func TestReviewerNeverSkipsOpenToClosed(t *testing.T) {
	reviewer, repo, _ := setupReviewer(t)
	ctx := context.Background()

	// Far past both thresholds, yet one run only advances one step.
	seedList(t, repo, "ml-000010", "a@x.org")
	require.NoError(t, repo.ChangeStatus(ctx, "ml-000010", model.StatusOpen, "a@x.org"))
	repo.SetUpdated("ml-000010", time.Now().UTC().Add(-365*24*time.Hour))

	require.NoError(t, reviewer.Run(ctx))

	ml, err := repo.GetMailingList(ctx, "ml-000010")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOrphaned, ml.Status)
}

func TestReviewerGraceWindow(t *testing.T) {
	reviewer, repo, relay := setupReviewer(t)
	ctx := context.Background()

	// Idle two hours short of days_to_orphan: outside even the shifted cutoff.
	seedList(t, repo, "ml-000010", "a@x.org")
	require.NoError(t, repo.ChangeStatus(ctx, "ml-000010", model.StatusOpen, "a@x.org"))
	repo.SetUpdated("ml-000010", time.Now().UTC().Add(-7*24*time.Hour+2*time.Hour))

	require.NoError(t, reviewer.Run(ctx))

	ml, err := repo.GetMailingList(ctx, "ml-000010")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, ml.Status)
	assert.Empty(t, relay.Sent())
}

func TestReviewerIgnoresNewLists(t *testing.T) {
	reviewer, repo, relay := setupReviewer(t)
	ctx := context.Background()

	seedList(t, repo, "ml-000010", "a@x.org")
	repo.SetUpdated("ml-000010", time.Now().UTC().Add(-365*24*time.Hour))

	require.NoError(t, reviewer.Run(ctx))

	ml, err := repo.GetMailingList(ctx, "ml-000010")
	require.NoError(t, err)
	assert.Equal(t, model.StatusNew, ml.Status)
	assert.Empty(t, relay.Sent())
}

func TestReviewerNotificationFailureLeavesStatus(t *testing.T) {
	reviewer, repo, relay := setupReviewer(t)
	ctx := context.Background()

	seedList(t, repo, "ml-000010", "a@x.org")
	require.NoError(t, repo.ChangeStatus(ctx, "ml-000010", model.StatusOpen, "a@x.org"))
	repo.SetUpdated("ml-000010", time.Now().UTC().Add(-30*24*time.Hour))
	relay.Err = fmt.Errorf("connection refused")

	require.NoError(t, reviewer.Run(ctx))

	// The list stays open so the next run can retry the notification.
	ml, err := repo.GetMailingList(ctx, "ml-000010")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, ml.Status)
}

func TestReviewerSkipsDisabledTenants(t *testing.T) {
	reviewer, repo, relay := setupReviewer(t)
	ctx := context.Background()

	disabled := model.TenantDisabled
	require.NoError(t, repo.UpdateTenant(ctx, "acme", constants.ActorCLI,
		&model.TenantPatch{Status: &disabled}))

	seedList(t, repo, "ml-000010", "a@x.org")
	require.NoError(t, repo.ChangeStatus(ctx, "ml-000010", model.StatusOpen, "a@x.org"))
	repo.SetUpdated("ml-000010", time.Now().UTC().Add(-30*24*time.Hour))

	require.NoError(t, reviewer.Run(ctx))

	ml, err := repo.GetMailingList(ctx, "ml-000010")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, ml.Status)
	assert.Empty(t, relay.Sent())
}
