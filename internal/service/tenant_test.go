// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

func setupTenantAdmin(t *testing.T) (*TenantAdmin, *mock.MockRepository) {
	t.Helper()
	repo := mock.NewMockRepository()
	return NewTenantAdmin(repo, repo), repo
}

func TestTenantCreate(t *testing.T) {
	admin, _ := setupTenantAdmin(t)
	ctx := context.Background()

	require.NoError(t, admin.Create(ctx, testTenant(), constants.ActorCLI))

	tenant, err := admin.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, model.TenantEnabled, tenant.Status)
	assert.Equal(t, int64(0), tenant.Counter)
	require.Len(t, tenant.Logs, 1)
	assert.Equal(t, model.OpCreate, tenant.Logs[0].Op)
	assert.Equal(t, constants.ActorCLI, tenant.Logs[0].By)
}

func TestTenantCreateValidation(t *testing.T) {
	admin, _ := setupTenantAdmin(t)
	ctx := context.Background()

	testCases := []struct {
		name   string
		mutate func(*model.Tenant)
	}{
		{name: "missing name", mutate: func(tn *model.Tenant) { tn.TenantName = "" }},
		{name: "no admins", mutate: func(tn *model.Tenant) { tn.Admins = nil }},
		{name: "missing seed account", mutate: func(tn *model.Tenant) { tn.NewMLAccount = "" }},
		{name: "format without verb", mutate: func(tn *model.Tenant) { tn.MLNameFormat = "static" }},
		{name: "zero orphan days", mutate: func(tn *model.Tenant) { tn.DaysToOrphan = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tenant := testTenant()
			tc.mutate(tenant)
			err := admin.Create(ctx, tenant, constants.ActorCLI)
			assert.True(t, errors.IsValidation(err), "got %v", err)
		})
	}
}

func TestTenantCreateUniqueness(t *testing.T) {
	admin, _ := setupTenantAdmin(t)
	ctx := context.Background()

	require.NoError(t, admin.Create(ctx, testTenant(), constants.ActorCLI))

	// Same tenant name.
	err := admin.Create(ctx, testTenant(), constants.ActorCLI)
	assert.True(t, errors.IsConflict(err))

	// Different name, same seed account.
	other := testTenant()
	other.TenantName = "globex"
	err = admin.Create(ctx, other, constants.ActorCLI)
	assert.True(t, errors.IsConflict(err))
}

func TestTenantUpdate(t *testing.T) {
	admin, _ := setupTenantAdmin(t)
	ctx := context.Background()
	require.NoError(t, admin.Create(ctx, testTenant(), constants.ActorCLI))

	days := 14
	require.NoError(t, admin.Update(ctx, "acme", "admin@x.org",
		&model.TenantPatch{DaysToOrphan: &days}))

	tenant, err := admin.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 14, tenant.DaysToOrphan)

	last := tenant.Logs[len(tenant.Logs)-1]
	assert.Equal(t, model.OpUpdate, last.Op)
	assert.Equal(t, "admin@x.org", last.By)
	assert.Equal(t, map[string]any{"days_to_orphan": 14}, last.Config)
}

func TestTenantUpdatePolicy(t *testing.T) {
	admin, _ := setupTenantAdmin(t)
	ctx := context.Background()
	require.NoError(t, admin.Create(ctx, testTenant(), constants.ActorCLI))

	days := 14
	// Non-admin actors are rejected.
	err := admin.Update(ctx, "acme", "random@x.org", &model.TenantPatch{DaysToOrphan: &days})
	assert.True(t, errors.IsValidation(err))

	// The CLI sentinel bypasses the admin check.
	assert.NoError(t, admin.Update(ctx, "acme", constants.ActorCLI, &model.TenantPatch{DaysToOrphan: &days}))

	// Unknown tenant.
	err = admin.Update(ctx, "ghost", constants.ActorCLI, &model.TenantPatch{DaysToOrphan: &days})
	assert.True(t, errors.IsNotFound(err))
}

func TestTenantUpdateSeedAccountUniqueness(t *testing.T) {
	admin, _ := setupTenantAdmin(t)
	ctx := context.Background()
	require.NoError(t, admin.Create(ctx, testTenant(), constants.ActorCLI))

	other := testTenant()
	other.TenantName = "globex"
	other.NewMLAccount = "fresh"
	require.NoError(t, admin.Create(ctx, other, constants.ActorCLI))

	taken := "new"
	err := admin.Update(ctx, "globex", constants.ActorCLI, &model.TenantPatch{NewMLAccount: &taken})
	assert.True(t, errors.IsConflict(err))

	// Re-setting a tenant's own account is fine.
	same := "fresh"
	assert.NoError(t, admin.Update(ctx, "globex", constants.ActorCLI, &model.TenantPatch{NewMLAccount: &same}))
}

func TestTenantDeleteCascades(t *testing.T) {
	admin, repo := setupTenantAdmin(t)
	ctx := context.Background()
	require.NoError(t, admin.Create(ctx, testTenant(), constants.ActorCLI))
	seedList(t, repo, "ml-000001", "a@x.org")
	seedList(t, repo, "ml-000002", "b@x.org")

	require.NoError(t, admin.Delete(ctx, "acme"))

	_, err := admin.Get(ctx, "acme")
	assert.True(t, errors.IsNotFound(err))

	lists, err := repo.FindMailingLists(ctx, model.Filter{}, "", false)
	require.NoError(t, err)
	assert.Empty(t, lists)

	err = admin.Delete(ctx, "acme")
	assert.True(t, errors.IsNotFound(err))
}

func TestTenantList(t *testing.T) {
	admin, _ := setupTenantAdmin(t)
	ctx := context.Background()

	second := testTenant()
	second.TenantName = "globex"
	second.NewMLAccount = "fresh"
	require.NoError(t, admin.Create(ctx, second, constants.ActorCLI))
	require.NoError(t, admin.Create(ctx, testTenant(), constants.ActorCLI))

	tenants, err := admin.List(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "acme", tenants[0].TenantName)
	assert.Equal(t, "globex", tenants[1].TenantName)
}
