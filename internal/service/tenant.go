// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

// TenantAdmin wraps the tenant repository with the administrative policy:
// field validation, new_ml_account uniqueness, admin-only updates, and the
// cascade on delete.
type TenantAdmin struct {
	tenants port.TenantRepository
	mls     port.MailingListRepository
}

// NewTenantAdmin creates the tenant administration service.
func NewTenantAdmin(tenants port.TenantRepository, mls port.MailingListRepository) *TenantAdmin {
	return &TenantAdmin{tenants: tenants, mls: mls}
}

// Create validates and stores a new tenant with a zero counter. The status
// defaults to enabled when unset.
func (a *TenantAdmin) Create(ctx context.Context, tenant *model.Tenant, by string) error {
	if tenant.Status == "" {
		tenant.Status = model.TenantEnabled
	}
	tenant.Counter = 0

	if err := tenant.Validate(); err != nil {
		return err
	}
	if err := a.checkAccountUnique(ctx, tenant.NewMLAccount, tenant.TenantName); err != nil {
		return err
	}

	if err := a.tenants.CreateTenant(ctx, tenant, by); err != nil {
		return err
	}
	slog.InfoContext(ctx, "tenant created", "tenant_name", tenant.TenantName, "by", by)
	return nil
}

// Update applies a patch. Only tenant admins may update, except the CLI
// sentinel actor.
func (a *TenantAdmin) Update(ctx context.Context, tenantName string, by string, patch *model.TenantPatch) error {
	tenant, err := a.tenants.GetTenant(ctx, tenantName)
	if err != nil {
		return err
	}
	if by != constants.ActorCLI && !tenant.IsAdmin(by) {
		return errors.NewValidation("only tenant admins may update a tenant")
	}

	if patch.NewMLAccount != nil && *patch.NewMLAccount != tenant.NewMLAccount {
		if err := a.checkAccountUnique(ctx, *patch.NewMLAccount, tenantName); err != nil {
			return err
		}
	}

	// Validate the patched document before persisting anything.
	preview := tenant.Clone()
	patch.Apply(preview)
	if err := preview.Validate(); err != nil {
		return err
	}

	if err := a.tenants.UpdateTenant(ctx, tenantName, by, patch); err != nil {
		return err
	}
	slog.InfoContext(ctx, "tenant updated", "tenant_name", tenantName, "by", by)
	return nil
}

// Delete removes the tenant and cascades to every list it owns.
func (a *TenantAdmin) Delete(ctx context.Context, tenantName string) error {
	if _, err := a.tenants.GetTenant(ctx, tenantName); err != nil {
		return err
	}
	if err := a.mls.DeleteByTenant(ctx, tenantName); err != nil {
		return err
	}
	if err := a.tenants.DeleteTenant(ctx, tenantName); err != nil {
		return err
	}
	slog.InfoContext(ctx, "tenant deleted", "tenant_name", tenantName)
	return nil
}

// Get fetches one tenant.
func (a *TenantAdmin) Get(ctx context.Context, tenantName string) (*model.Tenant, error) {
	return a.tenants.GetTenant(ctx, tenantName)
}

// List returns every tenant sorted by name.
func (a *TenantAdmin) List(ctx context.Context) ([]*model.Tenant, error) {
	return a.tenants.FindTenants(ctx, model.Filter{}, "tenant_name", false)
}

// checkAccountUnique rejects a new_ml_account already claimed by another
// tenant. Seed addresses route list creation, so a collision would make
// routing ambiguous.
func (a *TenantAdmin) checkAccountUnique(ctx context.Context, account, selfName string) error {
	others, err := a.tenants.FindTenants(ctx, model.Filter{
		"new_ml_account": model.Eq(account),
	}, "", false)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.TenantName != selfName {
			slog.ErrorContext(ctx, "new_ml_account collision",
				"new_ml_account", account,
				"claimed_by", other.TenantName,
			)
			return errors.NewConflict("new_ml_account is already in use")
		}
	}
	return nil
}
