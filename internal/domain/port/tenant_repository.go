// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package port defines the driven-side interfaces the services depend on.
package port

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
)

// TenantRepository persists tenant documents. Every mutation appends a log
// entry and bumps the document's updated/by fields atomically with the change.
type TenantRepository interface {
	// CreateTenant stores a new tenant. It returns a Conflict error when a
	// tenant of the same name already exists.
	CreateTenant(ctx context.Context, tenant *model.Tenant, by string) error

	// UpdateTenant applies a partial update. It returns NotFound when no
	// such tenant exists.
	UpdateTenant(ctx context.Context, tenantName string, by string, patch *model.TenantPatch) error

	// DeleteTenant removes the tenant document.
	DeleteTenant(ctx context.Context, tenantName string) error

	// GetTenant fetches one tenant by name.
	GetTenant(ctx context.Context, tenantName string) (*model.Tenant, error)

	// FindTenants returns the tenants matching filter, sorted by sortKey
	// when it is non-empty.
	FindTenants(ctx context.Context, filter model.Filter, sortKey string, desc bool) ([]*model.Tenant, error)

	// IncrementCounter atomically advances the tenant's list counter and
	// returns the new value.
	IncrementCounter(ctx context.Context, tenantName string) (int64, error)
}
