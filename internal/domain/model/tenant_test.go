// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

func validTenant() *Tenant {
	return &Tenant{
		TenantName:   "example",
		Status:       TenantEnabled,
		Admins:       []string{"admin@example.net"},
		Charset:      "utf-8",
		MLNameFormat: "ml-%06d",
		NewMLAccount: "new",
		DaysToOrphan: 7,
		DaysToClose:  7,
	}
}

func TestTenantValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Tenant)
		wantErr string
	}{
		{name: "valid tenant", mutate: func(*Tenant) {}},
		{
			name:    "missing name",
			mutate:  func(tn *Tenant) { tn.TenantName = "" },
			wantErr: "tenant_name is required",
		},
		{
			name:    "bad status",
			mutate:  func(tn *Tenant) { tn.Status = "suspended" },
			wantErr: "status must be 'enabled' or 'disabled'",
		},
		{
			name:    "no admins",
			mutate:  func(tn *Tenant) { tn.Admins = nil },
			wantErr: "at least one admin address is required",
		},
		{
			name:    "missing seed account",
			mutate:  func(tn *Tenant) { tn.NewMLAccount = "" },
			wantErr: "new_ml_account is required",
		},
		{
			name:    "format without verb",
			mutate:  func(tn *Tenant) { tn.MLNameFormat = "static" },
			wantErr: "ml_name_format must consume one integer, e.g. 'ml-%06d'",
		},
		{
			name:    "non-positive days_to_orphan",
			mutate:  func(tn *Tenant) { tn.DaysToOrphan = 0 },
			wantErr: "days_to_orphan must be positive",
		},
		{
			name:    "non-positive days_to_close",
			mutate:  func(tn *Tenant) { tn.DaysToClose = -1 },
			wantErr: "days_to_close must be positive",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tenant := validTenant()
			tc.mutate(tenant)
			err := tenant.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.IsType(t, errs.Validation{}, err)
			assert.Equal(t, tc.wantErr, err.Error())
		})
	}
}

func TestTenantPatchApply(t *testing.T) {
	tenant := validTenant()
	tenant.WelcomeMsg = "old welcome"

	status := TenantDisabled
	charset := "iso-2022-jp"
	days := 14
	welcome := "new welcome"
	patch := &TenantPatch{
		Status:       &status,
		Charset:      &charset,
		DaysToOrphan: &days,
		WelcomeMsg:   &welcome,
		Admins:       []string{"a@example.net", "b@example.net"},
	}

	patch.Apply(tenant)

	assert.Equal(t, TenantDisabled, tenant.Status)
	assert.Equal(t, "iso-2022-jp", tenant.Charset)
	assert.Equal(t, 14, tenant.DaysToOrphan)
	assert.Equal(t, "new welcome", tenant.WelcomeMsg)
	assert.Equal(t, []string{"a@example.net", "b@example.net"}, tenant.Admins)
	// Untouched fields survive.
	assert.Equal(t, "new", tenant.NewMLAccount)
	assert.Equal(t, 7, tenant.DaysToClose)
}

func TestTenantPatchLogConfig(t *testing.T) {
	days := 3
	account := "start"
	patch := &TenantPatch{
		DaysToClose:  &days,
		NewMLAccount: &account,
	}

	cfg := patch.LogConfig()

	assert.Equal(t, map[string]any{
		"days_to_close":  3,
		"new_ml_account": "start",
	}, cfg)
}

func TestTenantIsAdmin(t *testing.T) {
	tenant := validTenant()
	assert.True(t, tenant.IsAdmin("admin@example.net"))
	assert.False(t, tenant.IsAdmin("user@example.net"))
}

func TestTenantCloneIsDeep(t *testing.T) {
	tenant := validTenant()
	tenant.Logs = []LogEntry{{Op: OpCreate, By: "CLI"}}

	dup := tenant.Clone()
	dup.Admins[0] = "evil@example.net"
	dup.Logs[0].Op = OpUpdate

	assert.Equal(t, "admin@example.net", tenant.Admins[0])
	assert.Equal(t, OpCreate, tenant.Logs[0].Op)
}
