// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/mailutil"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/template"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/utils"
)

// Reporter mails each enabled tenant's admins a digest of the tenant's
// lists, grouped by status. Like the reviewer it is a single-shot process.
type Reporter struct {
	tenants port.TenantRepository
	mls     port.MailingListRepository
	relay   port.Relay
	domain  string

	now func() time.Time
}

// NewReporter creates a reporter for the given service domain.
func NewReporter(tenants port.TenantRepository, mls port.MailingListRepository, relay port.Relay, domain string) *Reporter {
	return &Reporter{
		tenants: tenants,
		mls:     mls,
		relay:   relay,
		domain:  domain,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run sends one status report per enabled tenant. A failed report is logged
// and does not stop the remaining tenants.
func (r *Reporter) Run(ctx context.Context) error {
	tenants, err := r.tenants.FindTenants(ctx, model.Filter{
		"status": model.Eq(string(model.TenantEnabled)),
	}, "tenant_name", false)
	if err != nil {
		return err
	}

	for _, tenant := range tenants {
		if err := r.reportTenant(ctx, tenant); err != nil {
			slog.ErrorContext(ctx, "failed to report tenant status",
				"error", err,
				"tenant_name", tenant.TenantName,
			)
		}
	}
	return nil
}

// reportTenant renders and mails one tenant's digest.
func (r *Reporter) reportTenant(ctx context.Context, tenant *model.Tenant) error {
	params := template.NewParams()

	for _, status := range []model.Status{model.StatusNew, model.StatusOpen, model.StatusOrphaned} {
		group, err := r.digest(ctx, tenant.TenantName, model.Filter{
			"tenant_name": model.Eq(tenant.TenantName),
			"status":      model.Eq(string(status)),
		})
		if err != nil {
			return err
		}
		params[string(status)] = group
	}

	// Only recently closed lists appear; anything older has already been
	// reported within its closing window.
	closedAfter := utils.DaysAgo(r.now(), tenant.DaysToClose, 0)
	closed, err := r.digest(ctx, tenant.TenantName, model.Filter{
		"tenant_name": model.Eq(tenant.TenantName),
		"status":      model.Eq(string(model.StatusClosed)),
		"updated":     model.Gt(closedAfter),
	})
	if err != nil {
		return err
	}
	params[string(model.StatusClosed)] = closed

	content := template.Render(ctx, tenant.ReportMsg, params)

	// The report sender is a fixed account, not tied to any list.
	from := constants.ReportErrorAccount + "@" + r.domain
	to := strings.Join(tenant.Admins, ", ")
	msg, err := mailutil.BuildNotice(to, from, tenant.ReportSubject, tenant.Charset, content)
	if err != nil {
		return err
	}

	if err := r.relay.Send(ctx, from, tenant.Admins, msg); err != nil {
		return err
	}

	slog.InfoContext(ctx, "status report sent",
		"tenant_name", tenant.TenantName,
		"admins", tenant.Admins,
	)
	return nil
}

// digest loads a status group sorted by activity, oldest first.
func (r *Reporter) digest(ctx context.Context, tenantName string, filter model.Filter) ([]map[string]any, error) {
	lists, err := r.mls.FindMailingLists(ctx, filter, "updated", false)
	if err != nil {
		return nil, err
	}
	group := make([]map[string]any, 0, len(lists))
	for _, ml := range lists {
		group = append(group, template.Digest(ml))
	}
	return group, nil
}
