// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/mailutil"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/template"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/utils"
)

// reviewGrace shifts the inactivity cutoff forward by one hour. A run
// scheduled daily would otherwise keep missing lists whose last activity
// falls just after the previous run.
const reviewGrace = time.Hour

// reviewerConcurrency bounds how many tenants are reviewed in parallel.
const reviewerConcurrency = 4

// Reviewer advances idle lists through open -> orphaned -> closed and
// notifies the members of each transition. It is a single-shot process run
// by an external scheduler; overlapping runs are harmless.
type Reviewer struct {
	tenants port.TenantRepository
	mls     port.MailingListRepository
	relay   port.Relay
	domain  string

	// now supplies the reference time; tests override it.
	now func() time.Time
}

// NewReviewer creates a reviewer for the given service domain.
func NewReviewer(tenants port.TenantRepository, mls port.MailingListRepository, relay port.Relay, domain string) *Reviewer {
	return &Reviewer{
		tenants: tenants,
		mls:     mls,
		relay:   relay,
		domain:  domain,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run performs one review pass over every enabled tenant.
func (r *Reviewer) Run(ctx context.Context) error {
	tenants, err := r.tenants.FindTenants(ctx, model.Filter{
		"status": model.Eq(string(model.TenantEnabled)),
	}, "tenant_name", false)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reviewerConcurrency)
	for _, tenant := range tenants {
		tenant := tenant
		g.Go(func() error {
			return r.reviewTenant(ctx, tenant)
		})
	}
	return g.Wait()
}

// reviewTenant runs both transitions for one tenant. The closing pass runs
// first so a list never skips from open to closed within a single run.
func (r *Reviewer) reviewTenant(ctx context.Context, tenant *model.Tenant) error {
	now := r.now()

	closeCutoff := utils.DaysAgo(now, tenant.DaysToClose, reviewGrace)
	if err := r.advance(ctx, tenant, model.StatusOrphaned, model.StatusClosed, closeCutoff); err != nil {
		return err
	}

	orphanCutoff := utils.DaysAgo(now, tenant.DaysToOrphan, reviewGrace)
	return r.advance(ctx, tenant, model.StatusOpen, model.StatusOrphaned, orphanCutoff)
}

// advance moves every list of the tenant idle since cutoff from one status
// to the next, notifying members first. A failed notification is logged and
// leaves that list untouched for the next run.
func (r *Reviewer) advance(ctx context.Context, tenant *model.Tenant, from, to model.Status, cutoff time.Time) error {
	stale, err := r.mls.FindMailingLists(ctx, model.Filter{
		"tenant_name": model.Eq(tenant.TenantName),
		"status":      model.Eq(string(from)),
		"updated":     model.Lte(cutoff),
	}, "updated", false)
	if err != nil {
		return err
	}

	subject := tenant.OrphanedSubject
	tmpl := tenant.OrphanedMsg
	if to == model.StatusClosed {
		subject = tenant.ClosedSubject
		tmpl = tenant.ClosedMsg
	}

	admins := mailutil.NewAddressSet(tenant.Admins...)
	for _, ml := range stale {
		if err := r.notify(ctx, tenant, ml, admins, subject, tmpl); err != nil {
			slog.ErrorContext(ctx, "failed to notify status change",
				"error", err,
				"ml_name", ml.MLName,
				"new_status", to,
			)
			continue
		}
		if err := r.mls.ChangeStatus(ctx, ml.MLName, to, constants.ActorReviewer); err != nil {
			slog.ErrorContext(ctx, "failed to change status",
				"error", err,
				"ml_name", ml.MLName,
				"new_status", to,
			)
			continue
		}
		slog.InfoContext(ctx, "mailing list advanced",
			"ml_name", ml.MLName,
			"old_status", from,
			"new_status", to,
		)
	}
	return nil
}

// notify renders the transition notice and mails it to members plus admins.
func (r *Reviewer) notify(ctx context.Context, tenant *model.Tenant, ml *model.MailingList,
	admins mailutil.AddressSet, subject, tmpl string) error {

	members, err := r.mls.GetMembers(ctx, ml.MLName)
	if err != nil {
		return err
	}
	recipients := members.Union(admins)

	mlAddress := ml.MLName + "@" + r.domain
	params := template.NewParams()
	params["ml_name"] = ml.MLName
	params["ml_address"] = mlAddress
	params["new_ml_address"] = tenant.NewMLAccount + "@" + r.domain
	params["subject"] = string(ml.Status)
	params["members"] = members.Sorted()
	content := template.Render(ctx, tmpl, params)

	envelopeFrom := ml.MLName + constants.ErrorSuffix + "@" + r.domain
	msg, err := mailutil.BuildNotice(mlAddress, envelopeFrom, subject, tenant.Charset, content)
	if err != nil {
		return err
	}

	if err := r.relay.Send(ctx, envelopeFrom, recipients.Sorted(), msg); err != nil {
		return err
	}
	return r.mls.LogPost(ctx, ml.MLName, recipients, constants.ActorReviewer)
}
