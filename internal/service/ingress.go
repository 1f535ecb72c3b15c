// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package service implements the mailing-list state machine and the two
// periodic processes (reviewer and reporter).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/mailutil"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/template"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

// Ingress classifies each accepted message and drives the list lifecycle.
// Processing one message is a pure function of the message, the envelope,
// and the current store state; the outcome is a set of store mutations, at
// most one outbound mail, and the SMTP reply.
type Ingress struct {
	tenants port.TenantRepository
	mls     port.MailingListRepository
	relay   port.Relay
	domain  string
}

// NewIngress creates the ingress handler for the given service domain.
func NewIngress(tenants port.TenantRepository, mls port.MailingListRepository, relay port.Relay, domain string) *Ingress {
	return &Ingress{
		tenants: tenants,
		mls:     mls,
		relay:   relay,
		domain:  domain,
	}
}

// ProcessMessage runs one message through the state machine. A nil return
// means the message was accepted (SMTP 250); a Rejection error carries the
// canonical 550 reply text and implies no store mutation happened.
func (in *Ingress) ProcessMessage(ctx context.Context, envelopeFrom string, data []byte) error {
	parsed, err := mailutil.Parse(data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse message", "error", err)
		return errors.NewValidation("failed to parse message", err)
	}

	fromSet := mailutil.Normalize(parsed.From)
	to := mailutil.Normalize(parsed.To)
	cc := mailutil.Normalize(parsed.Cc)

	// The author identity comes from the message, not MAIL FROM.
	sender := ""
	if env := mailutil.Normalize(envelopeFrom); env.Len() > 0 {
		sender = env.Sorted()[0]
	}
	if fromSet.Len() > 0 {
		sender = fromSet.Sorted()[0]
	}

	slog.InfoContext(ctx, "processing message",
		"from", sender,
		"to", parsed.To,
		"cc", parsed.Cc,
		"subject", parsed.Subject,
	)

	atDomain := "@" + in.domain
	var mls []string
	for _, addr := range to.Union(cc).Sorted() {
		if strings.HasSuffix(addr, atDomain) {
			mls = append(mls, addr)
		}
	}
	if len(mls) == 0 {
		slog.ErrorContext(ctx, "no mailing list address in To or Cc")
		return errors.NewRejection(constants.ReplyNoMLSpecified)
	}
	if len(mls) > 1 {
		slog.ErrorContext(ctx, "cross-post rejected", "addresses", mls)
		return errors.NewRejection(constants.ReplyCantCrossPost)
	}

	mlAddress := mls[0]
	mlName := strings.TrimSuffix(mlAddress, atDomain)
	delete(to, mlAddress)
	delete(cc, mlAddress)

	if strings.HasSuffix(mlName, constants.ErrorSuffix) {
		return in.processBounce(ctx, mlName, parsed)
	}

	enabled, err := in.tenants.FindTenants(ctx, model.Filter{
		"status": model.Eq(string(model.TenantEnabled)),
	}, "tenant_name", false)
	if err != nil {
		return err
	}

	for _, tenant := range enabled {
		if mlName == tenant.NewMLAccount {
			return in.createList(ctx, tenant, parsed, sender, fromSet, to, cc)
		}
	}

	return in.processPost(ctx, enabled, mlName, parsed, sender, cc)
}

// processBounce handles mail arriving at a `-error` address: the failure is
// recorded against the list and nothing is forwarded.
func (in *Ingress) processBounce(ctx context.Context, mlName string, parsed *mailutil.ParsedMessage) error {
	baseName := strings.TrimSuffix(mlName, constants.ErrorSuffix)
	bounced := mailutil.Normalize(mailutil.StripRFC822(parsed.OriginalRecipient))
	if baseName == "" || bounced.Len() == 0 {
		return nil
	}

	slog.ErrorContext(ctx, "delivery failure reported",
		"ml_name", baseName,
		"bounced", bounced.Sorted(),
	)
	if err := in.mls.LogPost(ctx, baseName, bounced, constants.ActorBounce); err != nil {
		// The bounce may refer to a list deleted with its tenant.
		slog.WarnContext(ctx, "failed to record delivery failure",
			"error", err,
			"ml_name", baseName,
		)
	}
	return nil
}

// createList is the seed-address path: a fresh list named from the tenant's
// counter, seeded with every non-admin address on the message.
func (in *Ingress) createList(ctx context.Context, tenant *model.Tenant, parsed *mailutil.ParsedMessage,
	sender string, fromSet, to, cc mailutil.AddressSet) error {

	n, err := in.tenants.IncrementCounter(ctx, tenant.TenantName)
	if err != nil {
		return err
	}
	mlName := fmt.Sprintf(tenant.MLNameFormat, n)

	admins := mailutil.NewAddressSet(tenant.Admins...)
	members := to.Union(cc).Union(fromSet).Diff(admins)

	if err := in.mls.CreateMailingList(ctx, mlName, tenant.TenantName, parsed.Subject, members, sender); err != nil {
		return err
	}
	slog.InfoContext(ctx, "mailing list created",
		"ml_name", mlName,
		"tenant_name", tenant.TenantName,
		"members", members.Sorted(),
	)

	params := template.NewParams()
	params["ml_name"] = mlName
	params["ml_address"] = mlName + "@" + in.domain
	params["new_ml_address"] = tenant.NewMLAccount + "@" + in.domain
	params["mailfrom"] = sender
	params["subject"] = parsed.Subject
	params["members"] = members.Sorted()

	in.sendPost(ctx, tenant, mlName, parsed.Raw, sender, params, tenant.WelcomeMsg, constants.AttachmentWelcome)
	return nil
}

// processPost is the existing-list path.
func (in *Ingress) processPost(ctx context.Context, enabled []*model.Tenant, mlName string,
	parsed *mailutil.ParsedMessage, sender string, cc mailutil.AddressSet) error {

	ml, err := in.mls.GetMailingList(ctx, mlName)
	if err != nil {
		if errors.IsNotFound(err) {
			slog.ErrorContext(ctx, "no such mailing list", "ml_name", mlName)
			return errors.NewRejection(constants.ReplyNoSuchML)
		}
		return err
	}

	var tenant *model.Tenant
	for _, t := range enabled {
		if t.TenantName == ml.TenantName {
			tenant = t
			break
		}
	}
	if tenant == nil {
		slog.ErrorContext(ctx, "no such tenant", "tenant_name", ml.TenantName, "ml_name", mlName)
		return errors.NewRejection(constants.ReplyNoSuchTenant)
	}

	members, err := in.mls.GetMembers(ctx, mlName)
	if err != nil {
		return err
	}
	admins := mailutil.NewAddressSet(tenant.Admins...)
	if !members.Union(admins).Contains(sender) {
		slog.ErrorContext(ctx, "non-member post", "ml_name", mlName, "from", sender)
		return errors.NewRejection(constants.ReplyNotMember)
	}

	command := mailutil.CommandToken(parsed.Subject, mlName)

	params := template.NewParams()
	params["ml_name"] = mlName
	params["ml_address"] = mlName + "@" + in.domain
	params["new_ml_address"] = tenant.NewMLAccount + "@" + in.domain
	params["mailfrom"] = sender
	params["subject"] = parsed.Subject
	params["members"] = members.Sorted()

	if ml.Status == model.StatusClosed {
		if command == constants.CommandReopen {
			in.sendPost(ctx, tenant, mlName, parsed.Raw, sender, params, tenant.ReopenMsg, constants.AttachmentReopen)
			if err := in.mls.ChangeStatus(ctx, mlName, model.StatusOpen, sender); err != nil {
				return err
			}
			slog.InfoContext(ctx, "mailing list reopened", "ml_name", mlName, "by", sender)
			return nil
		}
		slog.ErrorContext(ctx, "post to closed mailing list", "ml_name", mlName)
		return errors.NewRejection(constants.ReplyClosedML)
	}

	if command == constants.CommandClose {
		in.sendPost(ctx, tenant, mlName, parsed.Raw, sender, params, tenant.GoodbyeMsg, constants.AttachmentGoodbye)
		if err := in.mls.ChangeStatus(ctx, mlName, model.StatusClosed, sender); err != nil {
			return err
		}
		slog.InfoContext(ctx, "mailing list closed", "ml_name", mlName, "by", sender)
		return nil
	}

	// First accepted post opens the list; a post to an orphaned list revives it.
	if ml.Status != model.StatusOpen {
		if err := in.mls.ChangeStatus(ctx, mlName, model.StatusOpen, sender); err != nil {
			return err
		}
	}

	cc = cc.Diff(admins)
	params["cc"] = cc.Sorted()

	if command == "" {
		if cc.Len() == 0 {
			return nil
		}
		params["members"] = members.Diff(cc).Sorted()
		// The notice still reaches the removed members: membership is
		// reduced only after the send.
		in.sendPost(ctx, tenant, mlName, parsed.Raw, sender, params, tenant.RemoveMsg, constants.AttachmentRemoveMembers)
		if err := in.mls.DelMembers(ctx, mlName, cc, sender); err != nil {
			return err
		}
		slog.InfoContext(ctx, "members removed", "ml_name", mlName, "removed", cc.Sorted(), "by", sender)
		return nil
	}

	if cc.Len() > 0 {
		if err := in.mls.AddMembers(ctx, mlName, cc, sender); err != nil {
			return err
		}
		slog.InfoContext(ctx, "members added", "ml_name", mlName, "added", cc.Sorted(), "by", sender)
		members, err = in.mls.GetMembers(ctx, mlName)
		if err != nil {
			return err
		}
		params["members"] = members.Sorted()
		in.sendPost(ctx, tenant, mlName, parsed.Raw, sender, params, tenant.AddMsg, constants.AttachmentAddMembers)
		return nil
	}

	in.sendPost(ctx, tenant, mlName, parsed.Raw, sender, params, tenant.ReadmeMsg, constants.AttachmentReadme)
	return nil
}

// sendPost renders the notice, wraps the original message with it attached,
// and relays the result to members plus admins. Formatter and relay failures
// are logged and swallowed: the store mutations that preceded the send stand,
// and no post entry is recorded for mail that never left.
func (in *Ingress) sendPost(ctx context.Context, tenant *model.Tenant, mlName string, raw []byte,
	sender string, params template.Params, tmpl, filename string) {

	content := template.Render(ctx, tmpl, params)
	if content == "" {
		filename = "" // no auxiliary part
	}

	msg, err := mailutil.BuildPost(raw, mlName, in.domain, tenant.Charset, content, filename)
	if err != nil {
		slog.ErrorContext(ctx, "failed to format outbound post", "error", err, "ml_name", mlName)
		return
	}

	members, err := in.mls.GetMembers(ctx, mlName)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve recipients", "error", err, "ml_name", mlName)
		return
	}
	recipients := members.Union(mailutil.NewAddressSet(tenant.Admins...))

	envelopeFrom := mlName + constants.ErrorSuffix + "@" + in.domain
	if err := in.relay.Send(ctx, envelopeFrom, recipients.Sorted(), msg); err != nil {
		slog.ErrorContext(ctx, "failed to relay post",
			"error", err,
			"ml_name", mlName,
			"recipients", recipients.Len(),
		)
		return
	}

	slog.InfoContext(ctx, "post sent",
		"ml_name", mlName,
		"mailfrom", sender,
		"recipients", recipients.Sorted(),
	)
	if err := in.mls.LogPost(ctx, mlName, recipients, sender); err != nil {
		slog.ErrorContext(ctx, "failed to log post", "error", err, "ml_name", mlName)
	}
}
