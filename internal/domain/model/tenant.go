// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"slices"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

// Tenant is an administrative partition. It owns a pool of ephemeral lists,
// the admins who receive every outbound post, the message templates, and the
// inactivity thresholds that drive the list lifecycle.
type Tenant struct {
	TenantName   string       `json:"tenant_name"`
	Status       TenantStatus `json:"status"`
	Admins       []string     `json:"admins"`
	Charset      string       `json:"charset"`
	MLNameFormat string       `json:"ml_name_format"`
	NewMLAccount string       `json:"new_ml_account"`
	DaysToOrphan int          `json:"days_to_orphan"`
	DaysToClose  int          `json:"days_to_close"`

	WelcomeMsg string `json:"welcome_msg"`
	ReadmeMsg  string `json:"readme_msg"`
	AddMsg     string `json:"add_msg"`
	RemoveMsg  string `json:"remove_msg"`
	ReopenMsg  string `json:"reopen_msg"`
	GoodbyeMsg string `json:"goodbye_msg"`

	ReportSubject   string `json:"report_subject"`
	ReportMsg       string `json:"report_msg"`
	OrphanedSubject string `json:"orphaned_subject"`
	OrphanedMsg     string `json:"orphaned_msg"`
	ClosedSubject   string `json:"closed_subject"`
	ClosedMsg       string `json:"closed_msg"`

	// Counter feeds MLNameFormat; advanced atomically by the list-creation path.
	Counter int64 `json:"counter"`

	Created time.Time  `json:"created"`
	Updated time.Time  `json:"updated"`
	By      string     `json:"by"`
	Logs    []LogEntry `json:"logs"`
}

// IsAdmin reports whether addr is one of the tenant admins.
func (t *Tenant) IsAdmin(addr string) bool {
	return slices.Contains(t.Admins, addr)
}

// Validate checks the fields required for a usable tenant.
func (t *Tenant) Validate() error {
	if t.TenantName == "" {
		return errors.NewValidation("tenant_name is required")
	}
	if !t.Status.IsValid() {
		return errors.NewValidation("status must be 'enabled' or 'disabled'")
	}
	if len(t.Admins) == 0 {
		return errors.NewValidation("at least one admin address is required")
	}
	if t.NewMLAccount == "" {
		return errors.NewValidation("new_ml_account is required")
	}
	if t.MLNameFormat == "" || !strings.Contains(t.MLNameFormat, "%") {
		return errors.NewValidation("ml_name_format must consume one integer, e.g. 'ml-%06d'")
	}
	if t.DaysToOrphan <= 0 {
		return errors.NewValidation("days_to_orphan must be positive")
	}
	if t.DaysToClose <= 0 {
		return errors.NewValidation("days_to_close must be positive")
	}
	return nil
}

// Field returns the named attribute for filter matching and sorting.
func (t *Tenant) Field(name string) (any, bool) {
	switch name {
	case "tenant_name":
		return t.TenantName, true
	case "status":
		return string(t.Status), true
	case "new_ml_account":
		return t.NewMLAccount, true
	case "ml_name_format":
		return t.MLNameFormat, true
	case "charset":
		return t.Charset, true
	case "counter":
		return t.Counter, true
	case "days_to_orphan":
		return int64(t.DaysToOrphan), true
	case "days_to_close":
		return int64(t.DaysToClose), true
	case "created":
		return t.Created, true
	case "updated":
		return t.Updated, true
	case "by":
		return t.By, true
	}
	return nil, false
}

// Clone returns a deep copy, so callers can mutate without aliasing the
// stored document.
func (t *Tenant) Clone() *Tenant {
	dup := *t
	dup.Admins = slices.Clone(t.Admins)
	dup.Logs = slices.Clone(t.Logs)
	return &dup
}

// TenantPatch carries a partial tenant update; nil fields are left untouched.
// The immutable fields (tenant_name, created, logs) have no patch slot.
type TenantPatch struct {
	Status       *TenantStatus `json:"status,omitempty"`
	Admins       []string      `json:"admins,omitempty"`
	Charset      *string       `json:"charset,omitempty"`
	MLNameFormat *string       `json:"ml_name_format,omitempty"`
	NewMLAccount *string       `json:"new_ml_account,omitempty"`
	DaysToOrphan *int          `json:"days_to_orphan,omitempty"`
	DaysToClose  *int          `json:"days_to_close,omitempty"`

	WelcomeMsg *string `json:"welcome_msg,omitempty"`
	ReadmeMsg  *string `json:"readme_msg,omitempty"`
	AddMsg     *string `json:"add_msg,omitempty"`
	RemoveMsg  *string `json:"remove_msg,omitempty"`
	ReopenMsg  *string `json:"reopen_msg,omitempty"`
	GoodbyeMsg *string `json:"goodbye_msg,omitempty"`

	ReportSubject   *string `json:"report_subject,omitempty"`
	ReportMsg       *string `json:"report_msg,omitempty"`
	OrphanedSubject *string `json:"orphaned_subject,omitempty"`
	OrphanedMsg     *string `json:"orphaned_msg,omitempty"`
	ClosedSubject   *string `json:"closed_subject,omitempty"`
	ClosedMsg       *string `json:"closed_msg,omitempty"`
}

// Apply copies every set patch field onto the tenant.
func (p *TenantPatch) Apply(t *Tenant) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Admins != nil {
		t.Admins = slices.Clone(p.Admins)
	}
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&t.Charset, p.Charset)
	setString(&t.MLNameFormat, p.MLNameFormat)
	setString(&t.NewMLAccount, p.NewMLAccount)
	if p.DaysToOrphan != nil {
		t.DaysToOrphan = *p.DaysToOrphan
	}
	if p.DaysToClose != nil {
		t.DaysToClose = *p.DaysToClose
	}
	setString(&t.WelcomeMsg, p.WelcomeMsg)
	setString(&t.ReadmeMsg, p.ReadmeMsg)
	setString(&t.AddMsg, p.AddMsg)
	setString(&t.RemoveMsg, p.RemoveMsg)
	setString(&t.ReopenMsg, p.ReopenMsg)
	setString(&t.GoodbyeMsg, p.GoodbyeMsg)
	setString(&t.ReportSubject, p.ReportSubject)
	setString(&t.ReportMsg, p.ReportMsg)
	setString(&t.OrphanedSubject, p.OrphanedSubject)
	setString(&t.OrphanedMsg, p.OrphanedMsg)
	setString(&t.ClosedSubject, p.ClosedSubject)
	setString(&t.ClosedMsg, p.ClosedMsg)
}

// LogConfig renders the patch as the config payload of the `update` log entry.
// Only set fields appear.
func (p *TenantPatch) LogConfig() map[string]any {
	cfg := make(map[string]any)
	if p.Status != nil {
		cfg["status"] = string(*p.Status)
	}
	if p.Admins != nil {
		cfg["admins"] = slices.Clone(p.Admins)
	}
	put := func(key string, val *string) {
		if val != nil {
			cfg[key] = *val
		}
	}
	put("charset", p.Charset)
	put("ml_name_format", p.MLNameFormat)
	put("new_ml_account", p.NewMLAccount)
	if p.DaysToOrphan != nil {
		cfg["days_to_orphan"] = *p.DaysToOrphan
	}
	if p.DaysToClose != nil {
		cfg["days_to_close"] = *p.DaysToClose
	}
	put("welcome_msg", p.WelcomeMsg)
	put("readme_msg", p.ReadmeMsg)
	put("add_msg", p.AddMsg)
	put("remove_msg", p.RemoveMsg)
	put("reopen_msg", p.ReopenMsg)
	put("goodbye_msg", p.GoodbyeMsg)
	put("report_subject", p.ReportSubject)
	put("report_msg", p.ReportMsg)
	put("orphaned_subject", p.OrphanedSubject)
	put("orphaned_msg", p.OrphanedMsg)
	put("closed_subject", p.ClosedSubject)
	put("closed_msg", p.ClosedMsg)
	return cfg
}
