// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package template renders the tenant-configured notice and report bodies.
// Rendering is a soft-failure site: a broken template yields an empty body
// and a warning, never an error to the caller.
package template

import (
	"context"
	"log/slog"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/utils"
)

// Params is the template vocabulary. NewParams pre-populates every key, so
// templates referencing an unset variable render it empty instead of failing.
type Params map[string]any

// NewParams returns a fully-populated parameter map with empty defaults.
func NewParams() Params {
	return Params{
		"ml_name":        "",
		"ml_address":     "",
		"new_ml_address": "",
		"mailfrom":       "",
		"subject":        "",
		"members":        []string{},
		"cc":             []string{},
		"new":            []map[string]any{},
		"open":           []map[string]any{},
		"orphaned":       []map[string]any{},
		"closed":         []map[string]any{},
	}
}

// Digest converts a mailing list into the map form the report templates
// iterate over. Timestamps are truncated to the minute.
func Digest(ml *model.MailingList) map[string]any {
	return map[string]any{
		"ml_name": ml.MLName,
		"subject": ml.Subject,
		"status":  string(ml.Status),
		"members": append([]string(nil), ml.Members...),
		"by":      ml.By,
		"created": utils.TruncateToMinute(ml.Created).Format(time.DateTime),
		"updated": utils.TruncateToMinute(ml.Updated).Format(time.DateTime),
	}
}

// Render executes the template against params and returns the body with CRLF
// line endings. Parse and execution failures log a warning and return "".
func Render(ctx context.Context, tmpl string, params Params) string {
	parsed, err := texttemplate.New("notice").Parse(tmpl)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse message template", "error", err)
		return ""
	}

	var sb strings.Builder
	if err := parsed.Execute(&sb, map[string]any(params)); err != nil {
		slog.WarnContext(ctx, "failed to render message template", "error", err)
		return ""
	}
	return toCRLF(sb.String())
}

// toCRLF normalizes line endings for SMTP bodies.
func toCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
