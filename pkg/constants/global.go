// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package constants defines global constants used throughout the ephemeral mailing-list service.
package constants

// Service constants
const (
	// ServiceName is the name of this service
	ServiceName = "ephemeral-ml"
)

// Environment variables
const (
	// EnvConfigFile overrides the configuration file path for every binary
	EnvConfigFile = "ML_CONFIG_FILE"
	// EnvLogLevel selects the slog level (debug, info, warn)
	EnvLogLevel = "LOG_LEVEL"
	// EnvLogAddSource toggles source locations in log records
	EnvLogAddSource = "LOG_ADD_SOURCE"
)

// Actor sentinels for the audit log `by` field. Every other actor is a
// normalized member address.
const (
	// ActorCLI marks mutations performed through the admin CLI
	ActorCLI = "CLI"
	// ActorReviewer marks mutations performed by the lifecycle reviewer
	ActorReviewer = "reviewer"
	// ActorBounce marks delivery-failure log entries recorded by the ingress
	ActorBounce = "bounce"
)

// Addressing constants
const (
	// ErrorSuffix is appended to a list's local part to form its bounce address.
	// Delivery failures for <ml>@<domain> return to <ml>-error@<domain>.
	ErrorSuffix = "-error"

	// ReportErrorAccount is the fixed local part used as the envelope sender of
	// tenant status reports, independent of tenant configuration.
	ReportErrorAccount = "amane-error"
)

// Attachment filenames for the rendered notice parts.
const (
	AttachmentWelcome       = "Welcome.txt"
	AttachmentReadme        = "Readme.txt"
	AttachmentAddMembers    = "AddMembers.txt"
	AttachmentRemoveMembers = "RemoveMembers.txt"
	AttachmentReopen        = "Reopen.txt"
	AttachmentGoodbye       = "Goodbye.txt"
)
