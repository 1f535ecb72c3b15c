// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// Canonical rejection texts returned as `550 <reason>` SMTP replies.
const (
	ReplyNoMLSpecified = "No ML specified"
	ReplyCantCrossPost = "Can't cross-post a message"
	ReplyNoSuchML      = "No such ML"
	ReplyNoSuchTenant  = "No such tenant"
	ReplyNotMember     = "Not member"
	ReplyClosedML      = "ML is closed"
)

// Subject command tokens, compared against the trimmed, decoded, lowercased
// subject.
const (
	CommandClose  = "close"
	CommandReopen = "reopen"
)
