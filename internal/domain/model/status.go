// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package model defines the domain models and entities for the ephemeral mailing-list service.
package model

// Status is the lifecycle state of a mailing list. It is a closed set: lists
// advance new -> open -> orphaned -> closed, with reopen as the only back-edge
// (orphaned -> open, closed -> open). Nothing ever returns to new.
type Status string

const (
	StatusNew      Status = "new"
	StatusOpen     Status = "open"
	StatusOrphaned Status = "orphaned"
	StatusClosed   Status = "closed"
)

// IsValid reports whether s is one of the four lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusOpen, StatusOrphaned, StatusClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> next is permitted.
// A close command is accepted from any non-closed state; reopen returns
// orphaned or closed lists to open.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusNew:
		return next == StatusOpen || next == StatusClosed
	case StatusOpen:
		return next == StatusOrphaned || next == StatusClosed
	case StatusOrphaned:
		return next == StatusOpen || next == StatusClosed
	case StatusClosed:
		return next == StatusOpen
	}
	return false
}

// Log operation names. These are the only values of a LogEntry's Op field.
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpAddMembers = "add_members"
	OpDelMembers = "delete_members"
	OpReopen     = "open"
	OpOrphan     = "orphan"
	OpClose      = "close"
	OpPost       = "post"
)

// OpForStatus maps a status transition target to the operation logged for it.
func OpForStatus(next Status) string {
	switch next {
	case StatusOpen:
		return OpReopen
	case StatusOrphaned:
		return OpOrphan
	case StatusClosed:
		return OpClose
	}
	return ""
}

// TenantStatus is the administrative state of a tenant.
type TenantStatus string

const (
	TenantEnabled  TenantStatus = "enabled"
	TenantDisabled TenantStatus = "disabled"
)

// IsValid reports whether ts is a known tenant status.
func (ts TenantStatus) IsValid() bool {
	return ts == TenantEnabled || ts == TenantDisabled
}
