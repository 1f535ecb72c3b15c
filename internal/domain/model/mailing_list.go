// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"slices"
	"time"
)

// MailingList is a single ephemeral list. Membership is a set of normalized
// addresses; the JSON form stores it as a slice without ordering guarantees.
type MailingList struct {
	MLName     string     `json:"ml_name"`
	TenantName string     `json:"tenant_name"`
	Subject    string     `json:"subject"`
	Members    []string   `json:"members"`
	Status     Status     `json:"status"`
	Created    time.Time  `json:"created"`
	Updated    time.Time  `json:"updated"`
	By         string     `json:"by"`
	Logs       []LogEntry `json:"logs"`
}

// Field returns the named attribute for filter matching and sorting.
func (ml *MailingList) Field(name string) (any, bool) {
	switch name {
	case "ml_name":
		return ml.MLName, true
	case "tenant_name":
		return ml.TenantName, true
	case "subject":
		return ml.Subject, true
	case "status":
		return string(ml.Status), true
	case "created":
		return ml.Created, true
	case "updated":
		return ml.Updated, true
	case "by":
		return ml.By, true
	}
	return nil, false
}

// Clone returns a deep copy, so callers can mutate without aliasing the
// stored document.
func (ml *MailingList) Clone() *MailingList {
	dup := *ml
	dup.Members = slices.Clone(ml.Members)
	dup.Logs = slices.Clone(ml.Logs)
	return &dup
}
