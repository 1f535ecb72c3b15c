// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import "time"

// LogEntry is one record of the append-only audit log embedded in tenant and
// mailing-list documents. Every mutation appends exactly one entry in the
// same atomic step that updates the document.
type LogEntry struct {
	Op      string         `json:"op"`
	By      string         `json:"by"`
	TS      time.Time      `json:"ts"`
	Members []string       `json:"members,omitempty"`
	Config  map[string]any `json:"config,omitempty"`
}
