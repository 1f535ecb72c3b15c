// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package utils provides utility functions for the ephemeral mailing-list service.
package utils

import (
	"time"
)

// TruncateToMinute strips sub-minute precision from a timestamp. Status
// reports are minute-aligned.
func TruncateToMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

// DaysAgo returns now shifted back by the given number of days plus an
// optional grace duration. A positive grace moves the cutoff forward,
// shortening the effective window.
func DaysAgo(now time.Time, days int, grace time.Duration) time.Time {
	return now.AddDate(0, 0, -days).Add(grace)
}
