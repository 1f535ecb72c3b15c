// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	testCases := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{name: "first post opens a new list", from: StatusNew, to: StatusOpen, allowed: true},
		{name: "close command closes a new list", from: StatusNew, to: StatusClosed, allowed: true},
		{name: "timer never orphans a new list", from: StatusNew, to: StatusOrphaned, allowed: false},
		{name: "idle open list becomes orphaned", from: StatusOpen, to: StatusOrphaned, allowed: true},
		{name: "close command closes an open list", from: StatusOpen, to: StatusClosed, allowed: true},
		{name: "post reopens an orphaned list", from: StatusOrphaned, to: StatusOpen, allowed: true},
		{name: "idle orphaned list becomes closed", from: StatusOrphaned, to: StatusClosed, allowed: true},
		{name: "reopen command reopens a closed list", from: StatusClosed, to: StatusOpen, allowed: true},
		{name: "closed list never orphans", from: StatusClosed, to: StatusOrphaned, allowed: false},
		{name: "nothing returns to new", from: StatusOpen, to: StatusNew, allowed: false},
		{name: "closed never returns to new", from: StatusClosed, to: StatusNew, allowed: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestOpForStatus(t *testing.T) {
	assert.Equal(t, OpReopen, OpForStatus(StatusOpen))
	assert.Equal(t, OpOrphan, OpForStatus(StatusOrphaned))
	assert.Equal(t, OpClose, OpForStatus(StatusClosed))
	assert.Equal(t, "", OpForStatus(StatusNew))
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusOpen, StatusOrphaned, StatusClosed} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, Status("deleted").IsValid())
}
