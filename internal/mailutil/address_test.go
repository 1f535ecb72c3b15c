// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mailutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "plain list",
			raw:  "a@example.net, b@example.net",
			want: []string{"a@example.net", "b@example.net"},
		},
		{
			name: "display names stripped",
			raw:  `"Ueda, Akira" <a@example.net>, Bob <b@Example.NET>`,
			want: []string{"a@example.net", "b@example.net"},
		},
		{
			name: "domain lowercased",
			raw:  "User@EXAMPLE.Net",
			want: []string{"User@example.net"},
		},
		{
			name: "duplicates collapse",
			raw:  "a@example.net, a@EXAMPLE.net",
			want: []string{"a@example.net"},
		},
		{
			name: "malformed entries dropped silently",
			raw:  "not-an-address, b@example.net",
			want: []string{"b@example.net"},
		},
		{
			name: "empty input",
			raw:  "",
			want: []string{},
		},
		{
			name: "only garbage",
			raw:  ", @, foo@",
			want: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.raw)
			assert.ElementsMatch(t, tc.want, got.Sorted())
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	got := NormalizeAll("a@example.net", "b@example.net, a@example.net", "")
	assert.Equal(t, []string{"a@example.net", "b@example.net"}, got.Sorted())
}

func TestAddressSetOps(t *testing.T) {
	a := NewAddressSet("a@x.org", "b@x.org")
	b := NewAddressSet("b@x.org", "c@x.org")

	assert.Equal(t, []string{"a@x.org", "b@x.org", "c@x.org"}, a.Union(b).Sorted())
	assert.Equal(t, []string{"a@x.org"}, a.Diff(b).Sorted())
	assert.True(t, a.Contains("a@x.org"))
	assert.False(t, a.Contains("c@x.org"))
	assert.Equal(t, 2, a.Len())

	// Round trip: union then diff restores the original set.
	assert.Equal(t, a.Sorted(), a.Union(b).Diff(b).Union(a.Diff(b)).Diff(NewAddressSet("c@x.org")).Sorted())
}
