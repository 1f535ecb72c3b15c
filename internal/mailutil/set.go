// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package mailutil provides address normalization, subject handling, and MIME
// assembly for the ephemeral mailing-list service. All membership maths
// happens on normalized addresses collected in an AddressSet.
package mailutil

import "sort"

// AddressSet is a set of normalized e-mail addresses. Duplicates collapse;
// iteration order is unspecified.
type AddressSet map[string]struct{}

// NewAddressSet builds a set from the given addresses verbatim. Use Normalize
// for untrusted input.
func NewAddressSet(addrs ...string) AddressSet {
	s := make(AddressSet, len(addrs))
	for _, a := range addrs {
		if a != "" {
			s[a] = struct{}{}
		}
	}
	return s
}

// Add inserts addr into the set.
func (s AddressSet) Add(addr string) {
	if addr != "" {
		s[addr] = struct{}{}
	}
}

// Contains reports whether addr is in the set.
func (s AddressSet) Contains(addr string) bool {
	_, ok := s[addr]
	return ok
}

// Union returns a new set holding every address of s and other.
func (s AddressSet) Union(other AddressSet) AddressSet {
	out := make(AddressSet, len(s)+len(other))
	for a := range s {
		out[a] = struct{}{}
	}
	for a := range other {
		out[a] = struct{}{}
	}
	return out
}

// Diff returns a new set holding the addresses of s that are not in other.
func (s AddressSet) Diff(other AddressSet) AddressSet {
	out := make(AddressSet, len(s))
	for a := range s {
		if _, ok := other[a]; !ok {
			out[a] = struct{}{}
		}
	}
	return out
}

// Sorted returns the addresses in lexical order.
func (s AddressSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of addresses in the set.
func (s AddressSet) Len() int {
	return len(s)
}
