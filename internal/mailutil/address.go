// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mailutil

import (
	"net/mail"
	"strings"
)

// Normalize parses a raw address-list header value into a set of normalized
// addresses: display names stripped, domain lowercased. Malformed entries are
// dropped silently; this is a documented soft-failure site. The result is the
// single equality-safe form used for all membership comparisons.
func Normalize(raw string) AddressSet {
	out := make(AddressSet)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out
	}

	if parsed, err := mail.ParseAddressList(raw); err == nil {
		for _, a := range parsed {
			if addr, ok := normalizeAddr(a.Address); ok {
				out.Add(addr)
			}
		}
		return out
	}

	// The list as a whole is malformed; salvage well-formed entries.
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parsed, err := mail.ParseAddress(entry)
		if err != nil {
			continue
		}
		if addr, ok := normalizeAddr(parsed.Address); ok {
			out.Add(addr)
		}
	}
	return out
}

// NormalizeAll folds several raw header values into one set.
func NormalizeAll(raws ...string) AddressSet {
	out := make(AddressSet)
	for _, raw := range raws {
		out = out.Union(Normalize(raw))
	}
	return out
}

func normalizeAddr(addr string) (string, bool) {
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return "", false
	}
	local, domain := addr[:at], addr[at+1:]
	if strings.ContainsAny(domain, " \t") {
		return "", false
	}
	return local + "@" + strings.ToLower(domain), true
}
