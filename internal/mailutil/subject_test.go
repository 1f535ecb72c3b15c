// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mailutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandToken(t *testing.T) {
	testCases := []struct {
		subject string
		want    string
	}{
		{"close", "close"},
		{"CLOSE", "close"},
		{"  Reopen  ", "reopen"},
		{"Re: close", "close"},
		{"[ml-000010] Re: CLOSE", "close"},
		{"re: re: [ml-000010] reopen", "reopen"},
		{"", ""},
		{"Re: [ml-000010]", ""},
		{"Hello world", "hello world"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, CommandToken(tc.subject, "ml-000010"), "subject=%q", tc.subject)
	}
}

func TestPrefixSubject(t *testing.T) {
	testCases := []struct {
		subject string
		want    string
	}{
		{"Hello", "[ml-000010] Hello"},
		{"Re: Hello", "[ml-000010] Hello"},
		{"[ml-000010] Hello", "[ml-000010] Hello"},
		{"Re: [ml-000010] Re: Hello", "[ml-000010] Hello"},
		{"RE:   [ML-000010]Hello", "[ml-000010] Hello"},
		{"", "[ml-000010] "},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, PrefixSubject(tc.subject, "ml-000010"), "subject=%q", tc.subject)
	}
}

func TestStripRFC822(t *testing.T) {
	assert.Equal(t, "b@example.net", StripRFC822("rfc822;b@example.net"))
	assert.Equal(t, "b@example.net", StripRFC822("RFC822; b@example.net"))
	assert.Equal(t, "b@example.net", StripRFC822("b@example.net"))
}

func TestEncodeWord(t *testing.T) {
	// ASCII passes through.
	assert.Equal(t, "[ml-1] Hello", EncodeWord("iso-2022-jp", "[ml-1] Hello"))

	// Non-ASCII with an unknown charset falls back to UTF-8 encoded words.
	encoded := EncodeWord("no-such-charset", "héllo")
	assert.Contains(t, encoded, "=?utf-8?")

	// Known charset yields an encoded word labeled with it.
	encoded = EncodeWord("iso-8859-1", "héllo")
	assert.Contains(t, encoded, "=?iso-8859-1?B?")
}
