// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mailutil

import (
	"encoding/base64"
	"fmt"
	"mime"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

var rfc822Prefix = regexp.MustCompile(`(?i)rfc822;\s*`)

// StripRFC822 removes the `rfc822;` type prefix from an Original-Recipient
// header value.
func StripRFC822(value string) string {
	return rfc822Prefix.ReplaceAllString(value, "")
}

func subjectPrefixRE(mlName string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^(re:|\[` + regexp.QuoteMeta(mlName) + `\]|\s)*`)
}

// CommandToken reduces a decoded subject to its command form: leading `Re:`,
// `[ml_name]` and whitespace prefixes stripped, then trimmed and lowercased.
// It compares literally to "", "close", or "reopen".
func CommandToken(subject, mlName string) string {
	stripped := subjectPrefixRE(mlName).ReplaceAllString(subject, "")
	return strings.ToLower(strings.TrimSpace(stripped))
}

// PrefixSubject normalizes an outbound subject: any run of leading `Re:`,
// `[ml_name]` and whitespace collapses into a single `[ml_name] ` prefix.
func PrefixSubject(subject, mlName string) string {
	return subjectPrefixRE(mlName).ReplaceAllString(subject, "["+mlName+"] ")
}

// EncodeWord encodes a header value per RFC 2047 using the given IANA charset
// name. Pure ASCII passes through unencoded. Unknown charsets fall back to
// UTF-8; charset conversion failures fall back likewise (soft failure).
func EncodeWord(charsetName, s string) string {
	if isASCII(s) {
		return s
	}
	if charsetName != "" && !strings.EqualFold(charsetName, "utf-8") {
		if enc, err := ianaindex.IANA.Encoding(charsetName); err == nil && enc != nil {
			if converted, err := enc.NewEncoder().Bytes([]byte(s)); err == nil {
				return fmt.Sprintf("=?%s?B?%s?=",
					charsetName, base64.StdEncoding.EncodeToString(converted))
			}
		}
	}
	return mime.BEncoding.Encode("utf-8", s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}
