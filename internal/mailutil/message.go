// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mailutil

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset" // register charsets for header and body decoding
	"github.com/emersion/go-message/mail"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/constants"
)

// ParsedMessage is the ingress view of an arriving RFC 5322 message: the raw
// bytes for later re-assembly plus the decoded headers the state machine
// inspects.
type ParsedMessage struct {
	Raw     []byte
	From    string // raw From header value
	To      string // raw To header value
	Cc      string // raw Cc header value
	Subject string // decoded per RFC 2047

	OriginalRecipient string // bounce notifications only
}

// Parse reads the message headers. Unknown charsets in headers or body are
// tolerated; anything else malformed fails the parse.
func Parse(data []byte) (*ParsedMessage, error) {
	entity, err := message.Read(bytes.NewReader(data))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, err
	}

	mailHeader := mail.Header{Header: entity.Header}
	subject, err := mailHeader.Subject()
	if err != nil {
		// Soft failure: fall back to the undecoded value.
		subject = entity.Header.Get("Subject")
	}

	return &ParsedMessage{
		Raw:               data,
		From:              strings.TrimSpace(entity.Header.Get("From")),
		To:                strings.TrimSpace(entity.Header.Get("To")),
		Cc:                strings.TrimSpace(entity.Header.Get("Cc")),
		Subject:           strings.TrimSpace(subject),
		OriginalRecipient: strings.TrimSpace(entity.Header.Get("Original-Recipient")),
	}, nil
}

// BuildPost re-assembles the original message for fan-out: wrapped as
// multipart if it is not already, the rendered notice attached as a text
// part, To/Reply-To pointed at the list, Return-Path at the bounce address,
// and the subject rewritten with a single `[ml_name] ` prefix encoded per the
// tenant charset.
func BuildPost(data []byte, mlName, domain, charsetName, attachText, attachName string) ([]byte, error) {
	entity, err := message.Read(bytes.NewReader(data))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, err
	}

	parts, err := collectParts(entity)
	if err != nil {
		return nil, err
	}

	if attachName != "" {
		var attachHeader message.Header
		attachHeader.Set("Content-Type", fmt.Sprintf("text/plain; charset=utf-8; name=%q", attachName))
		if !isASCII(attachText) {
			attachHeader.Set("Content-Transfer-Encoding", "base64")
		}
		attachment, err := message.New(attachHeader, strings.NewReader(attachText))
		if err != nil {
			return nil, err
		}
		parts = append(parts, attachment)
	}

	mlAddress := mlName + "@" + domain
	bounceAddress := mlName + constants.ErrorSuffix + "@" + domain

	header := entity.Header.Copy()
	header.Del("To")
	header.Del("Reply-To")
	header.Del("Return-Path")
	header.Set("To", mlAddress)
	header.Set("Reply-To", mlAddress)
	header.Set("Return-Path", "<"+bounceAddress+">")

	mailHeader := mail.Header{Header: entity.Header}
	subject, err := mailHeader.Subject()
	if err != nil {
		subject = entity.Header.Get("Subject")
	}
	header.Set("Subject", EncodeWord(charsetName, PrefixSubject(subject, mlName)))

	out, err := message.NewMultipart(header, parts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := out.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// collectParts returns the message's existing parts, or the whole body as a
// single part when the message is not yet multipart.
func collectParts(entity *message.Entity) ([]*message.Entity, error) {
	if mr := entity.MultipartReader(); mr != nil {
		var parts []*message.Entity
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil && !message.IsUnknownCharset(err) {
				return nil, err
			}
			body, err := io.ReadAll(p.Body)
			if err != nil {
				return nil, err
			}
			part, err := message.New(p.Header.Copy(), bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		return parts, nil
	}

	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return nil, err
	}
	var header message.Header
	if ct := entity.Header.Get("Content-Type"); ct != "" {
		header.Set("Content-Type", ct)
	} else {
		header.Set("Content-Type", "text/plain; charset=utf-8")
	}
	if !isASCII(string(body)) {
		header.Set("Content-Transfer-Encoding", "base64")
	}
	part, err := message.New(header, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return []*message.Entity{part}, nil
}

// BuildNotice assembles a standalone text message (reviewer notices and
// tenant reports): no original message is wrapped.
func BuildNotice(to, from, subject, charsetName, content string) ([]byte, error) {
	body, label := encodeBody(charsetName, content)

	var header message.Header
	header.Set("To", to)
	header.Set("Reply-To", to)
	header.Set("From", from)
	header.Set("Return-Path", "<"+from+">")
	header.Set("Subject", EncodeWord(charsetName, subject))
	header.Set("Content-Type", "text/plain; charset="+label)
	if !isASCII(string(body)) {
		header.Set("Content-Transfer-Encoding", "base64")
	}

	entity, err := message.New(header, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := entity.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeBody converts content into the tenant charset, falling back to UTF-8
// when the charset is unknown or conversion fails (soft failure).
func encodeBody(charsetName, content string) ([]byte, string) {
	if charsetName == "" || strings.EqualFold(charsetName, "utf-8") {
		return []byte(content), "utf-8"
	}
	enc, err := ianaindex.IANA.Encoding(charsetName)
	if err != nil || enc == nil {
		return []byte(content), "utf-8"
	}
	converted, err := enc.NewEncoder().Bytes([]byte(content))
	if err != nil {
		return []byte(content), "utf-8"
	}
	return converted, charsetName
}
