// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package relay submits outbound mail to the upstream MTA over plain SMTP.
package relay

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	"github.com/emersion/go-smtp"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

// SMTPRelay is a port.Relay speaking unauthenticated SMTP to a fixed
// upstream host. One connection per Send; the MTA does the queueing.
type SMTPRelay struct {
	addr string
}

// New creates a relay targeting host:port.
func New(host string, port int) *SMTPRelay {
	return &SMTPRelay{addr: net.JoinHostPort(host, strconv.Itoa(port))}
}

// Send submits msg with the given envelope sender and recipients.
func (r *SMTPRelay) Send(ctx context.Context, from string, rcpts []string, msg []byte) error {
	if len(rcpts) == 0 {
		return errors.NewValidation("no recipients")
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		return errors.NewServiceUnavailable("failed to connect to relay", err)
	}

	client := smtp.NewClient(conn)
	defer func() {
		if err := client.Close(); err != nil {
			slog.DebugContext(ctx, "relay connection close", "error", err)
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return errors.NewServiceUnavailable("failed to set relay deadline", err)
		}
	}

	if err := client.Mail(from, nil); err != nil {
		return errors.NewServiceUnavailable("relay rejected envelope sender", err)
	}
	for _, rcpt := range rcpts {
		if err := client.Rcpt(rcpt, nil); err != nil {
			return errors.NewServiceUnavailable("relay rejected recipient "+rcpt, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return errors.NewServiceUnavailable("relay rejected DATA", err)
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close()
		return errors.NewServiceUnavailable("failed to write message to relay", err)
	}
	if err := wc.Close(); err != nil {
		return errors.NewServiceUnavailable("relay rejected message", err)
	}

	slog.DebugContext(ctx, "message relayed",
		"relay", r.addr,
		"from", from,
		"recipients", len(rcpts),
	)
	return client.Quit()
}
