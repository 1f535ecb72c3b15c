// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package smtpd exposes the ingress handler as an SMTP server.
package smtpd

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/log"
)

const maxMessageBytes = 50 * 1024 * 1024

// Server accepts SMTP connections and feeds each DATA payload through the
// ingress state machine. Any envelope is accepted; classification happens on
// the message headers.
type Server struct {
	srv *smtp.Server
}

// New creates a server listening on address:port for the given domain.
func New(ingress *service.Ingress, address string, port int, domain string) *Server {
	srv := smtp.NewServer(&backend{ingress: ingress})
	srv.Addr = net.JoinHostPort(address, strconv.Itoa(port))
	srv.Domain = domain
	srv.ReadTimeout = 60 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.MaxMessageBytes = maxMessageBytes
	srv.MaxRecipients = 100
	return &Server{srv: srv}
}

// ListenAndServe blocks serving SMTP until Shutdown.
func (s *Server) ListenAndServe() error {
	slog.Info("SMTP ingress listening", "addr", s.srv.Addr, "domain", s.srv.Domain)
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting connections and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type backend struct {
	ingress *service.Ingress
}

// NewSession starts a session; no authentication is offered.
func (b *backend) NewSession(conn *smtp.Conn) (smtp.Session, error) {
	return &session{ingress: b.ingress}, nil
}

type session struct {
	ingress *service.Ingress
	ctx     context.Context
	from    string
}

// Mail starts a mail transaction. Each transaction gets a processing ID that
// tags every log record it produces.
func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	s.ctx = log.AppendCtx(context.Background(), slog.String("processing_id", uuid.New().String()))
	slog.DebugContext(s.ctx, "mail transaction started", "envelope_from", from)
	return nil
}

// Rcpt accepts every recipient; list identification uses the headers.
func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	slog.DebugContext(s.ctx, "recipient accepted", "envelope_to", to)
	return nil
}

// Data runs the message through the state machine and maps the outcome to
// the SMTP reply.
func (s *session) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ingress.ProcessMessage(ctx, s.from, data); err != nil {
		var rejection errors.Rejection
		if stdErrors.As(err, &rejection) {
			return &smtp.SMTPError{
				Code:         550,
				EnhancedCode: smtp.EnhancedCode{5, 7, 0},
				Message:      rejection.Error(),
			}
		}
		slog.ErrorContext(ctx, "message processing failed", "error", err)
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Local error in processing",
		}
	}
	return nil
}

// Reset aborts the current transaction.
func (s *session) Reset() {
	s.from = ""
	s.ctx = nil
}

// Logout ends the session.
func (s *session) Logout() error {
	return nil
}
