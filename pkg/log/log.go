// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package log provides structured logging utilities and configuration for the service.
package log

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/constants"

	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey string

const (
	slogFields      ctxKey = "slog_fields"
	logLevelDefault        = slog.LevelInfo

	debug = "debug"
	warn  = "warn"
	info  = "info"
)

type contextHandler struct {
	slog.Handler
}

// Handle adds contextual attributes to the Record before calling the underlying handler
func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		for _, v := range attrs {
			r.AddAttrs(v)
		}
	}

	return h.Handler.Handle(ctx, r)
}

// AppendCtx adds an slog attribute to the provided context so that it will be
// included in any Record created with such context
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if v, ok := parent.Value(slogFields).([]slog.Attr); ok {
		v = append(v, attr)
		return context.WithValue(parent, slogFields, v)
	}

	v := []slog.Attr{}
	v = append(v, attr)
	return context.WithValue(parent, slogFields, v)
}

// InitStructureLogConfig sets the structured log behavior. Records go to
// stdout, or to a size-rotated file when logFile is non-empty (the `log_file`
// configuration key). The debug flag forces the debug level regardless of
// LOG_LEVEL.
func InitStructureLogConfig(logFile string, debugFlag bool) {
	logOptions := &slog.HandlerOptions{
		Level: levelFromEnv(debugFlag),
	}

	if addSource := os.Getenv(constants.EnvLogAddSource); addSource == "true" {
		logOptions.AddSource = true
	}

	var out io.Writer = os.Stdout
	if logFile != "" {
		out = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
	}

	h := slog.NewJSONHandler(out, logOptions)
	log.SetFlags(log.Llongfile)
	slog.SetDefault(slog.New(contextHandler{h}))
}

func levelFromEnv(debugFlag bool) slog.Level {
	if debugFlag {
		return slog.LevelDebug
	}
	switch os.Getenv(constants.EnvLogLevel) {
	case debug:
		return slog.LevelDebug
	case warn:
		return slog.LevelWarn
	case info:
		return slog.LevelInfo
	}
	return logLevelDefault
}
