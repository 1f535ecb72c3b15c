// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestAppendCtxAttachesAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := contextHandler{slog.NewJSONHandler(&buf, nil)}
	logger := slog.New(handler)

	ctx := AppendCtx(context.Background(), slog.String("ml_name", "ml-000001"))
	ctx = AppendCtx(ctx, slog.String("tenant_name", "example"))

	logger.InfoContext(ctx, "processing message")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if record["ml_name"] != "ml-000001" {
		t.Errorf("ml_name attr missing: %v", record)
	}
	if record["tenant_name"] != "example" {
		t.Errorf("tenant_name attr missing: %v", record)
	}
}

func TestAppendCtxNilParent(t *testing.T) {
	ctx := AppendCtx(nil, slog.String("k", "v"))
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	if got := levelFromEnv(false); got != slog.LevelWarn {
		t.Errorf("got %v, want warn", got)
	}
	if got := levelFromEnv(true); got != slog.LevelDebug {
		t.Errorf("debug flag must win, got %v", got)
	}
}
