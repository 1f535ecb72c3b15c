// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	cfg := NewRetryConfig(3, time.Millisecond, 10*time.Millisecond)

	attempts := 0
	err := RetryWithExponentialBackoff(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	cfg := NewRetryConfig(2, time.Millisecond, time.Millisecond)

	sentinel := errors.New("down")
	err := RetryWithExponentialBackoff(context.Background(), cfg, func() error {
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped sentinel, got %v", err)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	cfg := NewRetryConfig(5, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithExponentialBackoff(ctx, cfg, func() error {
		return errors.New("always")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
