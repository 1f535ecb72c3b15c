// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"sync"
)

// SentMessage is one message captured by the MockRelay.
type SentMessage struct {
	From  string
	Rcpts []string
	Msg   []byte
}

// MockRelay captures outbound messages instead of delivering them. Setting
// Err makes every Send fail with it.
type MockRelay struct {
	mu   sync.Mutex
	sent []SentMessage

	Err error
}

// NewMockRelay creates an empty capture relay.
func NewMockRelay() *MockRelay {
	return &MockRelay{}
}

// Send records the message, or fails with the configured error.
func (r *MockRelay) Send(_ context.Context, from string, rcpts []string, msg []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, SentMessage{
		From:  from,
		Rcpts: append([]string(nil), rcpts...),
		Msg:   append([]byte(nil), msg...),
	})
	return nil
}

// Sent returns the captured messages in send order.
func (r *MockRelay) Sent() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMessage(nil), r.sent...)
}

// Reset discards the captured messages.
func (r *MockRelay) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
