// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import "context"

// Relay hands finished messages to the upstream MTA for actual delivery.
type Relay interface {
	// Send submits msg with the given envelope sender and recipients.
	Send(ctx context.Context, from string, rcpts []string, msg []byte) error
}
