// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package nats provides the NATS JetStream key-value document store.
package nats

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
)

// Config holds the NATS connection settings.
type Config struct {
	URL           string
	DBName        string
	Timeout       time.Duration
	MaxReconnect  int
	ReconnectWait time.Duration
}

// NATSClient wraps the NATS connection and the two KV buckets the store uses:
// one for tenants, one for mailing lists.
type NATSClient struct {
	conn     *nats.Conn
	config   Config
	tenantKV jetstream.KeyValue
	mlKV     jetstream.KeyValue
}

// Close gracefully closes the NATS connection
func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// IsReady checks if the NATS client is ready
func (c *NATSClient) IsReady(ctx context.Context) error {
	if c.conn == nil {
		slog.ErrorContext(ctx, "NATS client is not initialized or not connected")
		return errors.NewServiceUnavailable("NATS client is not initialized or not connected")
	}
	if !c.conn.IsConnected() || c.conn.IsDraining() {
		slog.ErrorContext(ctx, "NATS client is not ready",
			"connected", c.conn.IsConnected(),
			"draining", c.conn.IsDraining(),
		)
		return errors.NewServiceUnavailable("NATS client is not ready, connection is not established or is draining")
	}
	slog.DebugContext(ctx, "NATS client is ready", "url", c.conn.ConnectedUrl())
	return nil
}

// NewClient creates a new NATS client with the given configuration and
// ensures both KV buckets exist.
func NewClient(ctx context.Context, config Config) (*NATSClient, error) {
	slog.InfoContext(ctx, "creating NATS client",
		"url", config.URL,
		"db_name", config.DBName,
		"timeout", config.Timeout,
	)

	if config.URL == "" {
		return nil, errors.NewUnexpected("NATS URL is required")
	}
	if config.DBName == "" {
		return nil, errors.NewUnexpected("database name is required")
	}

	opts := []nats.Option{
		nats.Name(constants.ServiceName),
		nats.Timeout(config.Timeout),
		nats.MaxReconnects(config.MaxReconnect),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.WarnContext(ctx, "NATS disconnected",
				"error", err,
				"url", nc.ConnectedUrl(),
				"status", nc.Status(),
			)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.InfoContext(ctx, "NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection closed",
				"url", nc.ConnectedUrl(),
				"status", nc.Status(),
			)
		}),
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, errors.NewServiceUnavailable("failed to connect to NATS", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.NewServiceUnavailable("failed to create JetStream client", err)
	}

	client := &NATSClient{
		conn:   conn,
		config: config,
	}

	client.tenantKV, err = js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  config.DBName + constants.KVBucketTenantsSuffix,
		History: 1,
	})
	if err != nil {
		conn.Close()
		return nil, errors.NewServiceUnavailable("failed to initialize tenant bucket", err)
	}

	client.mlKV, err = js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  config.DBName + constants.KVBucketMLsSuffix,
		History: 1,
	})
	if err != nil {
		conn.Close()
		return nil, errors.NewServiceUnavailable("failed to initialize mailing-list bucket", err)
	}

	slog.InfoContext(ctx, "NATS client created successfully",
		"connected_url", conn.ConnectedUrl(),
		"status", conn.Status(),
	)

	return client, nil
}
