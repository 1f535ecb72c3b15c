// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// The ephemeral-ml-smtpd command runs the SMTP ingress daemon. It accepts
// posts for every tenant, creates lists on mail to a tenant's seed address,
// and fans posts out through the configured relay.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/config"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/infrastructure/nats"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/infrastructure/relay"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/infrastructure/smtpd"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/log"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/utils"
)

const shutdownTimeout = 30 * time.Second

var (
	configFile string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:           "ephemeral-ml-smtpd",
	Short:         "SMTP ingress daemon for ephemeral mailing lists",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ResolvePath(configFile))
	if err != nil {
		return err
	}
	log.InitStructureLogConfig(cfg.LogFile, debugMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := connectNATS(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close NATS client", "error", err)
		}
	}()

	storage := nats.NewStorage(client)
	ingress := service.NewIngress(storage, storage, relay.New(cfg.RelayHost, cfg.RelayPort), cfg.Domain)
	server := smtpd.New(ingress, cfg.ListenAddress, cfg.ListenPort, cfg.Domain)

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "starting SMTP server",
			"address", cfg.ListenAddress,
			"port", cfg.ListenPort,
			"domain", cfg.Domain,
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("SMTP server stopped: %w", err)
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "shutting down SMTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// connectNATS dials the document store, retrying with backoff so the daemon
// survives a NATS server that is still coming up.
func connectNATS(ctx context.Context, cfg *config.Config) (*nats.NATSClient, error) {
	var client *nats.NATSClient
	retry := utils.NewRetryConfig(5, time.Second, 30*time.Second)
	err := utils.RetryWithExponentialBackoff(ctx, retry, func() error {
		var connErr error
		client, connErr = nats.NewClient(ctx, nats.Config{
			URL:           cfg.DBURL,
			DBName:        cfg.DBName,
			Timeout:       10 * time.Second,
			MaxReconnect:  3,
			ReconnectWait: 2 * time.Second,
		})
		return connErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}
	return client, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
