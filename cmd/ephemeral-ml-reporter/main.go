// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// The ephemeral-ml-reporter command mails each enabled tenant's admins a
// digest of the tenant's current lists. Run it periodically from cron or a
// systemd timer.
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
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/log"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/utils"
)

var (
	configFile string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:           "ephemeral-ml-reporter",
	Short:         "Tenant status reporter for ephemeral mailing lists",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runReporter,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
}

func runReporter(cmd *cobra.Command, _ []string) error {
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
	reporter := service.NewReporter(storage, storage, relay.New(cfg.RelayHost, cfg.RelayPort), cfg.Domain)

	slog.InfoContext(ctx, "starting tenant reports")
	if err := reporter.Run(ctx); err != nil {
		return fmt.Errorf("tenant reports failed: %w", err)
	}
	slog.InfoContext(ctx, "tenant reports complete")
	return nil
}

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
		slog.Error("reporter failed", "error", err)
		os.Exit(1)
	}
}
