// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// The ephemeral-ml-ctl command is the operator CLI. It manages tenants in
// the document store directly; the daemons pick the changes up on their next
// read.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/config"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/infrastructure/nats"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-ephemeral-ml-service/pkg/log"
)

var (
	configFile string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:           "ephemeral-ml-ctl",
	Short:         "Operator CLI for the ephemeral mailing-list service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
}

// newAdmin loads the configuration, connects to the document store, and
// returns the tenant administration service with a cleanup function.
func newAdmin(ctx context.Context) (*service.TenantAdmin, func(), error) {
	cfg, err := config.Load(config.ResolvePath(configFile))
	if err != nil {
		return nil, nil, err
	}
	log.InitStructureLogConfig(cfg.LogFile, debugMode)

	client, err := nats.NewClient(ctx, nats.Config{
		URL:           cfg.DBURL,
		DBName:        cfg.DBName,
		Timeout:       10 * time.Second,
		MaxReconnect:  3,
		ReconnectWait: 2 * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close NATS client", "error", err)
		}
	}
	storage := nats.NewStorage(client)
	return service.NewTenantAdmin(storage, storage), cleanup, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.IsNotFound(err) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
