// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: jroosing-HydraDNS's cmd/hydradns/main.go run() (build
// components from config, signal.NotifyContext for graceful shutdown,
// bounded Shutdown timeout), restructured as a cobra subcommand.

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zerodns-io/zerodns/internal/cache"
	"github.com/zerodns-io/zerodns/internal/config"
	"github.com/zerodns-io/zerodns/internal/filter"
	"github.com/zerodns-io/zerodns/internal/server"
)

const shutdownGrace = 5 * time.Second

func newRunCmd() *cobra.Command {
	var configPaths []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the DNS server from a configuration file",
		RunE: func(*cobra.Command, []string) error {
			return runServer(configPaths)
		},
	}
	cmd.Flags().StringSliceVarP(&configPaths, "config", "c", nil, "configuration file path (repeatable)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runServer(configPaths []string) error {
	cfg, err := config.Load(configPaths...)
	if err != nil {
		return err
	}

	registry := filter.NewDefaultRegistry()
	filters, err := cfg.BuildFilters(registry)
	if err != nil {
		return err
	}
	rt, err := cfg.BuildRuleTable(filters)
	if err != nil {
		return err
	}
	c, err := cache.New(cfg.CacheSize(), cfg.NegMaxTTL())
	if err != nil {
		return err
	}
	queryTimeout, err := cfg.QueryTimeout()
	if err != nil {
		return err
	}

	logger := slog.Default()
	srv := server.New(cfg.Server.Listen, c, rt, filters, queryTimeout, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logger.Info("zerodns listening", "addr", cfg.Server.Listen, "filters", len(filters), "rules", rt.Len())

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
