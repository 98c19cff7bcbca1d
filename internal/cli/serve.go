/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kentakayama/device-locker/internal/locker"
	"github.com/kentakayama/device-locker/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Load the snapshot store, serve the HTTP API and flush state periodically
and once more on SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), o)
		},
	}
	cmd.Flags().StringVar(&o.cfg.Addr, "addr", o.cfg.Addr, "Listen address")
	cmd.Flags().DurationVar(&o.cfg.FlushInterval, "flush-interval", o.cfg.FlushInterval, "Interval between snapshot flushes (0 flushes only on shutdown)")
	return cmd
}

func runServe(ctx context.Context, o *rootOptions) (err error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, o.cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close store: %w", cerr))
		}
	}()

	// serve owns the store for its whole lifetime; CLI writers wait or fail.
	unlock, err := lockStore(ctx, store, o.cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := unlock(); uerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to unlock store: %w", uerr))
		}
	}()

	l, err := locker.Bootstrap(ctx, store, o.cfg)
	if err != nil {
		return err
	}
	srv, err := server.New(o.cfg, l)
	if err != nil {
		return err
	}

	persisted := make(chan error, 1)
	go func() {
		persisted <- l.Persister.Run(ctx)
	}()

	served := make(chan error, 1)
	go func() {
		served <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		o.cfg.Logger.Printf("Shutting down...")
	case serveErr = <-served:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("failed to shut down http server: %w", err))
	}
	return errors.Join(serveErr, <-persisted)
}
