/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/kentakayama/device-locker/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// rootOptions is shared by every subcommand; flags write straight into cfg.
type rootOptions struct {
	cfg     config.Config
	verbose bool
}

// envFallbacks maps flag names to the environment variables consulted when
// the flag is not given on the command line.
var envFallbacks = map[string]string{
	"addr":           "LOCKER_ADDR",
	"store":          "LOCKER_STORE",
	"data":           "LOCKER_DATA",
	"flush-interval": "LOCKER_FLUSH_INTERVAL",
	"fee-per-day":    "LOCKER_FEE_PER_DAY",
	"one-day-fee":    "LOCKER_ONE_DAY_FEE",
	"lock-timeout":   "LOCKER_LOCK_TIMEOUT",
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:   "device-locker",
		Short: "Shared device loan tracker",
		Long: `device-locker keeps track of which shared devices are lent to whom.

It serves a JSON HTTP API (serve) and offers the same operations from the
command line against the configured snapshot store.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyEnv(cmd.Flags()); err != nil {
				return err
			}
			o.cfg.Logger = newLogger(o.verbose)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Log with file:line and microsecond timestamps")
	flags.StringVar(&o.cfg.Store.Kind, "store", o.cfg.Store.Kind, "Snapshot store: file, sqlite or postgres")
	flags.StringVar(&o.cfg.Store.Data, "data", o.cfg.Store.Data, "Snapshot file (.json/.cbor), SQLite path or PostgreSQL DSN")
	flags.DurationVar(&o.cfg.Store.LockTimeout, "lock-timeout", o.cfg.Store.LockTimeout, "How long to wait for another writer to release the store")
	flags.Float64Var(&o.cfg.Fees.PerDay, "fee-per-day", o.cfg.Fees.PerDay, "Late fee per overdue day")
	flags.Float64Var(&o.cfg.Fees.OneDay, "one-day-fee", o.cfg.Fees.OneDay, "Late fee for a loan exactly one day overdue")

	cmd.AddCommand(
		newServeCmd(o),
		newDevicesCmd(o),
		newBorrowCmd(o),
		newReturnCmd(o),
		newPopularCmd(o),
		newOverdueCmd(o),
		newSnapshotCmd(o),
	)
	return cmd
}

// applyEnv fills flags left at their defaults from LOCKER_* variables.
func applyEnv(flags *pflag.FlagSet) error {
	for name, env := range envFallbacks {
		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		v, ok := os.LookupEnv(env)
		if !ok || v == "" {
			continue
		}
		if err := f.Value.Set(v); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", env, v, err)
		}
	}
	return nil
}

func newLogger(verbose bool) *log.Logger {
	flags := log.LstdFlags
	if verbose {
		flags |= log.Lshortfile | log.Lmicroseconds
	}
	return log.New(os.Stderr, "", flags)
}

func parseDays(s string) (*int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("days must be an integer: %w", err)
	}
	return &n, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
