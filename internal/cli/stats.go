/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/kentakayama/device-locker/internal/locker"
	"github.com/spf13/cobra"
)

func newPopularCmd(o *rootOptions) *cobra.Command {
	var (
		limit int
		since string
	)
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "Rank devices by number of loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var start *time.Time
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("--since must be an RFC3339 timestamp: %w", err)
				}
				start = &t
			}
			return withLocker(cmd.Context(), o, false, func(l *locker.Locker) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tLOANS")
				for _, e := range l.Stats.PopularSince(start, limit) {
					fmt.Fprintf(w, "%s\t%s\t%d\n", e.Device.ID, e.Device.Name, e.Count)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Maximum number of devices")
	cmd.Flags().StringVar(&since, "since", "", "Window start (RFC3339); defaults to 30 days ago")
	return cmd
}

func newOverdueCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List open loans past their due date with late fees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLocker(cmd.Context(), o, false, func(l *locker.Locker) error {
				entries := l.Stats.Overdue()
				if len(entries) == 0 {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "No overdue loans.")
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "DEVICE\tUSER\tDAYS\tFEE")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\n", e.DeviceName, e.UserID, e.DaysOverdue, e.Fee)
				}
				return w.Flush()
			})
		},
	}
}
