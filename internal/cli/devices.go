/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/kentakayama/device-locker/internal/domain/model"
	"github.com/kentakayama/device-locker/internal/locker"
	"github.com/spf13/cobra"
)

func newDevicesCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"device", "d"},
		Short:   "List and search devices",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all devices",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLocker(cmd.Context(), o, false, func(l *locker.Locker) error {
				return printDevices(cmd.OutOrStdout(), l.Catalog.ListDevices())
			})
		},
	}

	search := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find devices by name or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocker(cmd.Context(), o, false, func(l *locker.Locker) error {
				return printDevices(cmd.OutOrStdout(), l.Catalog.SearchDevices(args[0]))
			})
		},
	}

	cmd.AddCommand(list, search)
	return cmd
}

func printDevices(out io.Writer, devices []model.Device) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(out, "No devices found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCONDITION\tBORROWED\tTAGS")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", d.ID, d.Name, d.Condition, d.TimesBorrowed, strings.Join(d.Tags, ","))
	}
	return w.Flush()
}
