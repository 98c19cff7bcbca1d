/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cli

import (
	"fmt"
	"os"

	"github.com/kentakayama/device-locker/internal/util"
	"github.com/spf13/cobra"
)

func newSnapshotCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect snapshot files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dump [PATH]",
		Short: "Print a CBOR snapshot file as JSON",
		Long:  `Decode a .cbor snapshot (by default the --data file) and print it as indented JSON.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := o.cfg.Store.Data
			if len(args) == 1 {
				path = args[0]
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}
			out, err := util.RenderCBOR(data)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	})
	return cmd
}
