/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cli

import (
	"fmt"

	"github.com/kentakayama/device-locker/internal/locker"
	"github.com/spf13/cobra"
)

func newBorrowCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow DEVICE_ID USER_ID DAYS",
		Short: "Lend a device to a user",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := parseDays(args[2])
			if err != nil {
				return err
			}
			return withLocker(cmd.Context(), o, true, func(l *locker.Locker) error {
				loan, err := l.Loans.Borrow(args[0], args[1], days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s borrowed by %s until %s\n", loan.DeviceID, loan.UserID, formatTime(loan.DueAt))
				return nil
			})
		},
	}
}

func newReturnCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "return DEVICE_ID",
		Short: "Close the open loan of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLocker(cmd.Context(), o, true, func(l *locker.Locker) error {
				loan, err := l.Loans.ReturnDevice(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s returned at %s\n", loan.DeviceID, formatTime(*loan.ReturnedAt))
				return nil
			})
		},
	}
}
