/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

// OverdueEntry is derived from an open loan whose due date has passed.
type OverdueEntry struct {
	DeviceID    string  `json:"deviceId"`
	UserID      string  `json:"userId"`
	DaysOverdue int64   `json:"daysOverdue"`
	Fee         float64 `json:"fee"`
	DeviceName  string  `json:"deviceName"`
}

// PopularEntry pairs a device with the number of loans counted in a window.
type PopularEntry struct {
	Device Device `json:"device"`
	Count  int64  `json:"count"`
}
