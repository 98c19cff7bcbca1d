/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/kentakayama/device-locker/internal/domain/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type DeviceRepository struct {
	db dbtx
}

// NewDeviceRepository creates a new instance of DeviceRepository.
func NewDeviceRepository(db dbtx) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) FindAll(ctx context.Context) ([]model.Device, error) {
	const query = `
		SELECT id, name, tags, condition, times_borrowed
		FROM devices
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	devices := make([]model.Device, 0)
	for rows.Next() {
		var d model.Device
		var tags string
		if err := rows.Scan(&d.ID, &d.Name, &tags, &d.Condition, &d.TimesBorrowed); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		if err := json.UnmarshalFromString(tags, &d.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of device %s: %w", d.ID, err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// ReplaceAll deletes every device and inserts the given ones in order.
func (r *DeviceRepository) ReplaceAll(ctx context.Context, devices []model.Device) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM devices`); err != nil {
		return fmt.Errorf("delete devices: %w", err)
	}

	const query = `
		INSERT INTO devices (id, name, tags, condition, times_borrowed, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i, d := range devices {
		tags, err := json.MarshalToString(d.Clone().Tags)
		if err != nil {
			return fmt.Errorf("encode tags of device %s: %w", d.ID, err)
		}
		if _, err := r.db.ExecContext(ctx, query, d.ID, d.Name, tags, string(d.Condition), d.TimesBorrowed, i); err != nil {
			return fmt.Errorf("insert device %s: %w", d.ID, err)
		}
	}
	return nil
}
