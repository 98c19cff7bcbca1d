/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package locker

import (
	"strings"

	"github.com/kentakayama/device-locker/internal/domain/model"
	"github.com/kentakayama/device-locker/internal/domain/service"
)

// Catalog serves the read-only listings the request layer needs.
type Catalog struct {
	devices service.DeviceRepository
	users   service.UserRepository
	loans   service.LoanRepository
}

func NewCatalog(devices service.DeviceRepository, users service.UserRepository, loans service.LoanRepository) *Catalog {
	return &Catalog{devices: devices, users: users, loans: loans}
}

func (c *Catalog) ListDevices() []model.Device {
	return c.devices.FindAll()
}

// SearchDevices matches name or any tag, case-insensitively. A blank query
// returns all devices; otherwise surrounding spaces are part of the match.
func (c *Catalog) SearchDevices(query string) []model.Device {
	if strings.TrimSpace(query) == "" {
		return c.ListDevices()
	}
	q := strings.ToLower(query)

	out := make([]model.Device, 0)
	for _, d := range c.devices.FindAll() {
		if matches(d, q) {
			out = append(out, d)
		}
	}
	return out
}

func matches(d model.Device, q string) bool {
	if strings.Contains(strings.ToLower(d.Name), q) {
		return true
	}
	for _, t := range d.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func (c *Catalog) ListUsers() []model.User {
	return c.users.FindAll()
}

func (c *Catalog) ListLoans(openOnly bool) []model.Loan {
	all := c.loans.FindAll()
	if !openOnly {
		return all
	}
	open := all[:0]
	for _, l := range all {
		if l.IsOpen() {
			open = append(open, l)
		}
	}
	return open
}
