/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package locker

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kentakayama/device-locker/internal/config"
	"github.com/kentakayama/device-locker/internal/domain/model"
	"github.com/kentakayama/device-locker/internal/domain/service"
)

const (
	DefaultPopularWindowDays = 30
	day                      = 24 * time.Hour
)

// FeePolicy holds overdue fees in cents.
type FeePolicy struct {
	PerDayCents int64
	// OneDayCents is charged for exactly one overdue day instead of PerDayCents.
	OneDayCents int64
}

func NewFeePolicy(cfg config.FeeConfig) FeePolicy {
	return FeePolicy{
		PerDayCents: toCents(cfg.PerDay),
		OneDayCents: toCents(cfg.OneDay),
	}
}

func DefaultFeePolicy() FeePolicy {
	return NewFeePolicy(config.FeeConfig{PerDay: config.DefaultFeePerDay, OneDay: config.DefaultOneDayFee})
}

// FeeCents returns the fee for a loan overdue by daysOverdue whole days.
func (p FeePolicy) FeeCents(daysOverdue int64) int64 {
	if daysOverdue <= 0 {
		return 0
	}
	if daysOverdue == 1 {
		return p.OneDayCents
	}
	return daysOverdue * p.PerDayCents
}

func toCents(units float64) int64 {
	return int64(math.Round(units * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}

// Stats computes reports over the current ledger. Nothing is cached between calls.
type Stats struct {
	devices service.DeviceRepository
	loans   service.LoanRepository
	fees    FeePolicy
	opts    options
}

func NewStats(devices service.DeviceRepository, loans service.LoanRepository, fees FeePolicy, opts ...Option) *Stats {
	return &Stats{
		devices: devices,
		loans:   loans,
		fees:    fees,
		opts:    newOptions(opts),
	}
}

// PopularSince ranks devices by loans borrowed at or after since (default: the
// last 30 days). Ties keep the order in which devices first appear in the ledger.
func (s *Stats) PopularSince(since *time.Time, limit int) []model.PopularEntry {
	var start time.Time
	if since != nil {
		start = *since
	} else {
		start = s.opts.nowUTC().AddDate(0, 0, -DefaultPopularWindowDays)
	}

	counts := make(map[string]int64)
	var order []string
	for _, l := range s.loans.FindAll() {
		if l.BorrowedAt.Before(start) {
			continue
		}
		if _, seen := counts[l.DeviceID]; !seen {
			order = append(order, l.DeviceID)
		}
		counts[l.DeviceID]++
	}

	entries := make([]model.PopularEntry, 0, len(order))
	for _, id := range order {
		d, ok := s.devices.FindByID(id)
		if !ok {
			continue
		}
		entries = append(entries, model.PopularEntry{Device: d, Count: counts[id]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	limit = max(0, limit)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Overdue lists open loans whose due date is strictly before now.
func (s *Stats) Overdue() []model.OverdueEntry {
	now := s.opts.nowUTC()
	out := make([]model.OverdueEntry, 0)
	for _, l := range s.loans.FindAll() {
		if !l.IsOpen() || !l.DueAt.Before(now) {
			continue
		}
		days := int64(now.Sub(l.DueAt) / day)
		out = append(out, model.OverdueEntry{
			DeviceID:    l.DeviceID,
			UserID:      l.UserID,
			DaysOverdue: days,
			Fee:         fromCents(s.fees.FeeCents(days)),
			DeviceName:  s.deviceName(l.DeviceID),
		})
	}
	return out
}

func (s *Stats) deviceName(id string) string {
	d, ok := s.devices.FindByID(id)
	if !ok {
		return fmt.Sprintf("Unknown device %s", id)
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.ID)
}
