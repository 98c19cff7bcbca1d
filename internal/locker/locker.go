/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package locker

import (
	"context"
	"fmt"
	"time"

	"github.com/kentakayama/device-locker/internal/config"
	"github.com/kentakayama/device-locker/internal/domain/service"
	"github.com/kentakayama/device-locker/internal/infra/memory"
)

const timeLayout = time.RFC3339

// Locker is the process-wide set of services built over one in-memory state.
type Locker struct {
	Loans     *LoanService
	Stats     *Stats
	Catalog   *Catalog
	Persister *Persister
}

// Bootstrap loads the last snapshot from store and wires the services on top of it.
func Bootstrap(ctx context.Context, store service.SnapshotStore, cfg config.Config, opts ...Option) (*Locker, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	devices := memory.NewDeviceStore()
	users := memory.NewUserStore()
	loans := memory.NewLoanLedger()
	for i := range snap.Devices {
		d := snap.Devices[i].Normalize()
		if !d.Condition.Valid() {
			return nil, fmt.Errorf("failed to load snapshot: device %s has unknown condition %q", d.ID, d.Condition)
		}
		snap.Devices[i] = d
	}
	devices.Replace(snap.Devices)
	users.Replace(snap.Users)
	loans.Replace(snap.Loans)

	opts = append([]Option{WithLogger(cfg.Logger)}, opts...)
	l := New(devices, users, loans, NewFeePolicy(cfg.Fees), opts...)
	l.Persister = NewPersister(l.Loans, store, cfg.FlushInterval, cfg.Logger)

	l.Loans.opts.logger.Printf("Loaded %d devices, %d users, %d loans", len(snap.Devices), len(snap.Users), len(snap.Loans))
	return l, nil
}

// New wires the services over the given repositories. Persister is left nil.
func New(devices service.DeviceRepository, users service.UserRepository, loans service.LoanRepository, fees FeePolicy, opts ...Option) *Locker {
	return &Locker{
		Loans:   NewLoanService(devices, users, loans, opts...),
		Stats:   NewStats(devices, loans, fees, opts...),
		Catalog: NewCatalog(devices, users, loans),
	}
}
