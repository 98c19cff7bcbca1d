/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package service

import (
	"context"
	"errors"

	"github.com/kentakayama/device-locker/internal/domain/model"
)

// DeviceRepository defines the interface for the device entity store.
type DeviceRepository interface {
	FindAll() []model.Device
	FindByID(id string) (model.Device, bool)
	Save(d model.Device)
}

// UserRepository defines the interface for the user entity store.
type UserRepository interface {
	FindAll() []model.User
	FindByID(id string) (model.User, bool)
	Save(u model.User)
}

// LoanRepository defines the interface for the loan ledger.
// Save appends; callers must have checked FindOpenLoanByDevice under the device lock.
type LoanRepository interface {
	FindAll() []model.Loan
	FindOpenLoanByDevice(deviceID string) (model.Loan, bool)
	Save(l model.Loan)
	Update(l model.Loan)
}

// ErrStoreLocked is returned by SnapshotStore.Lock when another writer keeps
// the store locked until ctx is done.
var ErrStoreLocked = errors.New("snapshot store is locked by another process")

// SnapshotStore defines the interface for durable snapshot persistence.
// Load returns an empty snapshot when nothing has been stored yet.
//
// A process that saves must hold Lock from its Load until its last Save:
// snapshots replace the whole store, so two unlocked writers lose each
// other's loans.
type SnapshotStore interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	Save(ctx context.Context, s *model.Snapshot) error
	// Lock blocks until this process is the only writer or ctx is done.
	Lock(ctx context.Context) (unlock func() error, err error)
	Close() error
}
