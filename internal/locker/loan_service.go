/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package locker

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kentakayama/device-locker/internal/domain"
	"github.com/kentakayama/device-locker/internal/domain/model"
	"github.com/kentakayama/device-locker/internal/domain/service"
	"github.com/kentakayama/device-locker/internal/util"
)

// LoanService moves devices between AVAILABLE (no open loan) and BORROWED
// (exactly one open loan).
type LoanService struct {
	devices service.DeviceRepository
	users   service.UserRepository
	loans   service.LoanRepository

	// borrow/return hold state shared and the device lock exclusively;
	// Snapshot holds state exclusively so it never sees half a transition.
	state   sync.RWMutex
	locks   *util.KeyedMutex
	version atomic.Uint64

	opts options
}

func NewLoanService(devices service.DeviceRepository, users service.UserRepository, loans service.LoanRepository, opts ...Option) *LoanService {
	return &LoanService{
		devices: devices,
		users:   users,
		loans:   loans,
		locks:   util.NewKeyedMutex(),
		opts:    newOptions(opts),
	}
}

// Borrow opens a loan of deviceID to userID for the given number of days.
func (s *LoanService) Borrow(deviceID, userID string, days *int) (model.Loan, error) {
	if strings.TrimSpace(deviceID) == "" {
		return model.Loan{}, domain.Validation("deviceId is required")
	}
	if strings.TrimSpace(userID) == "" {
		return model.Loan{}, domain.Validation("userId is required")
	}
	if days == nil || *days <= 0 {
		return model.Loan{}, domain.Validation("days must be positive")
	}

	s.state.RLock()
	defer s.state.RUnlock()
	unlock := s.locks.Lock(deviceID)
	defer unlock()

	device, ok := s.devices.FindByID(deviceID)
	if !ok {
		return model.Loan{}, domain.NotFound("Device not found")
	}
	user, ok := s.users.FindByID(userID)
	if !ok {
		return model.Loan{}, domain.NotFound("User not found")
	}
	if _, open := s.loans.FindOpenLoanByDevice(deviceID); open {
		return model.Loan{}, domain.Conflict("Device already borrowed")
	}

	now := s.opts.nowUTC()
	loan := model.Loan{
		DeviceID:   deviceID,
		UserID:     userID,
		BorrowedAt: now,
		DueAt:      now.AddDate(0, 0, *days),
	}
	s.loans.Save(loan)
	s.devices.Save(device.IncrementTimesBorrowed())
	s.version.Add(1)

	s.opts.logger.Printf("Device %s borrowed by %s (user: %s) until %s", deviceID, userID, user.Name, loan.DueAt.Format(timeLayout))
	return loan, nil
}

// ReturnDevice closes the open loan of deviceID.
func (s *LoanService) ReturnDevice(deviceID string) (model.Loan, error) {
	if strings.TrimSpace(deviceID) == "" {
		return model.Loan{}, domain.Validation("deviceId is required")
	}

	s.state.RLock()
	defer s.state.RUnlock()
	unlock := s.locks.Lock(deviceID)
	defer unlock()

	open, ok := s.loans.FindOpenLoanByDevice(deviceID)
	if !ok {
		return model.Loan{}, domain.NotFound("Open loan not found for device")
	}

	returnedAt := s.opts.nowUTC()
	if returnedAt.Before(open.BorrowedAt) {
		// clock went backwards; a loan is never returned before it was borrowed
		returnedAt = open.BorrowedAt
	}
	updated := open.WithReturnedAt(returnedAt)
	s.loans.Update(updated)
	s.version.Add(1)

	s.opts.logger.Printf("Device %s returned", deviceID)
	return updated, nil
}

// Snapshot returns a consistent copy of devices, users and loans together with
// the number of transitions applied so far.
func (s *LoanService) Snapshot() (*model.Snapshot, uint64) {
	s.state.Lock()
	defer s.state.Unlock()

	return &model.Snapshot{
		Devices: s.devices.FindAll(),
		Users:   s.users.FindAll(),
		Loans:   s.loans.FindAll(),
	}, s.version.Load()
}

// Version counts successful borrow and return transitions.
func (s *LoanService) Version() uint64 {
	return s.version.Load()
}
