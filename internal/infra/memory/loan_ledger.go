/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package memory

import (
	"sync"

	"github.com/kentakayama/device-locker/internal/domain/model"
)

// LoanLedger is the append/update-only list of loans, historical and open.
type LoanLedger struct {
	mu    sync.RWMutex
	loans []model.Loan
}

func NewLoanLedger() *LoanLedger {
	return &LoanLedger{}
}

func (l *LoanLedger) FindAll() []model.Loan {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Loan, len(l.loans))
	for i, loan := range l.loans {
		out[i] = loan.Clone()
	}
	return out
}

func (l *LoanLedger) FindOpenLoanByDevice(deviceID string) (model.Loan, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, loan := range l.loans {
		if loan.DeviceID == deviceID && loan.IsOpen() {
			return loan.Clone(), true
		}
	}
	return model.Loan{}, false
}

func (l *LoanLedger) Save(loan model.Loan) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loans = append(l.loans, loan.Clone())
}

// Update replaces the loan with the same identity, appending it if none matches.
func (l *LoanLedger) Update(loan model.Loan) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.loans {
		if l.loans[i].SameIdentity(loan) {
			l.loans[i] = loan.Clone()
			return
		}
	}
	l.loans = append(l.loans, loan.Clone())
}

func (l *LoanLedger) Replace(loans []model.Loan) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loans = make([]model.Loan, len(loans))
	for i, loan := range loans {
		l.loans[i] = loan.Clone()
	}
}
