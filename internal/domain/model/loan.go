/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// Loan records one borrow of a device. Identity is DeviceID + BorrowedAt.
// ReturnedAt is nil while the loan is open.
type Loan struct {
	DeviceID   string     `json:"deviceId" cbor:"deviceId"`
	UserID     string     `json:"userId" cbor:"userId"`
	BorrowedAt time.Time  `json:"borrowedAt" cbor:"borrowedAt"`
	DueAt      time.Time  `json:"dueAt" cbor:"dueAt"`
	ReturnedAt *time.Time `json:"returnedAt" cbor:"returnedAt"`
}

func (l Loan) IsOpen() bool {
	return l.ReturnedAt == nil
}

func (l Loan) SameIdentity(other Loan) bool {
	return l.DeviceID == other.DeviceID && l.BorrowedAt.Equal(other.BorrowedAt)
}

func (l Loan) WithReturnedAt(t time.Time) Loan {
	l.ReturnedAt = &t
	return l
}

// Clone returns a copy whose ReturnedAt does not alias l's.
func (l Loan) Clone() Loan {
	if l.ReturnedAt != nil {
		t := *l.ReturnedAt
		l.ReturnedAt = &t
	}
	return l
}
