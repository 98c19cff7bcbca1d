/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package domain

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("item not found")
	ErrConflict   = errors.New("conflict")
)

// Error carries one of the sentinel kinds above plus a caller-facing reason.
type Error struct {
	Kind   error
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func Validation(reason string) error {
	return &Error{Kind: ErrValidation, Reason: reason}
}

func NotFound(reason string) error {
	return &Error{Kind: ErrNotFound, Reason: reason}
}

func Conflict(reason string) error {
	return &Error{Kind: ErrConflict, Reason: reason}
}
