/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kentakayama/device-locker/internal/domain/model"
)

const timeFormat = time.RFC3339Nano

type LoanRepository struct {
	db dbtx
}

func NewLoanRepository(db dbtx) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) FindAll(ctx context.Context) ([]model.Loan, error) {
	const query = `
		SELECT device_id, user_id, borrowed_at, due_at, returned_at
		FROM loans
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	loans := make([]model.Loan, 0)
	for rows.Next() {
		var (
			l                 model.Loan
			borrowedAt, dueAt string
			returnedAt        sql.NullString
		)
		if err := rows.Scan(&l.DeviceID, &l.UserID, &borrowedAt, &dueAt, &returnedAt); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		if l.BorrowedAt, err = time.Parse(timeFormat, borrowedAt); err != nil {
			return nil, fmt.Errorf("parse borrowed_at: %w", err)
		}
		if l.DueAt, err = time.Parse(timeFormat, dueAt); err != nil {
			return nil, fmt.Errorf("parse due_at: %w", err)
		}
		if returnedAt.Valid {
			t, err := time.Parse(timeFormat, returnedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse returned_at: %w", err)
			}
			l.ReturnedAt = &t
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func (r *LoanRepository) ReplaceAll(ctx context.Context, loans []model.Loan) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM loans`); err != nil {
		return fmt.Errorf("delete loans: %w", err)
	}

	const query = `
		INSERT INTO loans (device_id, borrowed_at, user_id, due_at, returned_at, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i, l := range loans {
		var returnedAt sql.NullString
		if l.ReturnedAt != nil {
			returnedAt = sql.NullString{String: l.ReturnedAt.UTC().Format(timeFormat), Valid: true}
		}
		_, err := r.db.ExecContext(ctx, query,
			l.DeviceID,
			l.BorrowedAt.UTC().Format(timeFormat),
			l.UserID,
			l.DueAt.UTC().Format(timeFormat),
			returnedAt,
			i,
		)
		if err != nil {
			return fmt.Errorf("insert loan %s@%s: %w", l.DeviceID, l.BorrowedAt.Format(timeFormat), err)
		}
	}
	return nil
}
