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

	"github.com/kentakayama/device-locker/internal/domain/model"
	"github.com/kentakayama/device-locker/internal/infra/filelock"
)

// Store persists snapshots in SQLite, one table per record kind.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (or creates) the database at dbPath. ":memory:" is accepted.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	db, err := InitDB(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

func (s *Store) Load(ctx context.Context) (*model.Snapshot, error) {
	devices, err := NewDeviceRepository(s.db).FindAll(ctx)
	if err != nil {
		return nil, err
	}
	users, err := NewUserRepository(s.db).FindAll(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := NewLoanRepository(s.db).FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return &model.Snapshot{Devices: devices, Users: users, Loans: loans}, nil
}

// Save replaces all rows with the snapshot in a single transaction.
func (s *Store) Save(ctx context.Context, snap *model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := NewDeviceRepository(tx).ReplaceAll(ctx, snap.Devices); err != nil {
		return err
	}
	if err := NewUserRepository(tx).ReplaceAll(ctx, snap.Users); err != nil {
		return err
	}
	if err := NewLoanRepository(tx).ReplaceAll(ctx, snap.Loans); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Lock takes the lock file next to the database. In-memory databases are
// private to this process and need no lock.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	if isMemory(s.dbPath) {
		return func() error { return nil }, nil
	}
	return filelock.Acquire(ctx, s.dbPath)
}

func (s *Store) Close() error {
	return CloseDB(s.db)
}
