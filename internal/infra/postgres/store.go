/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/kentakayama/device-locker/internal/domain/model"
	"github.com/kentakayama/device-locker/internal/domain/service"
)

const (
	dialectPostgres  = "postgres"
	tableDevices     = "locker_devices"
	tableUsers       = "locker_users"
	tableLoans       = "locker_loans"
	colID            = "id"
	colName          = "name"
	colTags          = "tags"
	colCondition     = "condition"
	colTimesBorrowed = "times_borrowed"
	colPosition      = "position"
	colDeviceID      = "device_id"
	colUserID        = "user_id"
	colBorrowedAt    = "borrowed_at"
	colDueAt         = "due_at"
	colReturnedAt    = "returned_at"

	// advisoryLockKey identifies the single-writer lock ("locker" in ASCII).
	advisoryLockKey int64 = 0x6c6f636b6572
)

var (
	ErrBuildingQueryFailed = errors.New("building query failed")

	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

const schema = `
CREATE TABLE IF NOT EXISTS locker_devices (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	condition TEXT NOT NULL DEFAULT 'GOOD',
	times_borrowed INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS locker_users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS locker_loans (
	device_id TEXT NOT NULL,
	borrowed_at TIMESTAMPTZ NOT NULL,
	user_id TEXT NOT NULL,
	due_at TIMESTAMPTZ NOT NULL,
	returned_at TIMESTAMPTZ,
	position INTEGER NOT NULL,
	PRIMARY KEY (device_id, borrowed_at)
);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_locker_loans_open_device ON locker_loans (device_id) WHERE returned_at IS NULL;
`

// Store persists snapshots in PostgreSQL. Timestamps keep microsecond precision.
type Store struct {
	pool    *pgxpool.Pool
	builder goqu.DialectWrapper
}

// NewStore connects to dsn and creates the tables if they do not exist.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{pool: pool, builder: goqu.Dialect(dialectPostgres)}, nil
}

func (s *Store) Load(ctx context.Context) (*model.Snapshot, error) {
	devices, err := s.loadDevices(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := s.loadLoans(ctx)
	if err != nil {
		return nil, err
	}
	return &model.Snapshot{Devices: devices, Users: users, Loans: loans}, nil
}

func (s *Store) loadDevices(ctx context.Context) ([]model.Device, error) {
	query, args, err := s.builder.From(tableDevices).
		Select(colID, colName, colTags, colCondition, colTimesBorrowed).
		Order(goqu.I(colPosition).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	devices := make([]model.Device, 0)
	for rows.Next() {
		var (
			d         model.Device
			tags      string
			condition string
		)
		if err := rows.Scan(&d.ID, &d.Name, &tags, &condition, &d.TimesBorrowed); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		if err := json.UnmarshalFromString(tags, &d.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of device %s: %w", d.ID, err)
		}
		d.Condition = model.Condition(condition)
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (s *Store) loadUsers(ctx context.Context) ([]model.User, error) {
	query, args, err := s.builder.From(tableUsers).
		Select(colID, colName).
		Order(goqu.I(colPosition).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) loadLoans(ctx context.Context) ([]model.Loan, error) {
	query, args, err := s.builder.From(tableLoans).
		Select(colDeviceID, colUserID, colBorrowedAt, colDueAt, colReturnedAt).
		Order(goqu.I(colPosition).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	loans := make([]model.Loan, 0)
	for rows.Next() {
		var (
			l          model.Loan
			returnedAt *time.Time
		)
		if err := rows.Scan(&l.DeviceID, &l.UserID, &l.BorrowedAt, &l.DueAt, &returnedAt); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		l.BorrowedAt = l.BorrowedAt.UTC()
		l.DueAt = l.DueAt.UTC()
		if returnedAt != nil {
			utc := returnedAt.UTC()
			l.ReturnedAt = &utc
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// Save replaces all rows with the snapshot in a single transaction.
func (s *Store) Save(ctx context.Context, snap *model.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	truncate, _, err := s.builder.Truncate(tableLoans, tableUsers, tableDevices).ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}
	if _, err := tx.Exec(ctx, truncate); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}

	deviceRows := make([]any, 0, len(snap.Devices))
	for i, d := range snap.Devices {
		tags, err := json.MarshalToString(d.Clone().Tags)
		if err != nil {
			return fmt.Errorf("encode tags of device %s: %w", d.ID, err)
		}
		deviceRows = append(deviceRows, goqu.Record{
			colID:            d.ID,
			colName:          d.Name,
			colTags:          tags,
			colCondition:     string(d.Condition),
			colTimesBorrowed: d.TimesBorrowed,
			colPosition:      i,
		})
	}
	if err := s.insert(ctx, tx, tableDevices, deviceRows); err != nil {
		return err
	}

	userRows := make([]any, 0, len(snap.Users))
	for i, u := range snap.Users {
		userRows = append(userRows, goqu.Record{colID: u.ID, colName: u.Name, colPosition: i})
	}
	if err := s.insert(ctx, tx, tableUsers, userRows); err != nil {
		return err
	}

	loanRows := make([]any, 0, len(snap.Loans))
	for i, l := range snap.Loans {
		var returnedAt any
		if l.ReturnedAt != nil {
			returnedAt = l.ReturnedAt.UTC()
		}
		loanRows = append(loanRows, goqu.Record{
			colDeviceID:   l.DeviceID,
			colBorrowedAt: l.BorrowedAt.UTC(),
			colUserID:     l.UserID,
			colDueAt:      l.DueAt.UTC(),
			colReturnedAt: returnedAt,
			colPosition:   i,
		})
	}
	if err := s.insert(ctx, tx, tableLoans, loanRows); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) insert(ctx context.Context, tx pgx.Tx, table string, rows []any) error {
	if len(rows) == 0 {
		return nil
	}
	query, args, err := s.builder.Insert(table).Rows(rows...).Prepared(true).ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// Lock takes a session-level advisory lock on a connection reserved until unlock.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	lockSQL, lockArgs, err := s.builder.Select(goqu.Func("pg_advisory_lock", advisoryLockKey)).Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}
	unlockSQL, unlockArgs, err := s.builder.Select(goqu.Func("pg_advisory_unlock", advisoryLockKey)).Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	if _, err := conn.Exec(ctx, lockSQL, lockArgs...); err != nil {
		conn.Release()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: advisory lock %d", service.ErrStoreLocked, advisoryLockKey)
		}
		return nil, fmt.Errorf("failed to take advisory lock: %w", err)
	}

	return func() error {
		defer conn.Release()
		if _, err := conn.Exec(context.Background(), unlockSQL, unlockArgs...); err != nil {
			return fmt.Errorf("failed to release advisory lock: %w", err)
		}
		return nil
	}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
