/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/kentakayama/device-locker/internal/config"
	"github.com/kentakayama/device-locker/internal/domain/service"
	"github.com/kentakayama/device-locker/internal/infra/file"
	"github.com/kentakayama/device-locker/internal/infra/postgres"
	"github.com/kentakayama/device-locker/internal/infra/sqlite"
	"github.com/kentakayama/device-locker/internal/locker"
)

func openStore(ctx context.Context, cfg config.StoreConfig) (service.SnapshotStore, error) {
	if cfg.Data == "" {
		return nil, errors.New("--data is required")
	}
	switch cfg.Kind {
	case config.StoreFile:
		return file.NewStore(cfg.Data)
	case config.StoreSQLite:
		return sqlite.NewStore(ctx, cfg.Data)
	case config.StorePostgres:
		return postgres.NewStore(ctx, cfg.Data)
	default:
		return nil, fmt.Errorf("unknown store %q (want %s, %s or %s)", cfg.Kind, config.StoreFile, config.StoreSQLite, config.StorePostgres)
	}
}

// lockStore waits up to cfg.LockTimeout to become the store's only writer.
func lockStore(ctx context.Context, store service.SnapshotStore, cfg config.StoreConfig) (func() error, error) {
	lockCtx := ctx
	if cfg.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, cfg.LockTimeout)
		defer cancel()
	}
	return store.Lock(lockCtx)
}

// withLocker opens the configured store, bootstraps a Locker over it and
// runs fn. When persist is set the store lock is held from load to flush and
// the state is flushed after fn succeeds.
func withLocker(ctx context.Context, o *rootOptions, persist bool, fn func(*locker.Locker) error) (err error) {
	store, err := openStore(ctx, o.cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close store: %w", cerr))
		}
	}()

	if persist {
		unlock, err := lockStore(ctx, store, o.cfg.Store)
		if err != nil {
			return err
		}
		defer func() {
			if uerr := unlock(); uerr != nil {
				err = errors.Join(err, fmt.Errorf("failed to unlock store: %w", uerr))
			}
		}()
	}

	l, err := locker.Bootstrap(ctx, store, o.cfg)
	if err != nil {
		return err
	}
	if err := fn(l); err != nil {
		return err
	}
	if persist {
		return l.Persister.Flush(ctx)
	}
	return nil
}
