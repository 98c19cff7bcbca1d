/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package filelock serialises writers of a file-backed store across processes
// with an advisory lock on a sibling ".lock" file.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/kentakayama/device-locker/internal/domain/service"
)

const retryDelay = 50 * time.Millisecond

// PathFor returns the lock file guarding path.
func PathFor(path string) string {
	return path + ".lock"
}

// Acquire takes the exclusive lock for path, retrying until ctx is done.
// The lock is released when the returned func is called or the process exits.
func Acquire(ctx context.Context, path string) (func() error, error) {
	lockPath := PathFor(path)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", lockPath, err)
	}

	fl := flock.New(lockPath)
	ok, err := fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %s", service.ErrStoreLocked, lockPath)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrStoreLocked, lockPath)
	}
	return fl.Unlock, nil
}
