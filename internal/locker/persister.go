/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package locker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kentakayama/device-locker/internal/domain/model"
	"github.com/kentakayama/device-locker/internal/domain/service"
)

const shutdownFlushTimeout = 10 * time.Second

type snapshotSource interface {
	Snapshot() (*model.Snapshot, uint64)
	Version() uint64
}

// Persister writes snapshots to the durable store. Borrow and return respond
// before the next flush, so a crash loses the transitions made since then.
type Persister struct {
	source   snapshotSource
	store    service.SnapshotStore
	interval time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	flushed uint64
	// forced is set until the first successful flush so an unchanged state is still written once.
	forced bool
}

func NewPersister(source snapshotSource, store service.SnapshotStore, interval time.Duration, logger *log.Logger) *Persister {
	if logger == nil {
		logger = log.Default()
	}
	return &Persister{
		source:   source,
		store:    store,
		interval: interval,
		logger:   logger,
		forced:   true,
	}
}

// Flush saves the current state if it changed since the last successful flush.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.forced && p.source.Version() == p.flushed {
		return nil
	}
	snap, version := p.source.Snapshot()
	if err := p.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	p.flushed = version
	p.forced = false
	return nil
}

// Run flushes every interval until ctx is cancelled, then flushes once more.
func (p *Persister) Run(ctx context.Context) error {
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
				if err := p.Flush(ctx); err != nil {
					p.logger.Printf("periodic flush failed: %v", err)
				}
			}
		}
	} else {
		<-ctx.Done()
	}

	p.logger.Printf("Persisting data on shutdown...")
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
	defer cancel()
	return p.Flush(flushCtx)
}
