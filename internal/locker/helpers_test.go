/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package locker

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/kentakayama/device-locker/internal/domain/model"
	"github.com/kentakayama/device-locker/internal/infra/memory"
)

var baseTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	devices *memory.Store[model.Device]
	users   *memory.Store[model.User]
	loans   *memory.LoanLedger
	clock   *fakeClock
	locker  *Locker
}

func newFixture() *fixture {
	f := &fixture{
		devices: memory.NewDeviceStore(),
		users:   memory.NewUserStore(),
		loans:   memory.NewLoanLedger(),
		clock:   newFakeClock(baseTime),
	}
	f.devices.Save(model.NewDevice("d-001", "MacBook Pro", []string{"laptop", "apple"}, model.ConditionGood))
	f.devices.Save(model.NewDevice("d-002", "Canon EOS", []string{"camera"}, model.ConditionFair))
	f.devices.Save(model.NewDevice("d-003", "iPad", []string{"tablet", "apple"}, model.ConditionPoor))
	f.users.Save(model.User{ID: "u-101", Name: "Alice"})
	f.users.Save(model.User{ID: "u-102", Name: "Bob"})

	f.locker = New(f.devices, f.users, f.loans, DefaultFeePolicy(),
		WithClock(f.clock.Now),
		WithLogger(log.New(io.Discard, "", 0)),
	)
	return f
}

func intPtr(v int) *int { return &v }
