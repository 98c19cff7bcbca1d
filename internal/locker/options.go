/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package locker

import (
	"log"
	"time"
)

type options struct {
	now    func() time.Time
	logger *log.Logger
}

type Option func(*options)

// WithClock replaces time.Now. Instants are converted to UTC and truncated to
// microseconds so they survive every snapshot store unchanged.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	return o
}

func (o options) nowUTC() time.Time {
	return o.now().UTC().Truncate(time.Microsecond)
}
