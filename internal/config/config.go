/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package config

import (
	"log"
	"time"
)

const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	DefaultAddr          = ":8080"
	DefaultData          = "data/locker.json"
	DefaultFlushInterval = 30 * time.Second
	DefaultLockTimeout   = 5 * time.Second
	DefaultFeePerDay     = 0.5
	DefaultOneDayFee     = 0.5
)

// Config captures the tunables required to start the device locker.
type Config struct {
	Addr  string
	Store StoreConfig
	// FlushInterval of zero disables periodic flushes; state is still flushed on shutdown.
	FlushInterval time.Duration
	Fees          FeeConfig
	Logger        *log.Logger
}

type StoreConfig struct {
	Kind string
	// Data is a file path for file/sqlite stores and a DSN for postgres.
	Data string
	// LockTimeout bounds the wait for the single-writer store lock.
	LockTimeout time.Duration
}

// FeeConfig is expressed in currency units. OneDay applies to loans exactly one day overdue.
type FeeConfig struct {
	PerDay float64
	OneDay float64
}

func Default() Config {
	return Config{
		Addr: DefaultAddr,
		Store: StoreConfig{
			Kind:        StoreFile,
			Data:        DefaultData,
			LockTimeout: DefaultLockTimeout,
		},
		FlushInterval: DefaultFlushInterval,
		Fees: FeeConfig{
			PerDay: DefaultFeePerDay,
			OneDay: DefaultOneDayFee,
		},
		Logger: log.Default(),
	}
}
