/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

// Snapshot is the full persisted state handed to and from a snapshot store.
type Snapshot struct {
	Devices []Device `json:"devices" cbor:"devices"`
	Users   []User   `json:"users" cbor:"users"`
	Loans   []Loan   `json:"loans" cbor:"loans"`
}
