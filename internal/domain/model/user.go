/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

type User struct {
	ID   string `json:"id" cbor:"id"`
	Name string `json:"name" cbor:"name"`
}

func (u User) Key() string { return u.ID }

func (u User) Clone() User { return u }
