/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import (
	"sort"

	"github.com/kentakayama/device-locker/internal/util"
)

type Condition string

const (
	ConditionGood Condition = "GOOD"
	ConditionFair Condition = "FAIR"
	ConditionPoor Condition = "POOR"
)

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// Device is a loanable item. TimesBorrowed only ever grows, once per successful borrow.
type Device struct {
	ID            string    `json:"id" cbor:"id"`
	Name          string    `json:"name" cbor:"name"`
	Tags          []string  `json:"tags" cbor:"tags"`
	Condition     Condition `json:"condition" cbor:"condition"`
	TimesBorrowed int       `json:"timesBorrowed" cbor:"timesBorrowed"`
}

func NewDevice(id, name string, tags []string, condition Condition) Device {
	return Device{
		ID:        id,
		Name:      name,
		Tags:      tags,
		Condition: condition,
	}.Normalize()
}

// Normalize returns a copy with de-duplicated, sorted tags and a GOOD default condition.
func (d Device) Normalize() Device {
	set := util.NewSet[string]()
	for _, t := range d.Tags {
		set.Add(t)
	}
	tags := set.Values()
	sort.Strings(tags)
	d.Tags = tags
	if d.Condition == "" {
		d.Condition = ConditionGood
	}
	return d
}

// Clone returns a copy that shares no memory with d.
func (d Device) Clone() Device {
	d.Tags = append([]string(nil), d.Tags...)
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d
}

func (d Device) IncrementTimesBorrowed() Device {
	d = d.Clone()
	d.TimesBorrowed++
	return d
}

func (d Device) Key() string { return d.ID }
