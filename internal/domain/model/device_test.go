/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCondition_Valid(t *testing.T) {
	for _, c := range []Condition{ConditionGood, ConditionFair, ConditionPoor} {
		assert.True(t, c.Valid(), c)
	}
	for _, c := range []Condition{"", "BROKEN", "good"} {
		assert.False(t, c.Valid(), c)
	}
}

func TestDevice_Normalize(t *testing.T) {
	d := Device{ID: "d-001", Tags: []string{"laptop", "apple", "laptop"}}.Normalize()
	assert.Equal(t, []string{"apple", "laptop"}, d.Tags)
	assert.Equal(t, ConditionGood, d.Condition)

	broken := Device{ID: "d-002", Condition: "BROKEN"}.Normalize()
	assert.Equal(t, Condition("BROKEN"), broken.Condition)
	assert.False(t, broken.Condition.Valid())
}
