/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerialisesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("d-001")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Equal(t, 0, km.size())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	unlockA := km.Lock("a")
	// must not block while "a" is held
	unlockB := km.Lock("b")
	assert.Equal(t, 2, km.size())

	unlockB()
	unlockA()
	// double unlock is a no-op
	unlockA()
	assert.Equal(t, 0, km.size())
}

func TestSet_Values(t *testing.T) {
	s := NewSet[string]()
	assert.NotNil(t, s.Values())
	assert.Empty(t, s.Values())

	s.Add("x")
	s.Add("x")
	s.Add("y")
	assert.True(t, s.Has("x"))
	assert.False(t, s.Has("z"))
	assert.ElementsMatch(t, []string{"x", "y"}, s.Values())
}
