/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package memory

import (
	"sync"

	"github.com/kentakayama/device-locker/internal/domain/model"
)

// Entity is a record keyed by a stable id that can copy itself without aliasing.
type Entity[T any] interface {
	Key() string
	Clone() T
}

// Store is a keyed entity store. FindAll preserves first-insertion order.
type Store[T Entity[T]] struct {
	mu    sync.RWMutex
	order []string
	items map[string]T
}

func NewStore[T Entity[T]]() *Store[T] {
	return &Store[T]{items: make(map[string]T)}
}

func NewDeviceStore() *Store[model.Device] {
	return NewStore[model.Device]()
}

func NewUserStore() *Store[model.User] {
	return NewStore[model.User]()
}

func (s *Store[T]) FindAll() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].Clone())
	}
	return out
}

func (s *Store[T]) FindByID(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return v.Clone(), true
}

// Save upserts v, replacing the whole record.
func (s *Store[T]) Save(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := v.Key()
	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = v.Clone()
}

// Replace discards the current contents and loads items in order.
func (s *Store[T]) Replace(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	s.items = make(map[string]T, len(items))
	for _, v := range items {
		id := v.Key()
		if _, ok := s.items[id]; !ok {
			s.order = append(s.order, id)
		}
		s.items[id] = v.Clone()
	}
}

func (s *Store[T]) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
