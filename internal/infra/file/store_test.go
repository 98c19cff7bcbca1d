/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kentakayama/device-locker/internal/domain/model"
	"github.com/kentakayama/device-locker/internal/domain/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *model.Snapshot {
	borrowed := time.Date(2025, 6, 1, 9, 30, 15, 123456789, time.UTC)
	return &model.Snapshot{
		Devices: []model.Device{
			{ID: "d-001", Name: "MacBook Pro", Tags: []string{"apple", "laptop"}, Condition: model.ConditionGood, TimesBorrowed: 2},
			{ID: "d-002", Name: "Canon EOS", Tags: []string{}, Condition: model.ConditionFair, TimesBorrowed: 0},
		},
		Users: []model.User{{ID: "u-101", Name: "Alice"}},
		Loans: []model.Loan{
			model.Loan{DeviceID: "d-001", UserID: "u-101", BorrowedAt: borrowed.Add(-96 * time.Hour), DueAt: borrowed.Add(-48 * time.Hour)}.
				WithReturnedAt(borrowed.Add(-50 * time.Hour)),
			{DeviceID: "d-001", UserID: "u-101", BorrowedAt: borrowed, DueAt: borrowed.Add(72 * time.Hour)},
		},
	}
}

func assertSnapshotEqual(t *testing.T, want, got *model.Snapshot) {
	t.Helper()
	require.Len(t, got.Devices, len(want.Devices))
	for i := range want.Devices {
		assert.Equal(t, want.Devices[i].Clone(), got.Devices[i].Clone())
	}
	assert.Equal(t, want.Users, got.Users)
	require.Len(t, got.Loans, len(want.Loans))
	for i := range want.Loans {
		w, g := want.Loans[i], got.Loans[i]
		assert.True(t, w.SameIdentity(g), "loan %d identity", i)
		assert.Equal(t, w.UserID, g.UserID)
		assert.True(t, w.DueAt.Equal(g.DueAt))
		if w.ReturnedAt == nil {
			assert.Nil(t, g.ReturnedAt)
		} else {
			require.NotNil(t, g.ReturnedAt)
			assert.True(t, w.ReturnedAt.Equal(*g.ReturnedAt))
		}
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for _, name := range []string{"locker.json", "locker.cbor"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "nested", name)
			s, err := NewStore(path)
			require.Nil(t, err)
			defer s.Close()

			want := sampleSnapshot()
			require.Nil(t, s.Save(ctx, want))

			got, err := s.Load(ctx)
			require.Nil(t, err)
			assertSnapshotEqual(t, want, got)

			// no temp files left behind
			entries, err := os.ReadDir(filepath.Dir(path))
			require.Nil(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestStore_JSONFieldNames(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "locker.json")
	s, err := NewStore(path)
	require.Nil(t, err)
	require.Nil(t, s.Save(ctx, sampleSnapshot()))

	data, err := os.ReadFile(path)
	require.Nil(t, err)
	body := string(data)
	for _, field := range []string{`"timesBorrowed"`, `"deviceId"`, `"borrowedAt"`, `"dueAt"`, `"returnedAt": null`} {
		assert.True(t, strings.Contains(body, field), "missing %s", field)
	}
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "absent.cbor"))
	require.Nil(t, err)
	got, err := s.Load(context.Background())
	require.Nil(t, err)
	assert.Empty(t, got.Devices)
	assert.Empty(t, got.Loans)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locker.json")
	require.Nil(t, os.WriteFile(path, []byte("{not json"), 0o644))
	s, err := NewStore(path)
	require.Nil(t, err)
	_, err = s.Load(context.Background())
	assert.NotNil(t, err)
}

func TestNewStore_UnsupportedExtension(t *testing.T) {
	_, err := NewStore("data/locker.yaml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestStore_Lock_ExcludesSecondWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locker.json")
	a, err := NewStore(path)
	require.NoError(t, err)
	b, err := NewStore(path)
	require.NoError(t, err)

	unlock, err := a.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = b.Lock(ctx)
	require.ErrorIs(t, err, service.ErrStoreLocked)

	require.NoError(t, unlock())
	unlock, err = b.Lock(context.Background())
	require.NoError(t, err)
	require.NoError(t, unlock())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "locking must not create the snapshot itself")
}
