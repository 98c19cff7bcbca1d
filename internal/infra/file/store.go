/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/kentakayama/device-locker/internal/domain/model"
	"github.com/kentakayama/device-locker/internal/infra/filelock"
)

var ErrUnsupportedFormat = errors.New("unsupported snapshot file format")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type codec interface {
	marshal(s *model.Snapshot) ([]byte, error)
	unmarshal(data []byte, s *model.Snapshot) error
}

type jsonCodec struct{}

func (jsonCodec) marshal(s *model.Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func (jsonCodec) unmarshal(data []byte, s *model.Snapshot) error {
	return json.Unmarshal(data, s)
}

type cborCodec struct {
	enc cbor.EncMode
}

func newCBORCodec() (cborCodec, error) {
	// RFC3339Nano keeps the sub-second part of BorrowedAt, which is part of a loan's identity.
	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		return cborCodec{}, err
	}
	return cborCodec{enc: enc}, nil
}

func (c cborCodec) marshal(s *model.Snapshot) ([]byte, error) {
	return c.enc.Marshal(s)
}

func (cborCodec) unmarshal(data []byte, s *model.Snapshot) error {
	return cbor.Unmarshal(data, s)
}

// Store keeps the whole snapshot in one file. The extension selects the
// encoding: .json or .cbor.
type Store struct {
	path  string
	codec codec
	mu    sync.Mutex
}

func NewStore(path string) (*Store, error) {
	var c codec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		c = jsonCodec{}
	case ".cbor":
		cc, err := newCBORCodec()
		if err != nil {
			return nil, fmt.Errorf("failed to create cbor encoder: %w", err)
		}
		c = cc
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
	return &Store{path: path, codec: c}, nil
}

// Load reads the snapshot file. A missing file yields an empty snapshot.
func (s *Store) Load(_ context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &model.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return &model.Snapshot{}, nil
	}

	var snap model.Snapshot
	if err := s.codec.unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return &snap, nil
}

// Save replaces the snapshot file atomically via a temp file and rename.
func (s *Store) Save(ctx context.Context, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.codec.marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Lock takes the lock file next to the snapshot.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	return filelock.Acquire(ctx, s.path)
}

func (s *Store) Close() error {
	return nil
}
