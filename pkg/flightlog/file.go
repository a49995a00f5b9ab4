// pkg/flightlog/file.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// FileSink writes records to a file as a zstd-compressed stream of
// msgpack values.
type FileSink struct {
	mu  sync.Mutex
	f   *os.File
	zw  *zstd.Encoder
	enc *msgpack.Encoder
}

func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &FileSink{f: f, zw: zw, enc: msgpack.NewEncoder(zw)}, nil
}

func (s *FileSink) Write(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return ErrClosed
	}
	if err := s.enc.Encode(r); err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	// Flush each record so that the file is readable up to the last
	// transition if we don't exit cleanly.
	return s.zw.Flush()
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	err := errors.Join(s.zw.Close(), s.f.Close())
	s.f = nil
	return err
}

// ReadFile returns all of the records in a file written by a FileSink.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var records []Record
	dec := msgpack.NewDecoder(zr)
	for {
		var r Record
		if err := dec.Decode(&r); errors.Is(err, io.EOF) {
			return records, nil
		} else if err != nil {
			return records, fmt.Errorf("%s: record %d: %w", path, len(records), err)
		}
		records = append(records, r)
	}
}
