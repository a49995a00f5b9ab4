// pkg/flightlog/flightlog.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package flightlog records each committed flight status to one or more
// sinks: a compressed log file and a SQLite database.
package flightlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmp/manualcontrol/pkg/log"
	"github.com/mmp/manualcontrol/pkg/uavobj"
)

var (
	ErrClosed = errors.New("Flight log is closed")
)

// Record is a single committed flight status.
type Record struct {
	// Seq is the FlightStatus object's sequence number for the commit.
	Seq    uint64              `msgpack:"seq"`
	Time   time.Time           `msgpack:"time"`
	Status uavobj.FlightStatus `msgpack:"status"`
}

func (r Record) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("seq", r.Seq),
		slog.Time("time", r.Time),
		slog.Any("status", r.Status))
}

type Sink interface {
	Write(ctx context.Context, r Record) error
	Close() error
}

// Recorder writes a Record to its sinks for every FlightStatus update.
type Recorder struct {
	sub   *uavobj.EventsSubscription
	sinks []Sink
	lg    *log.Logger

	mu    sync.Mutex
	count int
}

// NewRecorder subscribes to FlightStatus updates immediately, so that
// commits made before Run starts are still recorded.
func NewRecorder(objects *uavobj.Objects, lg *log.Logger, sinks ...Sink) *Recorder {
	return &Recorder{
		sub:   objects.Stream.Subscribe(uavobj.FlightStatusName),
		sinks: sinks,
		lg:    lg,
	}
}

// Run records updates until ctx is canceled. Updates already posted when
// ctx is canceled are recorded before it returns. Errors from the sinks
// are logged and don't stop recording.
func (r *Recorder) Run(ctx context.Context) error {
	defer r.sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			r.record(context.Background())
			return nil
		case <-r.sub.Ready():
			r.record(ctx)
		}
	}
}

func (r *Recorder) record(ctx context.Context) {
	for _, ev := range r.sub.Get() {
		status, ok := ev.Value.(uavobj.FlightStatus)
		if !ok {
			r.lg.Errorf("%T: unexpected FlightStatus event value", ev.Value)
			continue
		}

		rec := Record{Seq: ev.Seq, Time: time.Now(), Status: status}
		for _, s := range r.sinks {
			if err := s.Write(ctx, rec); err != nil {
				r.lg.Error("flight log write", slog.Any("record", rec), slog.Any("error", err))
			}
		}

		r.mu.Lock()
		r.count++
		r.mu.Unlock()
	}
}

// Count returns the number of records written so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Close closes all of the sinks.
func (r *Recorder) Close() error {
	var errs []error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %T: %w", s, err))
		}
	}
	return errors.Join(errs...)
}
