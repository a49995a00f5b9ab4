// pkg/flightlog/flightlog_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmp/manualcontrol/pkg/uavobj"
)

var testStatuses = []uavobj.FlightStatus{
	{FlightMode: uavobj.FlightModeManual},
	{FlightMode: uavobj.FlightModeStabilized1, FlightModeGPSAssist: true, PositionRoamState: uavobj.RoamStateStabilized,
		PositionRoamThrustMode: uavobj.RoamThrustMixed, ControlChain: uavobj.ControlChain{Stabilization: true}},
	{FlightMode: uavobj.FlightModeStabilized1, FlightModeGPSAssist: true, PositionRoamState: uavobj.RoamStateBraking,
		ControlChain: uavobj.ControlChain{Stabilization: true, PathFollower: true}},
	{FlightMode: uavobj.FlightModePathPlanner,
		ControlChain: uavobj.ControlChain{Stabilization: true, PathFollower: true, PathPlanner: true}},
}

func testRecords() []Record {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var recs []Record
	for i, st := range testStatuses {
		recs = append(recs, Record{Seq: uint64(i + 1), Time: start.Add(time.Duration(i) * 20 * time.Millisecond), Status: st})
	}
	return recs
}

func checkRecords(t *testing.T, expected, got []Record) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("expected %d records, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i].Seq != expected[i].Seq || !got[i].Time.Equal(expected[i].Time) || got[i].Status != expected[i].Status {
			t.Errorf("record %d: expected %+v, got %+v", i, expected[i], got[i])
		}
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "flight.zst")
	s, err := NewFileSink(path)
	if err != nil {
		t.Fatal(err)
	}

	recs := testRecords()
	for _, r := range recs {
		if err := s.Write(context.Background(), r); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Write(context.Background(), recs[0]); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	checkRecords(t, recs, got)
}

func TestSqliteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flight.db")

	s := NewSqliteStore(path)
	recs := testRecords()
	for _, r := range recs {
		if err := s.Write(ctx, r); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	got, err := s.Transitions(ctx)
	if err != nil {
		t.Fatalf("transitions: %v", err)
	}
	checkRecords(t, recs, got)

	if err := s.Close(); err != nil {
		t.Errorf("close: %v", err)
	}

	// A second session appends to the same table.
	s = NewSqliteStore(path)
	defer s.Close()
	if err := s.Write(ctx, recs[0]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got, err = s.Transitions(ctx); err != nil {
		t.Fatalf("transitions: %v", err)
	} else if len(got) != len(recs)+1 {
		t.Errorf("expected %d records, got %d", len(recs)+1, len(got))
	}
}

type memorySink struct {
	records []Record
	closed  bool
}

func (m *memorySink) Write(ctx context.Context, r Record) error {
	m.records = append(m.records, r)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func TestRecorder(t *testing.T) {
	objects := uavobj.NewObjects(nil)
	defer objects.Destroy()

	sink := &memorySink{}
	rec := NewRecorder(objects, nil, sink)

	// Updates posted before Run starts are recorded too.
	objects.FlightStatus.Set(testStatuses[0])

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Run(ctx)
		close(done)
	}()

	for _, st := range testStatuses[1:] {
		objects.FlightStatus.Set(st)
	}
	// Other objects aren't recorded.
	objects.ManualControlCommand.Set(uavobj.ManualControlCommand{Roll: 1})

	deadline := time.Now().Add(5 * time.Second)
	for rec.Count() < len(testStatuses) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if err := rec.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if !sink.closed {
		t.Errorf("expected sink to be closed")
	}

	if len(sink.records) != len(testStatuses) {
		t.Fatalf("expected %d records, got %d", len(testStatuses), len(sink.records))
	}
	for i, r := range sink.records {
		if r.Seq != uint64(i+1) || r.Status != testStatuses[i] {
			t.Errorf("record %d: expected seq %d status %+v, got %+v", i, i+1, testStatuses[i], r)
		}
	}
}
