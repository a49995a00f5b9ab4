// pkg/uavobj/uavobj_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package uavobj

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mmp/manualcontrol/pkg/rand"
)

func TestEventStream(t *testing.T) {
	es := NewEventStream(nil)
	defer es.Destroy()

	es.Post(Event{})
	sub := es.Subscribe()
	if len(sub.Get()) != 0 {
		t.Errorf("Returned non-empty slice")
	}

	es.Post(Event{Seq: 1})
	es.Post(Event{Object: "x", Seq: 2})
	s := sub.Get()
	if len(s) != 2 {
		t.Fatalf("didn't return 2 item slice")
	}

	if s[0].Seq != 1 {
		t.Errorf("Expected seq 1, got %v", s[0])
	}
	if s[1].Object != "x" {
		t.Errorf("Expected object x, got %v", s[1])
	}

	if len(sub.Get()) != 0 {
		t.Errorf("Returned non-empty slice")
	}
}

func TestEventStreamFilterAndReady(t *testing.T) {
	es := NewEventStream(nil)
	defer es.Destroy()

	cmdSub := es.Subscribe(ManualControlCommandName)
	all := es.Subscribe()

	es.Post(Event{Object: FlightStatusName, Seq: 1})
	select {
	case <-cmdSub.Ready():
		t.Errorf("filtered subscription woken for a non-matching event")
	default:
	}

	es.Post(Event{Object: ManualControlCommandName, Seq: 1})
	es.Post(Event{Object: ManualControlCommandName, Seq: 2})

	// Two posts, one wakeup.
	select {
	case <-cmdSub.Ready():
	default:
		t.Fatalf("expected ready signal")
	}
	select {
	case <-cmdSub.Ready():
		t.Errorf("expected posts to coalesce into a single wakeup")
	default:
	}

	ev := cmdSub.Get()
	if len(ev) != 2 || ev[0].Seq != 1 || ev[1].Seq != 2 {
		t.Errorf("unexpected filtered events %+v", ev)
	}
	if n := len(all.Get()); n != 3 {
		t.Errorf("expected 3 events for unfiltered subscription, got %d", n)
	}
}

func TestEventStreamCompact(t *testing.T) {
	es := NewEventStream(nil)
	defer es.Destroy()

	r := rand.Make(1234)

	// multiple consumers, at different offsets
	subs := [4]*EventsSubscription{es.Subscribe(), es.Subscribe(), es.Subscribe(), es.Subscribe()}
	// consume probability
	p := [4]float32{1, 0.75, 0.05, 0.5}
	// next value we expect to get from the stream
	var idx [4]int

	i, iter := 0, 0
	for i < 65536 {
		// Add a bunch of consecutive numbers to the stream
		n := r.Intn(255)
		for j := 0; j < n; j++ {
			es.Post(Event{Seq: uint64(i + j)})
		}
		i += n

		if iter == 1 {
			subs[1].Unsubscribe()
		}

		for c, prob := range p {
			if r.Float32() > prob || (iter > 0 && c == 1) /* unsubscribed */ {
				continue
			}
			for _, sv := range subs[c].Get() {
				if uint64(idx[c]) != sv.Seq {
					t.Errorf("expected %d, got %d for consumer %d", idx[c], sv.Seq, c)
				}
				idx[c]++
			}
		}

		es.mu.Lock()
		es.compact()
		es.mu.Unlock()
		iter++
	}

	if cap(es.events) > i/2 {
		t.Errorf("is compaction not happening? len %d cap %d", len(es.events), cap(es.events))
	}
}

func TestEventStreamCompactFiltered(t *testing.T) {
	es := NewEventStream(nil)
	defer es.Destroy()

	// A subscriber that never sees a matching event must not pin the
	// stream's storage.
	quiet := es.Subscribe("NeverUpdated")
	busy := es.Subscribe()
	for i := range 4096 {
		es.Post(Event{Object: FlightStatusName, Seq: uint64(i)})
		if i%64 == 0 {
			busy.Get()
		}
	}
	busy.Get()

	es.mu.Lock()
	es.compact()
	qo, bo := quiet.next, busy.next
	es.mu.Unlock()

	if qo != bo {
		t.Errorf("filtered subscriber offset %d should have advanced to %d", qo, bo)
	}
	if len(quiet.Get()) != 0 {
		t.Errorf("filtered subscription returned unexpected events")
	}
}

func TestObjectSetGet(t *testing.T) {
	es := NewEventStream(nil)
	defer es.Destroy()
	sub := es.Subscribe(FlightStatusName)

	o := NewObject(FlightStatusName, FlightStatus{}, es)
	if o.Seq() != 0 {
		t.Errorf("expected seq 0, got %d", o.Seq())
	}

	st := FlightStatus{FlightMode: FlightModeStabilized2, PositionRoamState: RoamStateBraking}
	o.Set(st)

	// Modifying the value after Set must not affect the stored copy.
	st.FlightMode = FlightModeLand
	if got := o.Get(); got.FlightMode != FlightModeStabilized2 || got.PositionRoamState != RoamStateBraking {
		t.Errorf("unexpected stored value %+v", got)
	}
	if o.Seq() != 1 {
		t.Errorf("expected seq 1, got %d", o.Seq())
	}

	ev := sub.Get()
	if len(ev) != 1 {
		t.Fatalf("expected 1 event, got %d", len(ev))
	}
	if ev[0].Object != FlightStatusName || ev[0].Seq != 1 {
		t.Errorf("unexpected event %+v", ev[0])
	}
	if v, ok := ev[0].Value.(FlightStatus); !ok || v.FlightMode != FlightModeStabilized2 {
		t.Errorf("unexpected event value %+v", ev[0].Value)
	}
}

func TestObjectUpdate(t *testing.T) {
	o := NewObject("Counter", 1, nil)

	if o.Update(func(v *int) bool { *v = 99; return false }) {
		t.Errorf("Update reported a commit that was declined")
	}
	if o.Get() != 1 || o.Seq() != 0 {
		t.Errorf("declined update modified the object: %d seq %d", o.Get(), o.Seq())
	}

	if !o.Update(func(v *int) bool { *v += 1; return true }) {
		t.Errorf("Update didn't report commit")
	}
	if o.Get() != 2 || o.Seq() != 1 {
		t.Errorf("expected 2 / seq 1, got %d / seq %d", o.Get(), o.Seq())
	}
}

func TestAlarms(t *testing.T) {
	alarms := NewObject(SystemAlarmsName, SystemAlarms{}, nil)

	AlarmsSet(alarms, AlarmSystemConfiguration, AlarmError)
	AlarmsSet(alarms, AlarmSystemConfiguration, AlarmError)
	if alarms.Seq() != 1 {
		t.Errorf("setting an unchanged alarm should not update the object; seq %d", alarms.Seq())
	}
	if s := AlarmsGet(alarms, AlarmSystemConfiguration); s != AlarmError {
		t.Errorf("expected Error, got %s", s)
	}

	AlarmsClear(alarms, AlarmSystemConfiguration)
	if s := AlarmsGet(alarms, AlarmSystemConfiguration); s != AlarmOK {
		t.Errorf("expected OK, got %s", s)
	}
	if s := AlarmsGet(alarms, AlarmManualControl); s != AlarmUninitialised {
		t.Errorf("expected Uninitialised, got %s", s)
	}
}

func TestFlightModeText(t *testing.T) {
	for _, m := range AllFlightModes() {
		b, err := m.MarshalText()
		if err != nil {
			t.Errorf("%d: unexpected error %v", m, err)
			continue
		}
		var back FlightMode
		if err := back.UnmarshalText(b); err != nil || back != m {
			t.Errorf("%s: round trip gave %s, %v", m, back, err)
		}
	}

	var m FlightMode
	if err := m.UnmarshalText([]byte("positionhold")); err != nil || m != FlightModePositionHold {
		t.Errorf("expected case-insensitive match, got %s %v", m, err)
	}
	if err := m.UnmarshalText([]byte("Sport")); !errors.Is(err, ErrUnknownEnumValue) {
		t.Errorf("expected ErrUnknownEnumValue, got %v", err)
	}
	if _, err := FlightMode(200).MarshalText(); !errors.Is(err, ErrUnknownEnumValue) {
		t.Errorf("expected ErrUnknownEnumValue, got %v", err)
	}
	if s := FlightMode(200).String(); s != "Unknown(200)" {
		t.Errorf("expected Unknown(200), got %s", s)
	}
}

func TestSettingsJSON(t *testing.T) {
	var s FlightModeSettings
	err := json.Unmarshal([]byte(`{"flight_mode_position": ["Manual", "Stabilized1", "PathPlanner"]}`), &s)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	expected := [NumFlightModePositions]FlightMode{FlightModeManual, FlightModeStabilized1, FlightModePathPlanner}
	if s.FlightModePosition != expected {
		t.Errorf("expected %v, got %v", expected, s.FlightModePosition)
	}

	var v VtolPathFollowerSettings
	if err := json.Unmarshal([]byte(`{"thrust_control": "Auto"}`), &v); err != nil || v.ThrustControl != ThrustControlAuto {
		t.Errorf("expected Auto thrust control, got %v (%v)", v.ThrustControl, err)
	}
}
