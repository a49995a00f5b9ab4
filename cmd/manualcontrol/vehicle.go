// cmd/manualcontrol/vehicle.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmp/manualcontrol/pkg/log"
	"github.com/mmp/manualcontrol/pkg/manualcontrol"
	"github.com/mmp/manualcontrol/pkg/rand"
	"github.com/mmp/manualcontrol/pkg/uavobj"
)

// The control laws themselves run elsewhere on a real vehicle; here they
// just report when they are (re)initialized.
func makeLaws(lg *log.Logger) manualcontrol.Laws {
	law := func(name string) manualcontrol.Law {
		return func(justTransitioned bool) {
			if justTransitioned {
				lg.Info("control law engaged", slog.String("law", name))
			}
		}
	}
	return manualcontrol.Laws{
		Manual:       law("manual"),
		Stabilized:   law("stabilized"),
		PathFollower: law("path follower"),
		PathPlanner:  law("path planner"),
	}
}

type armingHandler struct {
	lg *log.Logger
}

func (a *armingHandler) ArmHandler(firstRun bool) {
	if firstRun {
		a.lg.Info("arming handler initialized; vehicle disarmed")
	}
}

// takeoffLocation notes the time at which thrust is first applied.
type takeoffLocation struct {
	objects *uavobj.Objects
	takeoff time.Time
	lg      *log.Logger
}

func (t *takeoffLocation) Init() {
	t.takeoff = time.Time{}
}

func (t *takeoffLocation) Update() {
	if !t.takeoff.IsZero() {
		return
	}
	if cmd := t.objects.ManualControlCommand.Get(); cmd.Connected && cmd.Thrust > 0.1 {
		t.takeoff = time.Now()
		t.lg.Info("takeoff location set", slog.Any("flight_status", t.objects.FlightStatus.Get()))
	}
}

// stickSimulator generates pilot input: the flight mode switch moves
// occasionally and the roll and pitch sticks are often centered so that
// GPS-assisted modes exercise braking.
type stickSimulator struct {
	objects   *uavobj.Objects
	positions uint8
	r         rand.Rand
	lg        *log.Logger
}

// newStickSimulator returns a simulator whose inputs are determined by
// seed; a zero seed is replaced with one taken from the clock.
func newStickSimulator(objects *uavobj.Objects, positions uint8, seed int64, lg *log.Logger) *stickSimulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	lg.Info("stick simulator", slog.Int64("seed", seed))

	return &stickSimulator{
		objects:   objects,
		positions: max(positions, 1),
		r:         rand.Make(seed),
		lg:        lg,
	}
}

func (s *stickSimulator) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	cmd := uavobj.ManualControlCommand{Connected: true, Thrust: 0.5}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.step(&cmd)
			s.objects.ManualControlCommand.Set(cmd)
		}
	}
}

func (s *stickSimulator) step(cmd *uavobj.ManualControlCommand) {
	if s.r.Bool(0.01) {
		cmd.FlightModeSwitchPosition = uint8(s.r.Intn(int(s.positions)))
		s.lg.Debug("simulated switch change", slog.Int("position", int(cmd.FlightModeSwitchPosition)))
	}
	// Sticks hold for a while before moving.
	if s.r.Bool(0.05) {
		cmd.Roll = s.r.Axis(0.6)
		cmd.Pitch = s.r.Axis(0.6)
		cmd.Yaw = s.r.Axis(0.8)
	}
}
