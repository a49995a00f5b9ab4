// pkg/manualcontrol/manualcontrol.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package manualcontrol

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmp/manualcontrol/pkg/log"
	"github.com/mmp/manualcontrol/pkg/uavobj"
	"github.com/mmp/manualcontrol/pkg/util"
)

// ArmingHandler runs the arming state machine. It is called with firstRun
// set once at startup and then at the start of every cycle.
type ArmingHandler interface {
	ArmHandler(firstRun bool)
}

// TakeoffLocationHandler maintains the takeoff location used by return to
// base.
type TakeoffLocationHandler interface {
	Init()
	Update()
}

// ConfigurationChecker validates the vehicle configuration, raising or
// clearing the system configuration alarm as appropriate.
type ConfigurationChecker interface {
	CheckConfiguration()
}

// Collaborators are the modules that the manual control module drives but
// doesn't implement. Any of them may be nil.
type Collaborators struct {
	Arming  ArmingHandler
	Takeoff TakeoffLocationHandler
	Checker ConfigurationChecker
}

// Transition records a committed change of flight status.
type Transition struct {
	Time time.Time
	From uavobj.FlightStatus
	To   uavobj.FlightStatus
}

func (t Transition) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Time("time", t.Time),
		slog.Any("from", t.From),
		slog.Any("to", t.To))
}

const transitionHistoryLength = 64

// ManualControl turns the pilot's flight mode switch and sticks into the
// vehicle's flight status each cycle.
type ManualControl struct {
	mu sync.Mutex

	objects    *uavobj.Objects
	handlers   HandlerTable
	collab     Collaborators
	reconciler *Reconciler
	unmapped   bool
	history    *util.RingBuffer[Transition]

	lg *log.Logger
}

// New returns a ManualControl that reads from and writes to the given
// objects. The handler table is built from laws here and is not changed
// afterward.
func New(objects *uavobj.Objects, laws Laws, collab Collaborators, lg *log.Logger) *ManualControl {
	return &ManualControl{
		objects:    objects,
		handlers:   NewHandlerTable(laws),
		collab:     collab,
		reconciler: NewReconciler(objects.FlightStatus),
		history:    util.NewRingBuffer[Transition](transitionHistoryLength),
		lg:         lg,
	}
}

// Start performs the one-time initialization that precedes the first
// cycle.
func (mc *ManualControl) Start() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.checkConfiguration()
	uavobj.AlarmsClear(mc.objects.SystemAlarms, uavobj.AlarmManualControl)
	if mc.collab.Arming != nil {
		mc.collab.Arming.ArmHandler(true)
	}
	if mc.collab.Takeoff != nil {
		mc.collab.Takeoff.Init()
	}

	mc.lg.Info("manual control started", slog.Any("flight_status", mc.objects.FlightStatus.Get()))
}

func (mc *ManualControl) checkConfiguration() {
	if mc.collab.Checker != nil {
		mc.collab.Checker.CheckConfiguration()
	}
}

// Cycle runs a single manual control cycle. The arming and takeoff
// location handlers run first and so see the flight status committed by
// the previous cycle.
func (mc *ManualControl) Cycle() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.collab.Arming != nil {
		mc.collab.Arming.ArmHandler(false)
	}
	if mc.collab.Takeoff != nil {
		mc.collab.Takeoff.Update()
	}

	prev := mc.objects.FlightStatus.Get()
	cmd := mc.objects.ManualControlCommand.Get()
	settings := Settings{
		FlightMode:       mc.objects.FlightModeSettings.Get(),
		Stabilization:    mc.objects.StabilizationSettings.Get(),
		VtolPathFollower: mc.objects.VtolPathFollowerSettings.Get(),
	}

	d := Decide(prev, cmd, settings, &mc.handlers)

	if d.Unmapped != mc.unmapped {
		if d.Unmapped {
			mc.lg.Error("flight mode has no handler; using manual control chain",
				slog.Int("flight_mode", int(d.Status.FlightMode)),
				slog.Int("switch_position", int(cmd.FlightModeSwitchPosition)))
			uavobj.AlarmsSet(mc.objects.SystemAlarms, uavobj.AlarmManualControl, uavobj.AlarmCritical)
		} else {
			mc.lg.Info("flight mode handler restored", slog.Any("flight_status", d.Status))
			uavobj.AlarmsClear(mc.objects.SystemAlarms, uavobj.AlarmManualControl)
		}
		mc.unmapped = d.Unmapped
	}

	if mc.reconciler.Commit(prev, d) {
		t := Transition{Time: time.Now(), From: prev, To: d.Status}
		mc.history.Add(t)
		mc.lg.Debug("flight status committed", slog.Any("transition", t))
	}
}

// Transitions returns the most recent committed transitions, oldest
// first.
func (mc *ManualControl) Transitions() []Transition {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return mc.history.Slice()
}

// Run runs cycles until ctx is canceled: once every period and also
// whenever the ManualControlCommand is updated. Changes to the vehicle
// settings rerun the configuration check; the settings themselves are
// picked up by the next cycle. Start must be called before Run.
func (mc *ManualControl) Run(ctx context.Context, period time.Duration) error {
	cmdSub := mc.objects.Stream.Subscribe(uavobj.ManualControlCommandName)
	defer cmdSub.Unsubscribe()
	cfgSub := mc.objects.Stream.Subscribe(uavobj.FlightModeSettingsName, uavobj.StabilizationSettingsName,
		uavobj.VtolPathFollowerSettingsName)
	defer cfgSub.Unsubscribe()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	mc.Cycle()

	for {
		select {
		case <-ctx.Done():
			mc.lg.Info("manual control stopped")
			return nil

		case <-ticker.C:
			mc.Cycle()

		case <-cmdSub.Ready():
			cmdSub.Get()
			mc.Cycle()

		case <-cfgSub.Ready():
			for _, ev := range cfgSub.Get() {
				mc.lg.Info("settings updated", slog.String("object", ev.Object), slog.Uint64("seq", ev.Seq))
			}
			mc.mu.Lock()
			mc.checkConfiguration()
			mc.mu.Unlock()
		}
	}
}
