// pkg/manualcontrol/decide.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package manualcontrol

import (
	"log/slog"
	gomath "math"

	"github.com/mmp/manualcontrol/pkg/uavobj"
)

// Settings is the configuration snapshot for a single cycle. It is read
// fresh from the shared objects every cycle.
type Settings struct {
	FlightMode       uavobj.FlightModeSettings
	Stabilization    uavobj.StabilizationSettings
	VtolPathFollower uavobj.VtolPathFollowerSettings
}

// ResolveMode returns the flight mode selected by the switch position. A
// position beyond the configured ones leaves the previous mode in place.
func ResolveMode(position uint8, settings uavobj.FlightModeSettings, previous uavobj.FlightMode) uavobj.FlightMode {
	if int(position) < len(settings.FlightModePosition) {
		return settings.FlightModePosition[position]
	}
	return previous
}

// GPSAssisted reports whether the switch position requests GPS assistance;
// positions beyond the map are not assisted.
func GPSAssisted(position uint8, settings uavobj.StabilizationSettings) bool {
	if int(position) < len(settings.FlightModeGPSAssistMap) {
		return settings.FlightModeGPSAssistMap[position]
	}
	return false
}

// Roam is the outcome of one step of the position roam state machine.
type Roam struct {
	State      uavobj.RoamState
	ThrustMode uavobj.RoamThrustMode
	// Braking is set when the path follower takes authority to bring
	// the vehicle to a hold.
	Braking bool
}

// UpdateRoam advances the position roam state for GPS-assisted stabilized
// flight. With the sticks deflected the pilot has authority and the
// thrust mode follows the path follower's thrust policy. With the sticks
// centered the path follower brakes to a hold. Leaving Braking is up to
// the path follower; nothing here does it.
func UpdateRoam(state uavobj.RoamState, thrustMode uavobj.RoamThrustMode, roll, pitch float32,
	thrust uavobj.ThrustControl) Roam {
	// The receiver applies the deadband, so centered sticks are exactly
	// zero. NaN compares false and is treated as centered.
	if gomath.Abs(float64(roll)) > 0 || gomath.Abs(float64(pitch)) > 0 {
		r := Roam{State: uavobj.RoamStateStabilized, ThrustMode: uavobj.RoamThrustMixed}
		if thrust == uavobj.ThrustControlManual {
			r.ThrustMode = uavobj.RoamThrustManual
		}
		return r
	}

	r := Roam{State: state, ThrustMode: thrustMode, Braking: true}
	if state == uavobj.RoamStateNone || state == uavobj.RoamStateStabilized {
		r.State = uavobj.RoamStateBraking
	}
	return r
}

// Decision is the result of flight mode resolution for one cycle: the
// status to commit and the handler whose law runs.
type Decision struct {
	Status   uavobj.FlightStatus
	Handler  Handler
	Category Category
	// Unmapped is set if the resolved flight mode isn't one that the
	// dispatch knows about; the manual handler is used in that case.
	Unmapped bool
}

func (d Decision) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("status", d.Status),
		slog.String("category", d.Category.String()),
		slog.Any("handler", d.Handler),
		slog.Bool("unmapped", d.Unmapped))
}

// Decide computes the new flight status from the previous one, the
// current command, and the configuration. Fields that the new mode
// doesn't determine carry over from prev; in particular the roam state
// is left alone outside GPS-assisted stabilized flight.
func Decide(prev uavobj.FlightStatus, cmd uavobj.ManualControlCommand, settings Settings,
	handlers *HandlerTable) Decision {
	position := cmd.FlightModeSwitchPosition

	st := prev
	st.FlightMode = ResolveMode(position, settings.FlightMode, prev.FlightMode)
	if ModeLogEnabled(ModeLogMode) {
		ModeLog(ModeLogMode, "position %d -> %s", position, st.FlightMode)
	}

	cat, ok := CategoryOf(st.FlightMode)
	h := handlers.Lookup(cat)

	if cat == CategoryStabilized {
		st.FlightModeGPSAssist = GPSAssisted(position, settings.Stabilization)
		if st.FlightModeGPSAssist {
			roam := UpdateRoam(prev.PositionRoamState, prev.PositionRoamThrustMode, cmd.Roll, cmd.Pitch,
				settings.VtolPathFollower.ThrustControl)
			st.PositionRoamState = roam.State
			st.PositionRoamThrustMode = roam.ThrustMode
			if roam.Braking {
				h = handlers.Lookup(CategoryPathFollower)
			}
			if ModeLogEnabled(ModeLogRoam) {
				ModeLog(ModeLogRoam, "roll %.3f pitch %.3f: %s -> %s thrust %s braking %v", cmd.Roll, cmd.Pitch,
					prev.PositionRoamState, roam.State, roam.ThrustMode, roam.Braking)
			}
		}
	}

	st.ControlChain = h.ControlChain

	return Decision{
		Status:   st,
		Handler:  h,
		Category: cat,
		Unmapped: !ok,
	}
}
