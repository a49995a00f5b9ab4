// pkg/uavobj/enums.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package uavobj

import (
	"fmt"
	"slices"
	"strings"
)

///////////////////////////////////////////////////////////////////////////
// FlightMode

type FlightMode uint8

const (
	FlightModeManual FlightMode = iota
	FlightModeStabilized1
	FlightModeStabilized2
	FlightModeStabilized3
	FlightModeStabilized4
	FlightModeStabilized5
	FlightModeStabilized6
	FlightModeAutotune
	FlightModePositionHold
	FlightModePositionVarioFPV
	FlightModePositionVarioLOS
	FlightModePositionVarioNSEW
	FlightModeReturnToBase
	FlightModeLand
	FlightModePathPlanner
	FlightModePOI
	FlightModeAutoCruise
	NumFlightModes
)

var flightModeNames = []string{"Manual", "Stabilized1", "Stabilized2", "Stabilized3",
	"Stabilized4", "Stabilized5", "Stabilized6", "Autotune", "PositionHold",
	"PositionVarioFPV", "PositionVarioLOS", "PositionVarioNSEW", "ReturnToBase", "Land",
	"PathPlanner", "POI", "AutoCruise"}

// AllFlightModes returns every defined flight mode, in enumeration order.
func AllFlightModes() []FlightMode {
	m := make([]FlightMode, NumFlightModes)
	for i := range m {
		m[i] = FlightMode(i)
	}
	return m
}

// Valid reports whether m is one of the defined flight modes.
func (m FlightMode) Valid() bool { return m < NumFlightModes }

func (m FlightMode) String() string { return enumString(flightModeNames, m) }
func (m FlightMode) MarshalText() ([]byte, error) { return enumMarshal(flightModeNames, m) }
func (m *FlightMode) UnmarshalText(b []byte) error { return enumUnmarshal(flightModeNames, "flight mode", b, m) }

///////////////////////////////////////////////////////////////////////////
// Position roam

type RoamState uint8

const (
	RoamStateNone RoamState = iota
	RoamStateStabilized
	RoamStateBraking
	NumRoamStates
)

var roamStateNames = []string{"None", "Stabilized", "Braking"}

func (s RoamState) String() string { return enumString(roamStateNames, s) }
func (s RoamState) MarshalText() ([]byte, error) { return enumMarshal(roamStateNames, s) }
func (s *RoamState) UnmarshalText(b []byte) error { return enumUnmarshal(roamStateNames, "roam state", b, s) }

type RoamThrustMode uint8

const (
	RoamThrustManual RoamThrustMode = iota
	RoamThrustMixed
	NumRoamThrustModes
)

var roamThrustModeNames = []string{"Manual", "Mixed"}

func (t RoamThrustMode) String() string { return enumString(roamThrustModeNames, t) }
func (t RoamThrustMode) MarshalText() ([]byte, error) { return enumMarshal(roamThrustModeNames, t) }
func (t *RoamThrustMode) UnmarshalText(b []byte) error {
	return enumUnmarshal(roamThrustModeNames, "roam thrust mode", b, t)
}

// ThrustControl is the VTOL path follower's thrust policy: whether the
// pilot keeps throttle authority or altitude control drives it.
type ThrustControl uint8

const (
	ThrustControlManual ThrustControl = iota
	ThrustControlAuto
	NumThrustControls
)

var thrustControlNames = []string{"Manual", "Auto"}

func (t ThrustControl) String() string { return enumString(thrustControlNames, t) }
func (t ThrustControl) MarshalText() ([]byte, error) { return enumMarshal(thrustControlNames, t) }
func (t *ThrustControl) UnmarshalText(b []byte) error {
	return enumUnmarshal(thrustControlNames, "thrust control", b, t)
}

///////////////////////////////////////////////////////////////////////////

type enum interface {
	~uint8
}

func enumString[E enum](names []string, e E) string {
	if int(e) < len(names) {
		return names[e]
	}
	return fmt.Sprintf("Unknown(%d)", uint8(e))
}

func enumMarshal[E enum](names []string, e E) ([]byte, error) {
	if int(e) >= len(names) {
		return nil, fmt.Errorf("%d: %w", uint8(e), ErrUnknownEnumValue)
	}
	return []byte(names[e]), nil
}

func enumUnmarshal[E enum](names []string, what string, b []byte, e *E) error {
	s := strings.TrimSpace(string(b))
	if idx := slices.IndexFunc(names, func(n string) bool { return strings.EqualFold(n, s) }); idx != -1 {
		*e = E(idx)
		return nil
	}
	return fmt.Errorf("%q: unknown %s; expected one of %s: %w", s, what,
		strings.Join(names, ", "), ErrUnknownEnumValue)
}
