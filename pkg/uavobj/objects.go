// pkg/uavobj/objects.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package uavobj

import (
	"errors"
	"log/slog"

	"github.com/mmp/manualcontrol/pkg/log"
)

var (
	ErrUnknownEnumValue = errors.New("Unknown enumerant")
)

const (
	// FlightModeSettings.FlightModePosition entries
	NumFlightModePositions = 6
	// StabilizationSettings.FlightModeGPSAssistMap entries
	NumGPSAssistPositions = 6
)

// Object names, as used in events and logs.
const (
	ManualControlCommandName     = "ManualControlCommand"
	FlightModeSettingsName       = "FlightModeSettings"
	StabilizationSettingsName    = "StabilizationSettings"
	VtolPathFollowerSettingsName = "VtolPathFollowerSettings"
	FlightStatusName             = "FlightStatus"
	SystemAlarmsName             = "SystemAlarms"
)

// ManualControlCommand is the receiver's per-cycle output. Sticks are in
// [-1,1] and have already had the deadband applied, so a centered stick
// reads exactly zero.
type ManualControlCommand struct {
	Connected                bool    `json:"connected" msgpack:"connected"`
	FlightModeSwitchPosition uint8   `json:"flight_mode_switch_position" msgpack:"pos"`
	Roll                     float32 `json:"roll" msgpack:"roll"`
	Pitch                    float32 `json:"pitch" msgpack:"pitch"`
	Yaw                      float32 `json:"yaw" msgpack:"yaw"`
	Thrust                   float32 `json:"thrust" msgpack:"thrust"`
}

// FlightModeSettings maps flight mode switch positions to flight modes.
type FlightModeSettings struct {
	FlightModePosition [NumFlightModePositions]FlightMode `json:"flight_mode_position" yaml:"flight_mode_position"`
}

func DefaultFlightModeSettings() FlightModeSettings {
	return FlightModeSettings{
		FlightModePosition: [NumFlightModePositions]FlightMode{
			FlightModeStabilized1, FlightModeStabilized2, FlightModeStabilized3,
			FlightModePositionHold, FlightModeReturnToBase, FlightModeManual,
		},
	}
}

// StabilizationSettings holds the part of the stabilization settings that
// the flight mode logic consults: which switch positions request GPS
// assistance when they select a stabilized mode.
type StabilizationSettings struct {
	FlightModeGPSAssistMap [NumGPSAssistPositions]bool `json:"flight_mode_gps_assist_map" yaml:"flight_mode_gps_assist_map"`
}

type VtolPathFollowerSettings struct {
	ThrustControl ThrustControl `json:"thrust_control" yaml:"thrust_control"`
}

// ControlChain records which control layers are active.
type ControlChain struct {
	Stabilization bool `json:"stabilization" msgpack:"stab"`
	PathFollower  bool `json:"path_follower" msgpack:"pf"`
	PathPlanner   bool `json:"path_planner" msgpack:"pp"`
}

func (c ControlChain) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("stabilization", c.Stabilization),
		slog.Bool("path_follower", c.PathFollower),
		slog.Bool("path_planner", c.PathPlanner))
}

// FlightStatus is the committed result of flight mode resolution. It has
// a single writer, the manual control module; everything else reads it.
type FlightStatus struct {
	FlightMode             FlightMode     `json:"flight_mode" msgpack:"mode"`
	FlightModeGPSAssist    bool           `json:"flight_mode_gps_assist" msgpack:"gps"`
	PositionRoamState      RoamState      `json:"position_roam_state" msgpack:"roam"`
	PositionRoamThrustMode RoamThrustMode `json:"position_roam_thrust_mode" msgpack:"thrust"`
	ControlChain           ControlChain   `json:"control_chain" msgpack:"chain"`
}

func (s FlightStatus) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("flight_mode", s.FlightMode.String()),
		slog.Bool("gps_assist", s.FlightModeGPSAssist),
		slog.String("roam_state", s.PositionRoamState.String()),
		slog.String("roam_thrust_mode", s.PositionRoamThrustMode.String()),
		slog.Any("control_chain", s.ControlChain))
}

///////////////////////////////////////////////////////////////////////////
// Objects

// Objects bundles all of the shared objects that the manual control
// module reads or writes, along with the EventStream their updates are
// posted to.
type Objects struct {
	Stream *EventStream

	ManualControlCommand     *Object[ManualControlCommand]
	FlightModeSettings       *Object[FlightModeSettings]
	StabilizationSettings    *Object[StabilizationSettings]
	VtolPathFollowerSettings *Object[VtolPathFollowerSettings]
	FlightStatus             *Object[FlightStatus]
	SystemAlarms             *Object[SystemAlarms]
}

func NewObjects(lg *log.Logger) *Objects {
	es := NewEventStream(lg)
	return &Objects{
		Stream:                   es,
		ManualControlCommand:     NewObject(ManualControlCommandName, ManualControlCommand{}, es),
		FlightModeSettings:       NewObject(FlightModeSettingsName, DefaultFlightModeSettings(), es),
		StabilizationSettings:    NewObject(StabilizationSettingsName, StabilizationSettings{}, es),
		VtolPathFollowerSettings: NewObject(VtolPathFollowerSettingsName, VtolPathFollowerSettings{}, es),
		FlightStatus:             NewObject(FlightStatusName, FlightStatus{}, es),
		SystemAlarms:             NewObject(SystemAlarmsName, SystemAlarms{}, es),
	}
}

// Destroy shuts down the EventStream.
func (o *Objects) Destroy() {
	o.Stream.Destroy()
}
