// pkg/receiver/receiver.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package receiver converts raw RC receiver channel values (pulse widths
// in microseconds) into a ManualControlCommand.
package receiver

import (
	"errors"
	"fmt"

	"github.com/mmp/manualcontrol/pkg/uavobj"
	"github.com/mmp/manualcontrol/pkg/util"
)

var (
	ErrMissingChannel = errors.New("Receiver channel not present")
)

const (
	// Pulse widths that receivers report for a channel with no signal.
	pulseTimeout = 0
	pulseInvalid = 0xffff
)

// ChannelCalibration gives the pulse widths at the ends and center of a
// channel's travel. Min may be greater than Max for a reversed channel.
type ChannelCalibration struct {
	Min     uint16 `json:"min" yaml:"min"`
	Neutral uint16 `json:"neutral" yaml:"neutral"`
	Max     uint16 `json:"max" yaml:"max"`
}

// Scale maps a pulse width to [-1,1], with Neutral mapping to zero.
func (c ChannelCalibration) Scale(pulse uint16) float32 {
	p, n := float32(pulse), float32(c.Neutral)
	var v float32
	if (p >= n) == (c.Max >= c.Neutral) {
		if c.Max != c.Neutral {
			v = (p - n) / (float32(c.Max) - n)
		}
	} else if c.Min != c.Neutral {
		v = -(p - n) / (float32(c.Min) - n)
	}
	return max(-1, min(1, v))
}

// Fraction maps a pulse width to [0,1] across the channel's full travel
// from Min to Max.
func (c ChannelCalibration) Fraction(pulse uint16) float32 {
	if c.Max == c.Min {
		return 0
	}
	v := (float32(pulse) - float32(c.Min)) / (float32(c.Max) - float32(c.Min))
	return max(0, min(1, v))
}

// Channel assigns a receiver channel (zero-based) and its calibration to
// an input.
type Channel struct {
	Number      int                `json:"number" yaml:"number"`
	Calibration ChannelCalibration `json:"calibration" yaml:"calibration"`
}

type Settings struct {
	Roll       Channel `json:"roll" yaml:"roll"`
	Pitch      Channel `json:"pitch" yaml:"pitch"`
	Yaw        Channel `json:"yaw" yaml:"yaw"`
	Thrust     Channel `json:"thrust" yaml:"thrust"`
	FlightMode Channel `json:"flight_mode" yaml:"flight_mode"`

	// Deadband is the fraction of stick travel around center that reads
	// as centered.
	Deadband float32 `json:"deadband" yaml:"deadband"`
	// FlightModeNumber is the number of positions the flight mode switch
	// has; its travel is divided evenly between them.
	FlightModeNumber uint8 `json:"flight_mode_number" yaml:"flight_mode_number"`
}

func DefaultSettings() Settings {
	stick := ChannelCalibration{Min: 1000, Neutral: 1500, Max: 2000}
	return Settings{
		Roll:             Channel{Number: 0, Calibration: stick},
		Pitch:            Channel{Number: 1, Calibration: stick},
		Thrust:           Channel{Number: 2, Calibration: ChannelCalibration{Min: 1000, Neutral: 1000, Max: 2000}},
		Yaw:              Channel{Number: 3, Calibration: stick},
		FlightMode:       Channel{Number: 4, Calibration: stick},
		Deadband:         0.02,
		FlightModeNumber: 3,
	}
}

func (s Settings) Validate(e *util.ErrorLogger) {
	for _, ch := range []struct {
		name string
		ch   Channel
	}{{"roll", s.Roll}, {"pitch", s.Pitch}, {"yaw", s.Yaw}, {"thrust", s.Thrust}, {"flight_mode", s.FlightMode}} {
		e.Push(ch.name)
		if ch.ch.Number < 0 {
			e.ErrorString("channel number %d must be non-negative", ch.ch.Number)
		}
		if c := ch.ch.Calibration; c.Min == c.Max {
			e.ErrorString("calibration min and max are both %d", c.Min)
		}
		e.Pop()
	}

	if s.Deadband < 0 || s.Deadband >= 1 {
		e.ErrorString("deadband %f must be in [0,1)", s.Deadband)
	}
	if s.FlightModeNumber < 1 || s.FlightModeNumber > uavobj.NumFlightModePositions {
		e.ErrorString("flight_mode_number %d must be between 1 and %d", s.FlightModeNumber,
			uavobj.NumFlightModePositions)
	}
}

// ApplyDeadband zeroes values within deadband of zero and rescales the
// rest so that the output still spans [-1,1] without a step at the edge
// of the deadband.
func ApplyDeadband(v, deadband float32) float32 {
	switch {
	case v > deadband:
		return (v - deadband) / (1 - deadband)
	case v < -deadband:
		return (v + deadband) / (1 - deadband)
	default:
		return 0
	}
}

// SwitchPosition returns the flight mode switch position for the pulse
// width, dividing the channel's travel evenly among n positions.
func SwitchPosition(pulse uint16, cal ChannelCalibration, n uint8) uint8 {
	if n == 0 {
		return 0
	}
	pos := uint8(cal.Fraction(pulse) * float32(n))
	return min(pos, n-1)
}

// Decode converts raw channel pulse widths into a command. The command is
// marked as disconnected if any of the channels it uses has no signal.
func Decode(channels []uint16, s Settings) (uavobj.ManualControlCommand, error) {
	var pulses [5]uint16
	for i, ch := range []Channel{s.Roll, s.Pitch, s.Yaw, s.Thrust, s.FlightMode} {
		if ch.Number < 0 || ch.Number >= len(channels) {
			return uavobj.ManualControlCommand{}, fmt.Errorf("channel %d: %w", ch.Number, ErrMissingChannel)
		}
		pulses[i] = channels[ch.Number]
	}

	cmd := uavobj.ManualControlCommand{Connected: true}
	for _, p := range pulses {
		if p == pulseTimeout || p == pulseInvalid {
			cmd.Connected = false
		}
	}
	if !cmd.Connected {
		return cmd, nil
	}

	cmd.Roll = ApplyDeadband(s.Roll.Calibration.Scale(pulses[0]), s.Deadband)
	cmd.Pitch = ApplyDeadband(s.Pitch.Calibration.Scale(pulses[1]), s.Deadband)
	cmd.Yaw = ApplyDeadband(s.Yaw.Calibration.Scale(pulses[2]), s.Deadband)
	cmd.Thrust = s.Thrust.Calibration.Scale(pulses[3])
	cmd.FlightModeSwitchPosition = SwitchPosition(pulses[4], s.FlightMode.Calibration, s.FlightModeNumber)

	return cmd, nil
}
