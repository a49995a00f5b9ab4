// pkg/sanitycheck/sanitycheck.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package sanitycheck validates the flight mode configuration and reports
// problems through the system configuration alarm.
package sanitycheck

import (
	"fmt"
	"log/slog"

	"github.com/mmp/manualcontrol/pkg/log"
	"github.com/mmp/manualcontrol/pkg/uavobj"
	"github.com/mmp/manualcontrol/pkg/util"
)

// Check validates the flight mode settings against the stabilization
// settings and returns the alarm severity the configuration warrants. A
// switch position selecting an unknown flight mode is an error; a
// GPS-assisted position selecting a mode that isn't stabilized is a
// warning, since the assist map is ignored for it. Each problem found is
// reported to e.
func Check(fm uavobj.FlightModeSettings, stab uavobj.StabilizationSettings, e *util.ErrorLogger) uavobj.AlarmSeverity {
	sev := uavobj.AlarmOK
	raise := func(s uavobj.AlarmSeverity) {
		sev = max(sev, s)
	}

	for pos, mode := range fm.FlightModePosition {
		e.Push(fmt.Sprintf("Switch position %d", pos))

		if !mode.Valid() {
			e.ErrorString("flight mode %s is not a known flight mode", mode)
			raise(uavobj.AlarmError)
		} else if pos < len(stab.FlightModeGPSAssistMap) && stab.FlightModeGPSAssistMap[pos] && !stabilized(mode) {
			e.ErrorString("GPS assist is enabled but flight mode %s is not stabilized", mode)
			raise(uavobj.AlarmWarning)
		}

		e.Pop()
	}

	return sev
}

func stabilized(m uavobj.FlightMode) bool {
	return m >= uavobj.FlightModeStabilized1 && m <= uavobj.FlightModeStabilized6
}

// Checker runs Check against the current settings objects and sets the
// system configuration alarm accordingly.
type Checker struct {
	objects *uavobj.Objects
	lg      *log.Logger
}

func NewChecker(objects *uavobj.Objects, lg *log.Logger) *Checker {
	return &Checker{objects: objects, lg: lg}
}

func (c *Checker) CheckConfiguration() {
	var e util.ErrorLogger
	sev := Check(c.objects.FlightModeSettings.Get(), c.objects.StabilizationSettings.Get(), &e)

	if e.HaveErrors() {
		c.lg.Warn("flight mode configuration", slog.String("severity", sev.String()),
			slog.String("problems", e.String()))
	}

	if sev == uavobj.AlarmOK {
		uavobj.AlarmsClear(c.objects.SystemAlarms, uavobj.AlarmSystemConfiguration)
	} else {
		uavobj.AlarmsSet(c.objects.SystemAlarms, uavobj.AlarmSystemConfiguration, sev)
	}
}
