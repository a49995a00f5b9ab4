// pkg/uavobj/alarms.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package uavobj

import (
	"log/slog"
)

type Alarm int

const (
	AlarmManualControl Alarm = iota
	AlarmSystemConfiguration
	AlarmReceiver
	NumAlarms
)

func (a Alarm) String() string {
	return []string{"ManualControl", "SystemConfiguration", "Receiver"}[a]
}

type AlarmSeverity uint8

const (
	AlarmUninitialised AlarmSeverity = iota
	AlarmOK
	AlarmWarning
	AlarmError
	AlarmCritical
)

func (s AlarmSeverity) String() string {
	return []string{"Uninitialised", "OK", "Warning", "Error", "Critical"}[s]
}

type SystemAlarms struct {
	Alarm [NumAlarms]AlarmSeverity `json:"alarm"`
}

func (s SystemAlarms) LogValue() slog.Value {
	var attrs []slog.Attr
	for a, sev := range s.Alarm {
		attrs = append(attrs, slog.String(Alarm(a).String(), sev.String()))
	}
	return slog.GroupValue(attrs...)
}

// AlarmsSet sets the severity of the given alarm. The object is only
// updated if the severity changes.
func AlarmsSet(alarms *Object[SystemAlarms], a Alarm, sev AlarmSeverity) {
	alarms.Update(func(s *SystemAlarms) bool {
		if s.Alarm[a] == sev {
			return false
		}
		s.Alarm[a] = sev
		return true
	})
}

// AlarmsClear returns the given alarm to OK.
func AlarmsClear(alarms *Object[SystemAlarms], a Alarm) {
	AlarmsSet(alarms, a, AlarmOK)
}

// AlarmsGet returns the current severity of the alarm.
func AlarmsGet(alarms *Object[SystemAlarms], a Alarm) AlarmSeverity {
	return alarms.Get().Alarm[a]
}
