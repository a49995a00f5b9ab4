// pkg/mavlink/mavlink_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package mavlink

import (
	"testing"
	"time"

	"github.com/mmp/manualcontrol/pkg/receiver"
	"github.com/mmp/manualcontrol/pkg/uavobj"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

func TestCustomModeRoundTrip(t *testing.T) {
	for _, m := range uavobj.AllFlightModes() {
		for _, r := range []uavobj.RoamState{uavobj.RoamStateNone, uavobj.RoamStateStabilized, uavobj.RoamStateBraking} {
			cm := CustomMode(uavobj.FlightStatus{FlightMode: m, PositionRoamState: r})
			if pm, pr := ParseCustomMode(cm); pm != m || pr != r {
				t.Errorf("%s/%s: custom mode %#x parsed as %s/%s", m, r, cm, pm, pr)
			}
		}
	}
}

func TestHeartbeat(t *testing.T) {
	st := uavobj.FlightStatus{
		FlightMode:        uavobj.FlightModeStabilized2,
		PositionRoamState: uavobj.RoamStateBraking,
		ControlChain:      uavobj.ControlChain{Stabilization: true, PathFollower: true},
	}
	var alarms uavobj.SystemAlarms
	hb := Heartbeat(st, alarms)

	if hb.CustomMode != CustomMode(st) {
		t.Errorf("expected custom mode %#x, got %#x", CustomMode(st), hb.CustomMode)
	}
	if hb.BaseMode&common.MAV_MODE_FLAG_CUSTOM_MODE_ENABLED == 0 {
		t.Errorf("expected custom mode flag")
	}
	if hb.BaseMode&common.MAV_MODE_FLAG_GUIDED_ENABLED == 0 || hb.BaseMode&common.MAV_MODE_FLAG_STABILIZE_ENABLED == 0 {
		t.Errorf("expected guided and stabilize flags, got %v", hb.BaseMode)
	}
	if hb.BaseMode&(common.MAV_MODE_FLAG_AUTO_ENABLED|common.MAV_MODE_FLAG_MANUAL_INPUT_ENABLED) != 0 {
		t.Errorf("unexpected auto or manual flags, got %v", hb.BaseMode)
	}
	if hb.SystemStatus != common.MAV_STATE_ACTIVE {
		t.Errorf("expected active state, got %v", hb.SystemStatus)
	}

	hb = Heartbeat(uavobj.FlightStatus{}, alarms)
	if hb.BaseMode&common.MAV_MODE_FLAG_MANUAL_INPUT_ENABLED == 0 {
		t.Errorf("expected manual input flag for the manual chain")
	}

	alarms.Alarm[uavobj.AlarmManualControl] = uavobj.AlarmCritical
	if hb = Heartbeat(st, alarms); hb.SystemStatus != common.MAV_STATE_CRITICAL {
		t.Errorf("expected critical state, got %v", hb.SystemStatus)
	}
}

func TestChannels(t *testing.T) {
	rc := &common.MessageRcChannels{Chancount: 3, Chan1Raw: 1100, Chan2Raw: 1200, Chan3Raw: 1300, Chan4Raw: 1400}
	ch := Channels(rc)
	if len(ch) != 3 || ch[0] != 1100 || ch[2] != 1300 {
		t.Errorf("unexpected channels %v", ch)
	}

	rc.Chancount = 40
	if ch := Channels(rc); len(ch) != 18 {
		t.Errorf("expected 18 channels, got %d", len(ch))
	}
}

func TestHandleRCChannels(t *testing.T) {
	objects := uavobj.NewObjects(nil)
	defer objects.Destroy()

	var sent []message.Message
	b := newBridge(Config{HeartbeatPeriod: time.Second, Receiver: receiver.DefaultSettings()}, objects, nil)
	defer b.statusSub.Unsubscribe()
	b.writeMessage = func(m message.Message) error {
		sent = append(sent, m)
		return nil
	}

	b.handleMessage(&common.MessageRcChannels{
		Chancount: 8,
		Chan1Raw:  2000, Chan2Raw: 1500, Chan3Raw: 1000, Chan4Raw: 1500, Chan5Raw: 1500,
		Chan6Raw: 1500, Chan7Raw: 1500, Chan8Raw: 1500,
	})
	cmd := objects.ManualControlCommand.Get()
	if !cmd.Connected || cmd.Roll != 1 || cmd.Pitch != 0 || cmd.FlightModeSwitchPosition != 1 {
		t.Errorf("unexpected command %+v", cmd)
	}
	if sev := uavobj.AlarmsGet(objects.SystemAlarms, uavobj.AlarmReceiver); sev != uavobj.AlarmOK {
		t.Errorf("expected receiver alarm OK, got %s", sev)
	}

	// A lost channel keeps the previous command.
	seq := objects.ManualControlCommand.Seq()
	b.handleMessage(&common.MessageRcChannels{
		Chancount: 5,
		Chan1Raw:  0xffff, Chan2Raw: 1500, Chan3Raw: 1000, Chan4Raw: 1500, Chan5Raw: 1000,
	})
	if objects.ManualControlCommand.Seq() != seq {
		t.Errorf("expected disconnected command not to be published")
	}
	if sev := uavobj.AlarmsGet(objects.SystemAlarms, uavobj.AlarmReceiver); sev != uavobj.AlarmWarning {
		t.Errorf("expected receiver warning, got %s", sev)
	}

	// Too few channels.
	b.handleMessage(&common.MessageRcChannels{Chancount: 2, Chan1Raw: 1500, Chan2Raw: 1500})
	if sev := uavobj.AlarmsGet(objects.SystemAlarms, uavobj.AlarmReceiver); sev != uavobj.AlarmError {
		t.Errorf("expected receiver error, got %s", sev)
	}

	// Other messages are ignored.
	b.handleMessage(&common.MessageAttitude{Roll: 1})
	if objects.ManualControlCommand.Seq() != seq {
		t.Errorf("unexpected command update")
	}

	objects.FlightStatus.Set(uavobj.FlightStatus{FlightMode: uavobj.FlightModeLand})
	b.sendHeartbeat()
	if len(sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sent))
	}
	if hb, ok := sent[0].(*common.MessageHeartbeat); !ok {
		t.Errorf("expected heartbeat, got %T", sent[0])
	} else if m, _ := ParseCustomMode(hb.CustomMode); m != uavobj.FlightModeLand {
		t.Errorf("expected Land in heartbeat, got %s", m)
	}
}
