// pkg/mavlink/mavlink.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package mavlink connects the manual control module to a ground station
// or simulator over MAVLink: RC_CHANNELS messages are decoded into
// ManualControlCommand updates and the flight status is reported in
// HEARTBEAT messages.
package mavlink

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmp/manualcontrol/pkg/log"
	"github.com/mmp/manualcontrol/pkg/receiver"
	"github.com/mmp/manualcontrol/pkg/uavobj"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

type Config struct {
	// Address is the UDP address to listen on.
	Address         string
	SystemID        uint8
	HeartbeatPeriod time.Duration
	Receiver        receiver.Settings
}

// Bridge relays between a MAVLink node and the shared objects.
type Bridge struct {
	node            *gomavlib.Node
	writeMessage    func(message.Message) error
	objects         *uavobj.Objects
	rx              receiver.Settings
	heartbeatPeriod time.Duration
	statusSub       *uavobj.EventsSubscription
	lg              *log.Logger
}

func NewBridge(c Config, objects *uavobj.Objects, lg *log.Logger) (*Bridge, error) {
	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints: []gomavlib.EndpointConf{
			gomavlib.EndpointUDPServer{Address: c.Address},
		},
		Dialect:     common.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: c.SystemID,
		// Heartbeats are sent by the bridge so that they carry the
		// flight mode.
		HeartbeatDisable: true,
	})
	if err != nil {
		return nil, err
	}

	b := newBridge(c, objects, lg)
	b.node = node
	b.writeMessage = node.WriteMessageAll

	lg.Info("MAVLink bridge listening", slog.String("address", c.Address), slog.Int("system_id", int(c.SystemID)))

	return b, nil
}

func newBridge(c Config, objects *uavobj.Objects, lg *log.Logger) *Bridge {
	return &Bridge{
		objects:         objects,
		rx:              c.Receiver,
		heartbeatPeriod: c.HeartbeatPeriod,
		statusSub:       objects.Stream.Subscribe(uavobj.FlightStatusName),
		lg:              lg,
	}
}

// Run relays messages until ctx is canceled. A heartbeat is sent every
// heartbeat period and also as soon as the flight status changes.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.statusSub.Unsubscribe()

	ticker := time.NewTicker(b.heartbeatPeriod)
	defer ticker.Stop()

	b.sendHeartbeat()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			b.sendHeartbeat()

		case <-b.statusSub.Ready():
			b.statusSub.Get()
			b.sendHeartbeat()

		case evt := <-b.node.Events():
			switch e := evt.(type) {
			case *gomavlib.EventFrame:
				b.handleMessage(e.Frame.GetMessage())
			case *gomavlib.EventChannelOpen:
				b.lg.Info("MAVLink channel open", slog.Any("channel", e.Channel))
			case *gomavlib.EventChannelClose:
				b.lg.Info("MAVLink channel closed", slog.Any("channel", e.Channel))
			}
		}
	}
}

func (b *Bridge) Close() {
	if b.node != nil {
		b.node.Close()
	}
}

func (b *Bridge) handleMessage(msg message.Message) {
	rc, ok := msg.(*common.MessageRcChannels)
	if !ok {
		return
	}

	cmd, err := receiver.Decode(Channels(rc), b.rx)
	if err != nil {
		b.lg.Warn("RC_CHANNELS", slog.Int("channel_count", int(rc.Chancount)), slog.Any("error", err))
		uavobj.AlarmsSet(b.objects.SystemAlarms, uavobj.AlarmReceiver, uavobj.AlarmError)
		return
	}
	if !cmd.Connected {
		// Keep the last good command rather than publishing one with
		// centered sticks and the switch in its first position.
		uavobj.AlarmsSet(b.objects.SystemAlarms, uavobj.AlarmReceiver, uavobj.AlarmWarning)
		return
	}

	uavobj.AlarmsClear(b.objects.SystemAlarms, uavobj.AlarmReceiver)
	b.objects.ManualControlCommand.Set(cmd)
}

func (b *Bridge) sendHeartbeat() {
	hb := Heartbeat(b.objects.FlightStatus.Get(), b.objects.SystemAlarms.Get())
	if err := b.writeMessage(hb); err != nil {
		b.lg.Warn("HEARTBEAT", slog.Any("error", err))
	}
}

// Channels returns the raw channel values of an RC_CHANNELS message.
func Channels(rc *common.MessageRcChannels) []uint16 {
	all := []uint16{
		rc.Chan1Raw, rc.Chan2Raw, rc.Chan3Raw, rc.Chan4Raw, rc.Chan5Raw, rc.Chan6Raw,
		rc.Chan7Raw, rc.Chan8Raw, rc.Chan9Raw, rc.Chan10Raw, rc.Chan11Raw, rc.Chan12Raw,
		rc.Chan13Raw, rc.Chan14Raw, rc.Chan15Raw, rc.Chan16Raw, rc.Chan17Raw, rc.Chan18Raw,
	}
	return all[:min(int(rc.Chancount), len(all))]
}

// CustomMode packs the flight mode and roam state into a HEARTBEAT
// custom_mode value.
func CustomMode(st uavobj.FlightStatus) uint32 {
	return uint32(st.FlightMode) | uint32(st.PositionRoamState)<<8
}

func ParseCustomMode(m uint32) (uavobj.FlightMode, uavobj.RoamState) {
	return uavobj.FlightMode(m & 0xff), uavobj.RoamState((m >> 8) & 0xff)
}

// Heartbeat returns the HEARTBEAT message that reports the given status.
func Heartbeat(st uavobj.FlightStatus, alarms uavobj.SystemAlarms) *common.MessageHeartbeat {
	mode := common.MAV_MODE_FLAG_CUSTOM_MODE_ENABLED
	if st.ControlChain == (uavobj.ControlChain{}) {
		mode |= common.MAV_MODE_FLAG_MANUAL_INPUT_ENABLED
	}
	if st.ControlChain.Stabilization {
		mode |= common.MAV_MODE_FLAG_STABILIZE_ENABLED
	}
	if st.ControlChain.PathFollower {
		mode |= common.MAV_MODE_FLAG_GUIDED_ENABLED
	}
	if st.ControlChain.PathPlanner {
		mode |= common.MAV_MODE_FLAG_AUTO_ENABLED
	}

	state := common.MAV_STATE_ACTIVE
	for _, sev := range alarms.Alarm {
		if sev >= uavobj.AlarmError {
			state = common.MAV_STATE_CRITICAL
		}
	}

	return &common.MessageHeartbeat{
		Type:           common.MAV_TYPE_QUADROTOR,
		Autopilot:      common.MAV_AUTOPILOT_GENERIC,
		BaseMode:       mode,
		CustomMode:     CustomMode(st),
		SystemStatus:   state,
		MavlinkVersion: 3,
	}
}
