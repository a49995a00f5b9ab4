// pkg/manualcontrol/handlers.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package manualcontrol

import (
	"log/slog"

	"github.com/mmp/manualcontrol/pkg/uavobj"
)

// Category groups flight modes that share a control chain and control
// law.
type Category int

const (
	CategoryManual Category = iota
	CategoryStabilized
	CategoryAutotune
	CategoryPathFollower
	CategoryPathPlanner
	NumCategories
)

func (c Category) String() string {
	if c < 0 || c >= NumCategories {
		return "Unknown"
	}
	return []string{"Manual", "Stabilized", "Autotune", "PathFollower", "PathPlanner"}[c]
}

// CategoryOf returns the category of the given flight mode. The switch
// lists every flight mode explicitly; a value outside the enumeration
// returns CategoryManual and false so that the caller fails closed to
// the manual chain and can report it.
func CategoryOf(m uavobj.FlightMode) (Category, bool) {
	switch m {
	case uavobj.FlightModeManual:
		return CategoryManual, true

	case uavobj.FlightModeStabilized1, uavobj.FlightModeStabilized2, uavobj.FlightModeStabilized3,
		uavobj.FlightModeStabilized4, uavobj.FlightModeStabilized5, uavobj.FlightModeStabilized6:
		return CategoryStabilized, true

	case uavobj.FlightModeAutotune:
		return CategoryAutotune, true

	case uavobj.FlightModePositionHold, uavobj.FlightModePositionVarioFPV,
		uavobj.FlightModePositionVarioLOS, uavobj.FlightModePositionVarioNSEW,
		uavobj.FlightModeReturnToBase, uavobj.FlightModeLand, uavobj.FlightModePOI,
		uavobj.FlightModeAutoCruise:
		return CategoryPathFollower, true

	case uavobj.FlightModePathPlanner:
		return CategoryPathPlanner, true

	default:
		return CategoryManual, false
	}
}

// Law is a control law entry point. It is called once per cycle with
// justTransitioned set when the flight status was committed in that
// cycle; it reads whatever else it needs from the shared objects.
type Law func(justTransitioned bool)

// Laws holds the control law for each category that has one; autotune
// runs on its own and has no law here.
type Laws struct {
	Manual       Law
	Stabilized   Law
	PathFollower Law
	PathPlanner  Law
}

// Handler pairs the control chain that a category activates with the law
// that is run for it.
type Handler struct {
	ControlChain uavobj.ControlChain
	Law          Law
}

func (h Handler) LogValue() slog.Value {
	return slog.GroupValue(slog.Any("control_chain", h.ControlChain),
		slog.Bool("has_law", h.Law != nil))
}

// HandlerTable is indexed by Category. It is built once and not modified
// afterward.
type HandlerTable [NumCategories]Handler

func NewHandlerTable(laws Laws) HandlerTable {
	return HandlerTable{
		CategoryManual: {
			ControlChain: uavobj.ControlChain{},
			Law:          laws.Manual,
		},
		CategoryStabilized: {
			ControlChain: uavobj.ControlChain{Stabilization: true},
			Law:          laws.Stabilized,
		},
		CategoryAutotune: {
			ControlChain: uavobj.ControlChain{},
		},
		CategoryPathFollower: {
			ControlChain: uavobj.ControlChain{Stabilization: true, PathFollower: true},
			Law:          laws.PathFollower,
		},
		CategoryPathPlanner: {
			ControlChain: uavobj.ControlChain{Stabilization: true, PathFollower: true, PathPlanner: true},
			Law:          laws.PathPlanner,
		},
	}
}

// Lookup returns the handler for the category, or the manual handler if
// c is out of range.
func (t *HandlerTable) Lookup(c Category) Handler {
	if c < 0 || c >= NumCategories {
		return t[CategoryManual]
	}
	return t[c]
}
