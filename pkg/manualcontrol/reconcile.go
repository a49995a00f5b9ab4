// pkg/manualcontrol/reconcile.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package manualcontrol

import (
	"github.com/mmp/manualcontrol/pkg/uavobj"
)

// Reconciler commits new flight status to the FlightStatus object. Only
// changes are committed, so that FlightStatus readers aren't woken every
// cycle; the first commit after startup always happens so that the
// control chain is valid from the start.
type Reconciler struct {
	status   *uavobj.Object[uavobj.FlightStatus]
	firstRun bool
}

func NewReconciler(status *uavobj.Object[uavobj.FlightStatus]) *Reconciler {
	return &Reconciler{status: status, firstRun: true}
}

// Changed reports whether next differs from prev in a way that requires a
// commit: the flight mode or the roam state. Other fields, the control
// chain and GPS assist flag included, are only written along with one of
// those.
func Changed(prev, next uavobj.FlightStatus) bool {
	return prev.FlightMode != next.FlightMode ||
		prev.PositionRoamState != next.PositionRoamState
}

// Commit writes the decision's status if it differs from prev (which must
// be the currently stored status) or if this is the first commit, and then
// runs the decision's law, if any. It returns whether a transition was
// committed.
func (r *Reconciler) Commit(prev uavobj.FlightStatus, d Decision) bool {
	justTransitioned := r.firstRun || Changed(prev, d.Status)
	if justTransitioned {
		r.firstRun = false
		r.status.Set(d.Status)
		if ModeLogEnabled(ModeLogCommit) {
			ModeLog(ModeLogCommit, "%s roam %s thrust %s gps %v chain %+v", d.Status.FlightMode,
				d.Status.PositionRoamState, d.Status.PositionRoamThrustMode, d.Status.FlightModeGPSAssist,
				d.Status.ControlChain)
		}
	}

	if d.Handler.Law != nil {
		ModeLog(ModeLogLaw, "%s law, init %v", d.Category, justTransitioned)
		d.Handler.Law(justTransitioned)
	}

	return justTransitioned
}
