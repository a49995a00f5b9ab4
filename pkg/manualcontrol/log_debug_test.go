//go:build modelog

// pkg/manualcontrol/log_debug_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package manualcontrol

import "testing"

func TestModeLogCategories(t *testing.T) {
	defer InitModeLog(false, "")

	InitModeLog(true, "roam, law")
	for cat, expected := range map[string]bool{ModeLogMode: false, ModeLogRoam: true, ModeLogCommit: false, ModeLogLaw: true} {
		if ModeLogEnabled(cat) != expected {
			t.Errorf("%s: expected enabled %v", cat, expected)
		}
	}

	InitModeLog(false, "all")
	if ModeLogEnabled(ModeLogMode) {
		t.Errorf("expected mode logging off when disabled")
	}
}
