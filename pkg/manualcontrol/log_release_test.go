//go:build !modelog

// pkg/manualcontrol/log_release_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package manualcontrol

import "testing"

func TestModeLogDisabledInRelease(t *testing.T) {
	InitModeLog(true, "all")
	for _, cat := range ModeLogCategories {
		if ModeLogEnabled(cat) {
			t.Errorf("%s: expected mode logging to be compiled out", cat)
		}
	}
}
