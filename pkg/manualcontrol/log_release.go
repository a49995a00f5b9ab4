//go:build !modelog

// pkg/manualcontrol/log_release.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package manualcontrol

// InitModeLog is a no-op in release builds
func InitModeLog(enabled bool, categories string) {}

// ModeLog is a no-op in release builds
func ModeLog(category string, format string, args ...any) {}

// ModeLogEnabled always returns false in release builds
func ModeLogEnabled(category string) bool { return false }
