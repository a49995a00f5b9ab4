// pkg/manualcontrol/log.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package manualcontrol

// Available mode logging categories; mode logging is only compiled in
// with the modelog build tag.
const (
	ModeLogMode   = "mode"
	ModeLogRoam   = "roam"
	ModeLogCommit = "commit"
	ModeLogLaw    = "law"
)

var ModeLogCategories = []string{ModeLogMode, ModeLogRoam, ModeLogCommit, ModeLogLaw}
