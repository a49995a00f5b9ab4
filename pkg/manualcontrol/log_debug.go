//go:build modelog

// pkg/manualcontrol/log_debug.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package manualcontrol

import (
	"fmt"
	"strings"
	"time"
)

// Mode logging configuration
var (
	modelogEnabled    bool
	modelogCategories map[string]bool
)

// InitModeLog initializes the mode logging system
func InitModeLog(enabled bool, categories string) {
	modelogEnabled = enabled
	modelogCategories = make(map[string]bool)

	if !enabled {
		return
	}

	if categories == "" || categories == "all" {
		for _, cat := range ModeLogCategories {
			modelogCategories[cat] = true
		}
	} else {
		for _, cat := range strings.Split(categories, ",") {
			modelogCategories[strings.TrimSpace(cat)] = true
		}
	}
}

// ModeLog logs a message with timestamp and category
func ModeLog(category string, format string, args ...any) {
	if !modelogEnabled || !modelogCategories[category] {
		return
	}

	// Format: [HH:MM:SS.mmm] [category] message
	timeStr := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] [%s] %s\n", timeStr, category, fmt.Sprintf(format, args...))
}

// ModeLogEnabled returns whether mode logging is enabled for a given category
func ModeLogEnabled(category string) bool {
	return modelogEnabled && modelogCategories[category]
}
