// pkg/config/config.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package config loads the manual control configuration from a JSON or
// YAML file and publishes the vehicle settings it holds.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmp/manualcontrol/pkg/log"
	"github.com/mmp/manualcontrol/pkg/receiver"
	"github.com/mmp/manualcontrol/pkg/uavobj"
	"github.com/mmp/manualcontrol/pkg/util"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownConfigFormat = errors.New("Unknown configuration file format")
	ErrInvalidConfig       = errors.New("Invalid configuration")
)

// Duration is a time.Duration that is written as a string such as "20ms"
// in configuration files.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("config.Duration: %w", err)
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

type FlightLogConfig struct {
	// File, if set, receives a compressed stream of flight status
	// transitions.
	File string `json:"file" yaml:"file"`
	// Database, if set, is a SQLite database that transitions are
	// recorded to.
	Database string `json:"database" yaml:"database"`
}

type MAVLinkConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Address is the UDP address to listen on for the ground station.
	Address         string   `json:"address" yaml:"address"`
	SystemID        uint8    `json:"system_id" yaml:"system_id"`
	HeartbeatPeriod Duration `json:"heartbeat_period" yaml:"heartbeat_period"`
}

type Config struct {
	LogLevel    string   `json:"log_level" yaml:"log_level"`
	LogDir      string   `json:"log_dir" yaml:"log_dir"`
	CyclePeriod Duration `json:"cycle_period" yaml:"cycle_period"`

	FlightLog FlightLogConfig   `json:"flight_log" yaml:"flight_log"`
	MAVLink   MAVLinkConfig     `json:"mavlink" yaml:"mavlink"`
	Receiver  receiver.Settings `json:"receiver" yaml:"receiver"`

	FlightModeSettings       uavobj.FlightModeSettings       `json:"flight_mode_settings" yaml:"flight_mode_settings"`
	StabilizationSettings    uavobj.StabilizationSettings    `json:"stabilization_settings" yaml:"stabilization_settings"`
	VtolPathFollowerSettings uavobj.VtolPathFollowerSettings `json:"vtol_path_follower_settings" yaml:"vtol_path_follower_settings"`
}

func Default() Config {
	return Config{
		LogLevel:    "info",
		CyclePeriod: Duration(20 * time.Millisecond),
		MAVLink: MAVLinkConfig{
			Address:         "0.0.0.0:14550",
			SystemID:        1,
			HeartbeatPeriod: Duration(time.Second),
		},
		Receiver:           receiver.DefaultSettings(),
		FlightModeSettings: uavobj.DefaultFlightModeSettings(),
		VtolPathFollowerSettings: uavobj.VtolPathFollowerSettings{
			ThrustControl: uavobj.ThrustControlManual,
		},
	}
}

// Load reads the configuration at path, starting from the defaults. The
// format is chosen by the file's extension.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	c, err := Parse(contents, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse parses the configuration in contents; ext is a file extension
// (".json", ".yaml" or ".yml") giving its format.
func Parse(contents []byte, ext string) (Config, error) {
	c := Default()

	switch strings.ToLower(ext) {
	case ".json":
		var e util.ErrorLogger
		util.CheckJSON[Config](contents, &e)
		if e.HaveErrors() {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, e.Err())
		}
		if err := util.UnmarshalJSON(contents, &c); err != nil {
			return Config{}, err
		}

	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(contents))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}

	default:
		return Config{}, fmt.Errorf("%q: %w", ext, ErrUnknownConfigFormat)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the entire configuration, reporting all of the problems
// found.
func (c *Config) Validate() error {
	var e util.ErrorLogger

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		e.Push("log_level")
		e.Error(err)
		e.Pop()
	}

	if c.CyclePeriod <= 0 {
		e.ErrorString("cycle_period %s must be positive", c.CyclePeriod)
	}

	if c.MAVLink.Enabled {
		e.Push("mavlink")
		if c.MAVLink.Address == "" {
			e.ErrorString("address must be given")
		}
		if c.MAVLink.SystemID == 0 {
			e.ErrorString("system_id must be non-zero")
		}
		if c.MAVLink.HeartbeatPeriod <= 0 {
			e.ErrorString("heartbeat_period %s must be positive", c.MAVLink.HeartbeatPeriod)
		}
		e.Pop()
	}

	e.Push("receiver")
	c.Receiver.Validate(&e)
	e.Pop()

	e.Push("flight_mode_settings")
	for i, m := range c.FlightModeSettings.FlightModePosition {
		if !m.Valid() {
			e.ErrorString("position %d: invalid flight mode %s", i, m)
		}
	}
	e.Pop()

	if c.VtolPathFollowerSettings.ThrustControl >= uavobj.NumThrustControls {
		e.ErrorString("vtol_path_follower_settings: invalid thrust_control %s",
			c.VtolPathFollowerSettings.ThrustControl)
	}

	if e.HaveErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, e.Err())
	}
	return nil
}

// Apply publishes the vehicle settings to the shared objects. Objects
// whose value is unchanged are left alone so that subscribers aren't
// notified needlessly.
func (c *Config) Apply(objects *uavobj.Objects, lg *log.Logger) {
	if applySetting(objects.FlightModeSettings, c.FlightModeSettings) {
		lg.Info("applied flight mode settings", slog.Any("settings", c.FlightModeSettings.FlightModePosition))
	}
	if applySetting(objects.StabilizationSettings, c.StabilizationSettings) {
		lg.Info("applied stabilization settings",
			slog.Any("gps_assist", c.StabilizationSettings.FlightModeGPSAssistMap))
	}
	if applySetting(objects.VtolPathFollowerSettings, c.VtolPathFollowerSettings) {
		lg.Info("applied path follower settings",
			slog.String("thrust_control", c.VtolPathFollowerSettings.ThrustControl.String()))
	}
}

func applySetting[T comparable](obj *uavobj.Object[T], v T) bool {
	return obj.Update(func(cur *T) bool {
		if *cur == v {
			return false
		}
		*cur = v
		return true
	})
}
