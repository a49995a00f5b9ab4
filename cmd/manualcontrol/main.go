// cmd/manualcontrol/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// manualcontrol runs the flight mode resolution loop against the shared
// vehicle objects, taking pilot input either from a MAVLink link or from
// a built-in stick and switch simulator.

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmp/manualcontrol/pkg/config"
	"github.com/mmp/manualcontrol/pkg/flightlog"
	"github.com/mmp/manualcontrol/pkg/log"
	"github.com/mmp/manualcontrol/pkg/manualcontrol"
	"github.com/mmp/manualcontrol/pkg/mavlink"
	"github.com/mmp/manualcontrol/pkg/sanitycheck"
	"github.com/mmp/manualcontrol/pkg/uavobj"
	"github.com/mmp/manualcontrol/pkg/util"

	"github.com/dustin/go-humanize"
	"github.com/goforj/godump"
	"golang.org/x/sync/errgroup"
)

var (
	configFile        = flag.String("config", "", "JSON or YAML configuration file")
	logLevel          = flag.String("loglevel", "", "logging level: debug, info, warn, error (overrides the configuration file)")
	logDir            = flag.String("logdir", "", "log file directory (overrides the configuration file)")
	modeLog           = flag.Bool("modelog", false, "enable flight mode logging (requires the modelog build tag)")
	modeLogCategories = flag.String("modelog-categories", "all", "flight mode log categories (comma-separated: mode,roam,commit,law)")
	simulate          = flag.Bool("simulate", false, "drive the sticks and flight mode switch with random inputs")
	seed              = flag.Int64("seed", 0, "random seed for -simulate (0 = seed from the clock)")
	duration          = flag.Duration("duration", 0, "exit after running for this long (0 = until interrupted)")
	dump              = flag.Bool("dump", false, "dump the configuration at startup and the transition history at exit")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logDir != "" {
		cfg.LogDir = *logDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Initialize the logging system first and foremost.
	lg := log.New(cfg.LogLevel, cfg.LogDir)
	manualcontrol.InitModeLog(*modeLog, *modeLogCategories)

	if *dump {
		godump.Dump(cfg)
	}

	// Not fatal: Start raises the system configuration alarm as well.
	var e util.ErrorLogger
	sanitycheck.Check(cfg.FlightModeSettings, cfg.StabilizationSettings, &e)
	if e.HaveErrors() {
		fmt.Fprintln(os.Stderr, "flight mode configuration:")
		e.PrintErrors(os.Stderr, lg)
	}

	if err := run(cfg, lg); err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, lg *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	objects := uavobj.NewObjects(lg)
	defer objects.Destroy()

	cfg.Apply(objects, lg)

	recorder, err := makeRecorder(cfg.FlightLog, objects, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			lg.Errorf("%v", err)
		}
	}()

	mc := manualcontrol.New(objects, makeLaws(lg), manualcontrol.Collaborators{
		Arming:  &armingHandler{lg: lg},
		Takeoff: &takeoffLocation{objects: objects, lg: lg},
		Checker: sanitycheck.NewChecker(objects, lg),
	}, lg)
	mc.Start()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return mc.Run(ctx, time.Duration(cfg.CyclePeriod)) })
	eg.Go(func() error { return recorder.Run(ctx) })

	if cfg.MAVLink.Enabled {
		bridge, err := mavlink.NewBridge(mavlink.Config{
			Address:         cfg.MAVLink.Address,
			SystemID:        cfg.MAVLink.SystemID,
			HeartbeatPeriod: time.Duration(cfg.MAVLink.HeartbeatPeriod),
			Receiver:        cfg.Receiver,
		}, objects, lg)
		if err != nil {
			return fmt.Errorf("MAVLink: %w", err)
		}
		defer bridge.Close()

		eg.Go(func() error { return bridge.Run(ctx) })
	}

	if *simulate {
		sim := newStickSimulator(objects, cfg.Receiver.FlightModeNumber, *seed, lg)
		eg.Go(func() error { return sim.Run(ctx, time.Duration(cfg.CyclePeriod)) })
	}

	start := time.Now()
	err = eg.Wait()

	transitions := mc.Transitions()
	if *dump {
		godump.Dump(transitions)
	}
	report(cfg.FlightLog, recorder.Count(), time.Since(start), lg)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func makeRecorder(c config.FlightLogConfig, objects *uavobj.Objects, lg *log.Logger) (*flightlog.Recorder, error) {
	var sinks []flightlog.Sink
	if c.File != "" {
		fs, err := flightlog.NewFileSink(c.File)
		if err != nil {
			return nil, fmt.Errorf("flight log: %w", err)
		}
		sinks = append(sinks, fs)
	}
	if c.Database != "" {
		sinks = append(sinks, flightlog.NewSqliteStore(c.Database))
	}
	return flightlog.NewRecorder(objects, lg, sinks...), nil
}

func report(c config.FlightLogConfig, records int, elapsed time.Duration, lg *log.Logger) {
	msg := fmt.Sprintf("Ran for %s, %s flight status transitions recorded", elapsed.Round(time.Millisecond),
		humanize.Comma(int64(records)))
	for _, path := range []string{c.File, c.Database} {
		if path == "" {
			continue
		}
		if fi, err := os.Stat(path); err == nil {
			msg += fmt.Sprintf("; %s: %s", path, humanize.Bytes(uint64(fi.Size())))
		}
	}

	fmt.Println(msg)
	lg.Info("exiting", slog.Int("records", records), slog.Duration("elapsed", elapsed))
}
