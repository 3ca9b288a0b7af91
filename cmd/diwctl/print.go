// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Mita3055/diwctl/pkg/camera"
	"github.com/Mita3055/diwctl/pkg/engine"
	"github.com/Mita3055/diwctl/pkg/errors"
	"github.com/Mita3055/diwctl/pkg/klipper"
	"github.com/Mita3055/diwctl/pkg/log"
	"github.com/Mita3055/diwctl/pkg/metrics"
	"github.com/Mita3055/diwctl/pkg/pressure"
	"github.com/Mita3055/diwctl/pkg/toolpath"
)

var printCmd = &cobra.Command{
	Use:   "print <toolpath-file>",
	Short: "Execute a toolpath against the motion controller",
	Long: `Print replays a toolpath file instruction by instruction. WAIT barriers
are released by pressing Enter; typing "abort" (or Ctrl-C) aborts the run
with an emergency stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrint,
}

var printFlags struct {
	moonraker       string
	noWebsocket     bool
	strict          bool
	retries         int
	sendDelay       time.Duration
	idleTimeout     time.Duration
	captureCmd      string
	loadCellPath    string
	targetPressure  float64
	minExtrusion    float64
	maxExtrusion    float64
	metricsAddr     string
	shutdownHeaters bool
}

func init() {
	f := printCmd.Flags()
	f.StringVar(&printFlags.moonraker, "moonraker", "http://localhost:7125",
		"Moonraker base URL")
	f.BoolVar(&printFlags.noWebsocket, "no-ws", false,
		"disable the websocket status cache, poll over HTTP only")
	f.BoolVar(&printFlags.strict, "strict", false,
		"abort the run on the first failed G-code send")
	f.IntVar(&printFlags.retries, "retries", 0,
		"re-attempts per failed G-code send")
	f.DurationVar(&printFlags.sendDelay, "send-delay", 0,
		"fixed delay after each send")
	f.DurationVar(&printFlags.idleTimeout, "idle-timeout", 60*time.Second,
		"upper bound for wait-for-idle")
	f.StringVar(&printFlags.captureCmd, "capture-cmd", "",
		"external capture command, invoked as <cmd> <camera> <filename>")
	f.StringVar(&printFlags.loadCellPath, "load-cell", "",
		"file to read the latest load-cell value from")
	f.Float64Var(&printFlags.targetPressure, "target-pressure", 0,
		"enable the pressure loop with this target (overrides the profile)")
	f.Float64Var(&printFlags.minExtrusion, "min-extrusion", 0.01,
		"pressure loop extrusion floor")
	f.Float64Var(&printFlags.maxExtrusion, "max-extrusion", 0.2,
		"pressure loop extrusion ceiling")
	f.StringVar(&printFlags.metricsAddr, "metrics", "",
		"serve Prometheus metrics on this address (e.g. :9105)")
	f.BoolVar(&printFlags.shutdownHeaters, "shutdown-heaters", false,
		"turn heaters off and release steppers when the run ends")
	rootCmd.AddCommand(printCmd)
}

func runPrint(cmd *cobra.Command, args []string) error {
	logger := log.GetLogger()
	_, prn, err := loadProfiles()
	if err != nil {
		return err
	}
	tp, err := toolpath.LoadFile(args[0])
	if err != nil {
		return err
	}
	if err := toolpath.Validate(tp); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client := klipper.NewClient(klipper.Config{BaseURL: printFlags.moonraker})
	cs, err := client.Connect(ctx)
	if err != nil {
		return err
	}
	if !cs.Usable() {
		return errors.Newf(errors.ErrConnection,
			"controller at %s is not usable (state %s)", printFlags.moonraker, cs.State)
	}
	logger.WithFields(log.Fields{
		"state":          string(cs.State),
		"info_available": cs.InfoAvailable,
	}).Info("controller connected")

	if axes, err := client.HomedAxes(ctx); err == nil && axes != "XYZ" {
		logger.WithField("homed", axes).Info("homing before run")
		if err := client.HomeAxes(ctx, ""); err != nil {
			return err
		}
	}

	if !printFlags.noWebsocket {
		if listener, err := klipper.NewStatusListener(printFlags.moonraker); err != nil {
			logger.WithError(err).Warn("websocket unavailable, falling back to HTTP polling")
		} else {
			defer listener.Close()
			client.AttachStatusListener(listener)
		}
	}

	opts := []engine.Option{}
	if printFlags.captureCmd != "" {
		opts = append(opts, engine.WithCapturer(execCapturer(printFlags.captureCmd)))
	}
	var met *metrics.Metrics
	if printFlags.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		met = metrics.New(reg)
		srv := metrics.NewServer(printFlags.metricsAddr, reg)
		srv.Start()
		defer srv.Stop(context.Background())
		opts = append(opts, engine.WithMetrics(met))
	}

	target := printFlags.targetPressure
	if target == 0 && prn.Pressure.Enabled {
		target = prn.Pressure.TargetPressure
	}
	if target != 0 {
		if printFlags.loadCellPath == "" {
			logger.Warn("pressure loop requested but no --load-cell source, disabled")
		} else {
			pc := pressure.New(pressure.Config{
				TargetPressure: target,
				MinExtrusion:   printFlags.minExtrusion,
				MaxExtrusion:   printFlags.maxExtrusion,
			})
			cell := fileLoadCell{path: printFlags.loadCellPath}
			opts = append(opts, engine.WithPressureLoop(cell, pc))
		}
	}

	policy := engine.ContinueOnSendError
	if printFlags.strict {
		policy = engine.AbortOnSendError
	}
	eng := engine.New(engine.Config{
		Profile:     prn,
		SendPolicy:  policy,
		SendRetries: printFlags.retries,
		SendDelay:   printFlags.sendDelay,
		IdleTimeout: printFlags.idleTimeout,
	}, client, opts...)

	// Operator input: Enter acknowledges a WAIT barrier, "abort" or
	// SIGINT aborts the run.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if strings.EqualFold(strings.TrimSpace(scanner.Text()), "abort") {
				eng.Abort()
				return
			}
			eng.Acknowledge()
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		eng.Abort()
	}()

	runErr := eng.Run(ctx, tp)

	if printFlags.shutdownHeaters {
		if err := client.ShutdownHeaters(context.Background()); err != nil {
			logger.WithError(err).Warn("heater shutdown failed")
		}
		if err := client.SendGCode(context.Background(), "M84"); err != nil {
			logger.WithError(err).Warn("stepper release failed")
		}
	}
	return runErr
}

// execCapturer bridges the external camera program: it is invoked once
// per frame with the camera number and target filename.
func execCapturer(command string) camera.Capturer {
	return camera.CapturerFunc(func(req camera.Request) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		c := exec.CommandContext(ctx, command, strconv.Itoa(req.Camera), req.Filename)
		c.Stdout = os.Stderr
		c.Stderr = os.Stderr
		return c.Run()
	})
}

// fileLoadCell reads the newest load-cell value from a file the serial
// driver keeps updated. Any read or parse failure counts as "no reading"
// so the pressure loop degrades instead of acting on garbage.
type fileLoadCell struct {
	path string
}

func (f fileLoadCell) Load() (float64, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
