// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package camera defines the capture collaborator boundary. The real
// implementation (subprocess or OpenCV bindings) lives outside this
// module; the engine only needs the Capturer contract and the timelapse
// worker that drives it periodically.
package camera

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Mita3055/diwctl/pkg/log"
)

// Request identifies one exposure.
type Request struct {
	Camera   int
	Filename string
}

// Capturer takes a single photo. Calls are synchronous: the engine holds
// the nozzle still until Capture returns.
type Capturer interface {
	Capture(req Request) error
}

// CapturerFunc adapts a function to the Capturer interface.
type CapturerFunc func(req Request) error

// Capture implements Capturer.
func (f CapturerFunc) Capture(req Request) error { return f(req) }

// Timelapse shoots frames at a fixed interval for a bounded duration on
// a background goroutine. It stops on its own when the duration elapses
// or cooperatively when Stop is called; Stop waits for the worker with a
// bounded join so an exposure in flight is never interrupted mid-frame.
type Timelapse struct {
	cam      Capturer
	req      Request
	interval time.Duration
	duration time.Duration
	logger   *log.Logger

	stop atomic.Bool
	done chan struct{}
}

// joinTimeout bounds how long Stop waits for the worker to notice the
// flag and finish its current frame.
const joinTimeout = 5 * time.Second

// minInterval floors the frame cadence: a parsed directive may carry a
// zero interval, which must not turn the worker into a hot loop.
const minInterval = 50 * time.Millisecond

// NewTimelapse prepares a timelapse worker; Start launches it.
func NewTimelapse(cam Capturer, req Request, interval, duration time.Duration) *Timelapse {
	if interval < minInterval {
		interval = minInterval
	}
	return &Timelapse{
		cam:      cam,
		req:      req,
		interval: interval,
		duration: duration,
		logger:   log.GetLogger().WithPrefix("timelapse"),
		done:     make(chan struct{}),
	}
}

// Start launches the capture loop.
func (t *Timelapse) Start() {
	go t.run()
}

func (t *Timelapse) run() {
	defer close(t.done)
	deadline := time.Now().Add(t.duration)
	frame := 0
	for !t.stop.Load() && time.Now().Before(deadline) {
		req := t.req
		req.Filename = frameName(t.req.Filename, frame)
		if err := t.cam.Capture(req); err != nil {
			t.logger.WithError(err).
				WithField("frame", frame).
				Warn("timelapse frame failed")
		}
		frame++

		// Sleep in short slices so a stop request is noticed promptly.
		slice := minInterval
		wake := time.Now().Add(t.interval)
		for !t.stop.Load() && time.Now().Before(wake) && time.Now().Before(deadline) {
			time.Sleep(slice)
		}
	}
	t.logger.WithField("frames", frame).Info("timelapse finished")
}

// Stop requests the worker to finish and waits up to joinTimeout for it.
// It returns an error only when the join times out, which leaves the
// worker running detached; callers log and continue.
func (t *Timelapse) Stop() error {
	t.stop.Store(true)
	select {
	case <-t.done:
		return nil
	case <-time.After(joinTimeout):
		return fmt.Errorf("timelapse worker did not stop within %s", joinTimeout)
	}
}

// Done reports completion without blocking; the engine polls it at run
// end before releasing the controller.
func (t *Timelapse) Done() <-chan struct{} { return t.done }

func frameName(base string, frame int) string {
	return fmt.Sprintf("%s_%04d", base, frame)
}
