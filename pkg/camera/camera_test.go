// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package camera

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCapturer struct {
	mu   sync.Mutex
	reqs []Request
}

func (r *recordingCapturer) Capture(req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	return nil
}

func (r *recordingCapturer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

func TestTimelapseStopsAtDuration(t *testing.T) {
	cam := &recordingCapturer{}
	tl := NewTimelapse(cam, Request{Camera: 1, Filename: "cure"},
		10*time.Millisecond, 80*time.Millisecond)
	tl.Start()

	select {
	case <-tl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timelapse did not finish on its own")
	}
	assert.GreaterOrEqual(t, cam.count(), 1)
}

func TestTimelapseCooperativeStop(t *testing.T) {
	cam := &recordingCapturer{}
	tl := NewTimelapse(cam, Request{Camera: 1, Filename: "cure"},
		10*time.Millisecond, time.Hour)
	tl.Start()

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, tl.Stop())

	n := cam.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, cam.count(), "no frames after stop")
}

func TestTimelapseFrameNames(t *testing.T) {
	cam := &recordingCapturer{}
	tl := NewTimelapse(cam, Request{Camera: 1, Filename: "cure"},
		5*time.Millisecond, 40*time.Millisecond)
	tl.Start()
	<-tl.Done()

	cam.mu.Lock()
	defer cam.mu.Unlock()
	require.NotEmpty(t, cam.reqs)
	assert.Equal(t, "cure_0000", cam.reqs[0].Filename)
	if len(cam.reqs) > 1 {
		assert.Equal(t, "cure_0001", cam.reqs[1].Filename)
	}
}

func TestTimelapseFloorsInterval(t *testing.T) {
	cam := &recordingCapturer{}
	tl := NewTimelapse(cam, Request{Camera: 1, Filename: "cure"}, 0, time.Hour)
	assert.Equal(t, minInterval, tl.interval,
		"a zero interval must not produce a hot capture loop")
}

func TestCapturerFunc(t *testing.T) {
	var got Request
	fn := CapturerFunc(func(req Request) error {
		got = req
		return nil
	})
	require.NoError(t, fn.Capture(Request{Camera: 2, Filename: "x.jpg"}))
	assert.Equal(t, 2, got.Camera)
}
