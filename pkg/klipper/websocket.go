// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package klipper

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Mita3055/diwctl/pkg/errors"
	"github.com/Mita3055/diwctl/pkg/log"
)

// StatusListener subscribes to Moonraker's websocket status stream and
// caches the fields the adapter polls hottest: live velocity and
// toolhead position. With a listener attached, WaitForIdle's 100 ms
// cadence rides on pushed updates instead of HTTP round-trips.
//
// Cached values expire after staleAfter; once stale, readers fall back
// to HTTP so a dead socket degrades silently instead of freezing idle
// detection at the last pushed value.
type StatusListener struct {
	conn   *websocket.Conn
	logger *log.Logger

	staleAfter time.Duration

	mu           sync.RWMutex
	velocity     float64
	haveVelocity bool
	position     [4]float64
	havePosition bool
	updatedAt    time.Time

	done chan struct{}
}

// subscribeRequest is the JSON-RPC frame requesting pushed updates for
// the objects we cache.
var subscribeRequest = map[string]interface{}{
	"jsonrpc": "2.0",
	"method":  "printer.objects.subscribe",
	"id":      1,
	"params": map[string]interface{}{
		"objects": map[string]interface{}{
			"motion_report": []string{"live_velocity"},
			"toolhead":      []string{"position"},
		},
	},
}

// NewStatusListener dials the websocket endpoint derived from the HTTP
// base URL ("http://host:7125" -> "ws://host:7125/websocket"), sends the
// subscription, and starts the read loop.
func NewStatusListener(baseURL string) (*StatusListener, error) {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/websocket"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, errors.ConnectionError(wsURL, err)
	}
	s := &StatusListener{
		conn:       conn,
		logger:     log.GetLogger().WithPrefix("klipper-ws"),
		staleAfter: time.Second,
		done:       make(chan struct{}),
	}
	if err := conn.WriteJSON(subscribeRequest); err != nil {
		conn.Close()
		return nil, errors.ConnectionError(wsURL, err)
	}
	go s.readLoop()
	return s, nil
}

// LiveVelocity returns the cached velocity if it is fresh.
func (s *StatusListener) LiveVelocity() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.haveVelocity || time.Since(s.updatedAt) > s.staleAfter {
		return 0, false
	}
	return s.velocity, true
}

// Position returns the cached toolhead position if it is fresh.
func (s *StatusListener) Position() ([4]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.havePosition || time.Since(s.updatedAt) > s.staleAfter {
		return [4]float64{}, false
	}
	return s.position, true
}

// Close tears down the socket. The read loop exits on the resulting
// read error; Done is closed when it has.
func (s *StatusListener) Close() error {
	return s.conn.Close()
}

// Done is closed once the read loop has exited.
func (s *StatusListener) Done() <-chan struct{} { return s.done }

func (s *StatusListener) readLoop() {
	defer close(s.done)
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.WithError(err).Debug("status stream closed")
			return
		}
		var frame struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(payload, &frame); err != nil {
			s.logger.WithError(err).Debug("undecodable status frame")
			continue
		}
		switch {
		case frame.Method == "notify_status_update":
			// Params is [status_object, eventtime].
			var params []json.RawMessage
			if err := json.Unmarshal(frame.Params, &params); err != nil || len(params) == 0 {
				continue
			}
			s.applyStatus(params[0])
		case len(frame.Result) > 0:
			// Subscription ack carries an initial status snapshot.
			var res struct {
				Status json.RawMessage `json:"status"`
			}
			if err := json.Unmarshal(frame.Result, &res); err == nil && len(res.Status) > 0 {
				s.applyStatus(res.Status)
			}
		}
	}
}

func (s *StatusListener) applyStatus(raw json.RawMessage) {
	var status struct {
		MotionReport *struct {
			LiveVelocity *float64 `json:"live_velocity"`
		} `json:"motion_report"`
		Toolhead *struct {
			Position []float64 `json:"position"`
		} `json:"toolhead"`
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if status.MotionReport != nil && status.MotionReport.LiveVelocity != nil {
		s.velocity = *status.MotionReport.LiveVelocity
		s.haveVelocity = true
	}
	if status.Toolhead != nil && len(status.Toolhead.Position) >= 4 {
		copy(s.position[:], status.Toolhead.Position[:4])
		s.havePosition = true
	}
	s.updatedAt = time.Now()
}
