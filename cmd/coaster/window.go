// cmd/coaster/window.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"time"

	"github.com/coastersim/coaster/input"
	"github.com/coastersim/coaster/log"
	"github.com/coastersim/coaster/platform"
	"github.com/coastersim/coaster/sim"
	"github.com/coastersim/coaster/track"
)

// Upper bound on how far the simulation catches up after a stall.
const maxFrameLag = 250 * time.Millisecond

// How long command feedback stays in the title bar.
const messageLifetime = 4 * time.Second

// runWindow must be called from the main thread.
func runWindow(ctx context.Context, s *sim.Sim, path *track.Path, d *input.Dispatcher, dt time.Duration, lg *log.Logger) error {
	w, err := platform.New(&platform.Config{}, d.Enqueue, lg)
	if err != nil {
		return err
	}
	defer w.Dispose()
	w.SetTrack(path)

	last := time.Now()
	var lag time.Duration
	var message string
	var messageTime time.Time
	for !w.ShouldStop() && ctx.Err() == nil {
		w.ProcessEvents()
		messages, quit := handleResults(d.Drain(), lg)
		if quit {
			break
		}
		if len(messages) > 0 {
			message, messageTime = messages[len(messages)-1], time.Now()
		} else if message != "" && time.Since(messageTime) > messageLifetime {
			message = ""
		}

		now := time.Now()
		lag = min(lag+now.Sub(last), maxFrameLag)
		last = now
		for lag >= dt {
			s.Advance(dt)
			lag -= dt
		}

		w.Render(path, s.Snapshot(), message)
	}
	return nil
}
