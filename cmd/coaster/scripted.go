// cmd/coaster/scripted.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/coastersim/coaster/input"
	"github.com/coastersim/coaster/log"
	"github.com/coastersim/coaster/ride"
	"github.com/coastersim/coaster/sim"
)

// boardingKeys boards a group of riders, fastens their belts, and
// starts the ride.
func boardingKeys(n int) []input.Event {
	var events []input.Event
	for range n {
		events = append(events, input.RuneEvent('b', false))
	}
	for i := range n {
		events = append(events, input.RuneEvent(rune('1'+i), false))
	}
	return append(events, input.Event{Key: input.KeyEnter})
}

// unloadKeys disembarks the first n seats.
func unloadKeys(n int) []input.Event {
	var events []input.Event
	for i := range n {
		events = append(events, input.RuneEvent('d', false), input.RuneEvent(rune('1'+i), false))
	}
	return events
}

// runScripted runs the given number of steps without any UI, cycling
// riders through the ride and printing events as they happen.
func runScripted(ctx context.Context, s *sim.Sim, d *input.Dispatcher, steps int, dt time.Duration, lg *log.Logger) error {
	sub := s.Subscribe()
	defer sub.Unsubscribe()

	riders := min(4, s.Config.Capacity)
	rides := 0
	enqueue := func(events []input.Event) {
		for _, e := range events {
			d.Enqueue(e)
		}
	}
	enqueue(boardingKeys(riders))

	lg.Infof("Running %d scripted steps with dt %s", steps, dt)
	start := time.Now()
	for step := range steps {
		if ctx.Err() != nil {
			break
		}

		messages, quit := handleResults(d.Drain(), lg)
		for _, m := range messages {
			fmt.Printf("%8d: %s\n", step, m)
		}
		if quit {
			break
		}

		s.Advance(dt)

		for _, e := range sub.Get() {
			fmt.Printf("%8d: %s\n", step, e.String())
			if e.Type == sim.RideStateChangedEvent && e.To == ride.Stopped {
				rides++
				enqueue(unloadKeys(riders))
				enqueue(boardingKeys(riders))
			}
		}
	}

	u := s.Snapshot()
	fmt.Printf("Completed %d rides in %s (simulated %s); state %s at progress %.3f\n",
		rides, time.Since(start).Round(time.Millisecond), u.SimTime.Round(time.Millisecond),
		u.State, u.Motion.Progress)
	return nil
}
