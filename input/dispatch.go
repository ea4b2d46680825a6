// input/dispatch.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package input maps key presses from whichever front end is active onto
// ride commands.
package input

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/coastersim/coaster/log"
	"github.com/coastersim/coaster/ride"
)

type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyEscape
)

// Event is a key press in a front-end independent form.
type Event struct {
	Key   Key
	Rune  rune
	Shift bool
}

func RuneEvent(r rune, shift bool) Event {
	return Event{Key: KeyRune, Rune: r, Shift: shift}
}

// Commands is the command surface of the simulation.
type Commands interface {
	StartRide() error
	Board() (int, error)
	Disembark(seat int) error
	Restrain(seat int) error
	MarkSick(seat int) error
	State() ride.State
}

// Result describes what a key press did.
type Result struct {
	Command string
	Seat    int // -1 if not applicable
	Err     error
	Quit    bool
}

func (r Result) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("command", r.Command), slog.Int("seat", r.Seat)}
	if r.Err != nil {
		attrs = append(attrs, slog.String("error", r.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// Dispatcher queues key events from input goroutines and applies them
// to the simulation when drained.
type Dispatcher struct {
	cmds Commands
	lg   *log.Logger

	mu    sync.Mutex
	queue []Event

	// disembarkNext is set after 'd' so that the next seat number
	// disembarks rather than restrains.
	disembarkNext bool
}

func NewDispatcher(cmds Commands, lg *log.Logger) *Dispatcher {
	return &Dispatcher{cmds: cmds, lg: lg}
}

// Enqueue adds an event to be handled at the next Drain; it may be
// called from any goroutine.
func (d *Dispatcher) Enqueue(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, e)
}

// Drain handles all queued events in order and returns what each one
// did. Events that don't map to a command produce no result.
func (d *Dispatcher) Drain() []Result {
	d.mu.Lock()
	events := d.queue
	d.queue = nil
	d.mu.Unlock()

	var results []Result
	for _, e := range events {
		if r, ok := d.Dispatch(e); ok {
			results = append(results, r)
		}
	}
	return results
}

const shiftedDigits = "!@#$%^&*"

// seatForRune returns the seat selected by a digit key; shifted digits
// (as reported by terminals) select the same seat with shift held.
func seatForRune(r rune) (seat int, shifted bool, ok bool) {
	if r >= '1' && r <= '8' {
		return int(r - '1'), false, true
	}
	if i := strings.IndexRune(shiftedDigits, r); i >= 0 {
		return i, true, true
	}
	return -1, false, false
}

// Dispatch applies a single event immediately. The boolean result is
// false if the event isn't bound to anything.
func (d *Dispatcher) Dispatch(e Event) (Result, bool) {
	disembark := d.disembarkNext
	d.disembarkNext = false

	var r Result
	switch e.Key {
	case KeyEscape:
		r = Result{Command: "quit", Seat: -1, Quit: true}

	case KeyEnter:
		r = Result{Command: "start", Seat: -1, Err: d.cmds.StartRide()}

	case KeyRune:
		if seat, shifted, ok := seatForRune(e.Rune); ok {
			r = d.seatCommand(seat, disembark || shifted || e.Shift)
			break
		}

		switch e.Rune {
		case 'b', 'B':
			seat, err := d.cmds.Board()
			r = Result{Command: "board", Seat: seat, Err: err}
		case 's', 'S':
			r = Result{Command: "start", Seat: -1, Err: d.cmds.StartRide()}
		case 'd', 'D':
			d.disembarkNext = true
			return Result{}, false
		case 'q', 'Q':
			r = Result{Command: "quit", Seat: -1, Quit: true}
		default:
			return Result{}, false
		}

	default:
		return Result{}, false
	}

	d.lg.Debug("dispatched key", slog.Any("result", r))
	return r, true
}

func (d *Dispatcher) seatCommand(seat int, disembark bool) Result {
	if disembark {
		return Result{Command: "disembark", Seat: seat, Err: d.cmds.Disembark(seat)}
	}
	if d.cmds.State() == ride.Moving {
		return Result{Command: "sick", Seat: seat, Err: d.cmds.MarkSick(seat)}
	}
	return Result{Command: "restrain", Seat: seat, Err: d.cmds.Restrain(seat)}
}
