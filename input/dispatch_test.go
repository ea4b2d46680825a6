// input/dispatch_test.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package input

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/coastersim/coaster/ride"
)

// recorder implements Commands, noting each call.
type recorder struct {
	state ride.State
	calls []string
	err   error
}

func (r *recorder) StartRide() error {
	r.calls = append(r.calls, "start")
	return r.err
}

func (r *recorder) Board() (int, error) {
	r.calls = append(r.calls, "board")
	return len(r.calls) - 1, r.err
}

func (r *recorder) Disembark(seat int) error {
	r.calls = append(r.calls, fmt.Sprintf("disembark %d", seat))
	return r.err
}

func (r *recorder) Restrain(seat int) error {
	r.calls = append(r.calls, fmt.Sprintf("restrain %d", seat))
	return r.err
}

func (r *recorder) MarkSick(seat int) error {
	r.calls = append(r.calls, fmt.Sprintf("sick %d", seat))
	return r.err
}

func (r *recorder) State() ride.State { return r.state }

func TestDispatch(t *testing.T) {
	for _, tc := range []struct {
		state    ride.State
		events   []Event
		expected []string
	}{
		{ride.Stopped, []Event{RuneEvent('b', false), RuneEvent('B', true)}, []string{"board", "board"}},
		{ride.Stopped, []Event{{Key: KeyEnter}, RuneEvent('s', false)}, []string{"start", "start"}},
		{ride.Stopped, []Event{RuneEvent('1', false), RuneEvent('8', false)}, []string{"restrain 0", "restrain 7"}},
		{ride.Moving, []Event{RuneEvent('3', false)}, []string{"sick 2"}},
		{ride.Waiting, []Event{RuneEvent('3', false)}, []string{"restrain 2"}},
		{ride.Stopped, []Event{RuneEvent('2', true)}, []string{"disembark 1"}},
		{ride.Stopped, []Event{RuneEvent('@', false)}, []string{"disembark 1"}},
		{ride.Stopped, []Event{RuneEvent('d', false), RuneEvent('4', false), RuneEvent('4', false)},
			[]string{"disembark 3", "restrain 3"}},
		// 'd' only applies to the very next key.
		{ride.Stopped, []Event{RuneEvent('d', false), RuneEvent('b', false), RuneEvent('1', false)},
			[]string{"board", "restrain 0"}},
		{ride.Stopped, []Event{RuneEvent('9', false), RuneEvent('x', false), RuneEvent('0', false)}, nil},
	} {
		rec := &recorder{state: tc.state}
		d := NewDispatcher(rec, nil)
		for _, e := range tc.events {
			d.Enqueue(e)
		}
		d.Drain()
		if !slices.Equal(rec.calls, tc.expected) {
			t.Errorf("%v in %s: got calls %v, expected %v", tc.events, tc.state, rec.calls, tc.expected)
		}
	}
}

func TestDispatchQuit(t *testing.T) {
	for _, e := range []Event{{Key: KeyEscape}, RuneEvent('q', false), RuneEvent('Q', true)} {
		d := NewDispatcher(&recorder{}, nil)
		r, ok := d.Dispatch(e)
		if !ok || !r.Quit {
			t.Errorf("%v: got %+v, %v", e, r, ok)
		}
	}
}

func TestDrainResults(t *testing.T) {
	rec := &recorder{err: ride.ErrRideFull}
	d := NewDispatcher(rec, nil)
	d.Enqueue(RuneEvent('b', false))
	d.Enqueue(RuneEvent('z', false))
	d.Enqueue(RuneEvent('5', false))

	results := d.Drain()
	if len(results) != 2 {
		t.Fatalf("got %d results, expected 2", len(results))
	}
	if results[0].Command != "board" || !errors.Is(results[0].Err, ride.ErrRideFull) {
		t.Errorf("result 0: %+v", results[0])
	}
	if results[1].Command != "restrain" || results[1].Seat != 4 {
		t.Errorf("result 1: %+v", results[1])
	}

	if results := d.Drain(); len(results) != 0 {
		t.Errorf("second drain returned %v", results)
	}
}
