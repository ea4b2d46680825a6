// ride/state.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package ride holds the ride's state machine and its passengers.
package ride

import "fmt"

type State int

const (
	Stopped State = iota
	Moving
	SlowingDown
	Waiting
	Returning
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Moving:
		return "MOVING"
	case SlowingDown:
		return "SLOWING_DOWN"
	case Waiting:
		return "WAITING"
	case Returning:
		return "RETURNING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for st := Stopped; st <= Returning; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("%s: unknown ride state", string(b))
}

// Trigger is an event that may cause a state transition.
type Trigger int

const (
	// TriggerStart is a validated request to start the ride: at least one
	// passenger is aboard and all are restrained.
	TriggerStart Trigger = iota
	// TriggerSick reports a passenger taken ill while moving.
	TriggerSick
	// TriggerStopped reports that braking brought the car to rest.
	TriggerStopped
	// TriggerDwellElapsed reports that the car has waited long enough.
	TriggerDwellElapsed
	// TriggerReachedStart reports that the returning car is back at the
	// start of the track.
	TriggerReachedStart
)

func (t Trigger) String() string {
	return [...]string{"start", "sick", "stopped", "dwell-elapsed", "reached-start"}[t]
}

// Effect is a side effect the caller must apply along with a transition.
type Effect int

const (
	CloseBoarding Effect = iota
	SetLaunchSpeed
	MarkSick
	ResetWaitTimer
	SetReturnSpeed
	ZeroSpeed
	ClearRestraints
)

func (e Effect) String() string {
	return [...]string{"close-boarding", "set-launch-speed", "mark-sick", "reset-wait-timer",
		"set-return-speed", "zero-speed", "clear-restraints"}[e]
}

type transition struct {
	from    State
	trigger Trigger
	to      State
	effects []Effect
}

var transitions = []transition{
	{Stopped, TriggerStart, Moving, []Effect{CloseBoarding, SetLaunchSpeed}},
	{Moving, TriggerSick, SlowingDown, []Effect{MarkSick}},
	{SlowingDown, TriggerStopped, Waiting, []Effect{ResetWaitTimer}},
	{Waiting, TriggerDwellElapsed, Returning, []Effect{SetReturnSpeed}},
	{Returning, TriggerReachedStart, Stopped, []Effect{ZeroSpeed, ClearRestraints}},
}

// Transition returns the state that follows from when tr occurs along
// with the effects to apply. If tr isn't valid in from, from is returned
// unchanged and ok is false.
func Transition(from State, tr Trigger) (to State, effects []Effect, ok bool) {
	for _, t := range transitions {
		if t.from == from && t.trigger == tr {
			return t.to, append([]Effect(nil), t.effects...), true
		}
	}
	return from, nil, false
}
