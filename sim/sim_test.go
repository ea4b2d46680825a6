// sim/sim_test.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"encoding/json"
	"errors"
	"log/slog"
	gomath "math"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/coastersim/coaster/log"
	"github.com/coastersim/coaster/math"
	"github.com/coastersim/coaster/motion"
	"github.com/coastersim/coaster/ride"
	"github.com/coastersim/coaster/track"

	"github.com/go-gl/mathgl/mgl32"
)

const frame = time.Second / 60

func squarePath() *track.Path {
	return track.NewPath([]mgl32.Vec3{{0, 0, 0}, {4, 0, 0}, {4, 0, 4}, {0, 0, 4}})
}

func makeSim(t *testing.T, path *track.Path, policy string) *Sim {
	t.Helper()

	config := DefaultConfig()
	config.Policy = policy
	s, err := NewSim(path, config, log.NewWithHandler(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	t.Cleanup(s.Destroy)
	return s
}

// advanceUntil steps the sim until it reaches the given state, failing if
// that takes longer than limit.
func advanceUntil(t *testing.T, s *Sim, state ride.State, limit time.Duration) {
	t.Helper()
	for elapsed := time.Duration(0); elapsed < limit; elapsed += frame {
		if s.State() == state {
			return
		}
		s.Advance(frame)
	}
	if s.State() != state {
		t.Fatalf("still %s after %s; expected %s", s.State(), limit, state)
	}
}

// boardAndStart boards n restrained passengers and starts the ride.
func boardAndStart(t *testing.T, s *Sim, n int) {
	t.Helper()
	for range n {
		seat, err := s.Board()
		if err != nil {
			t.Fatalf("Board: %v", err)
		}
		if err := s.Restrain(seat); err != nil {
			t.Fatalf("Restrain: %v", err)
		}
	}
	if err := s.StartRide(); err != nil {
		t.Fatalf("StartRide: %v", err)
	}
}

func stateChanges(events []Event) []ride.State {
	var states []ride.State
	for _, e := range events {
		if e.Type == RideStateChangedEvent {
			states = append(states, e.To)
		}
	}
	return states
}

func TestNewSimUnknownPolicy(t *testing.T) {
	config := DefaultConfig()
	config.Policy = "warp"
	if _, err := NewSim(squarePath(), config, nil); err == nil {
		t.Errorf("expected error for unknown policy")
	}
}

func TestBoardCapacity(t *testing.T) {
	s := makeSim(t, squarePath(), motion.PolicyArcLength)
	for i := range 8 {
		if seat, err := s.Board(); err != nil || seat != i {
			t.Fatalf("board %d: seat %d, %v", i, seat, err)
		}
	}
	if _, err := s.Board(); !errors.Is(err, ride.ErrRideFull) {
		t.Errorf("9th board: %v", err)
	}
}

func TestStartRideGating(t *testing.T) {
	s := makeSim(t, squarePath(), motion.PolicyArcLength)
	sub := s.Subscribe()

	if err := s.StartRide(); !errors.Is(err, ride.ErrNoPassengers) {
		t.Errorf("start with empty car: %v", err)
	}

	s.Board()
	s.Board()
	if err := s.Restrain(0); err != nil {
		t.Fatal(err)
	}
	if err := s.StartRide(); !errors.Is(err, ride.ErrUnrestrained) {
		t.Errorf("start with unrestrained passenger: %v", err)
	}
	if s.State() != ride.Stopped || !s.BoardingOpen() {
		t.Errorf("rejected start changed state to %s", s.State())
	}

	var rejected int
	for _, e := range sub.Get() {
		if e.Type == CommandRejectedEvent {
			rejected++
			if e.Command != "start" {
				t.Errorf("rejected command %q", e.Command)
			}
		}
	}
	if rejected != 2 {
		t.Errorf("got %d rejection events, expected 2", rejected)
	}

	if err := s.Restrain(1); err != nil {
		t.Fatal(err)
	}
	if err := s.StartRide(); err != nil {
		t.Fatalf("StartRide: %v", err)
	}
	if s.State() != ride.Moving {
		t.Errorf("state %s after start", s.State())
	}
	if s.BoardingOpen() {
		t.Errorf("boarding still open")
	}
	if m := s.Motion(); m.Speed != s.Config.LaunchSpeed {
		t.Errorf("speed %f, expected launch speed", m.Speed)
	}

	if _, err := s.Board(); !errors.Is(err, ride.ErrRideInProgress) {
		t.Errorf("board while moving: %v", err)
	}
	if err := s.Restrain(0); !errors.Is(err, ride.ErrRideInProgress) {
		t.Errorf("restrain while moving: %v", err)
	}
	if err := s.Disembark(0); !errors.Is(err, ride.ErrRideInProgress) {
		t.Errorf("disembark while moving: %v", err)
	}
	if err := s.StartRide(); !errors.Is(err, ride.ErrRideInProgress) {
		t.Errorf("second start: %v", err)
	}
}

func TestMarkSickRejected(t *testing.T) {
	s := makeSim(t, squarePath(), motion.PolicyArcLength)
	s.Board()
	if err := s.MarkSick(0); !errors.Is(err, ride.ErrNotMoving) {
		t.Errorf("sick while stopped: %v", err)
	}

	s.Restrain(0)
	s.StartRide()
	if err := s.MarkSick(4); !errors.Is(err, ride.ErrInvalidSeat) {
		t.Errorf("sick in empty seat: %v", err)
	}
	if s.State() != ride.Moving {
		t.Errorf("rejected sick changed state to %s", s.State())
	}
}

func TestRideCycle(t *testing.T) {
	for _, policy := range motion.PolicyNames() {
		t.Run(policy, func(t *testing.T) {
			s := makeSim(t, squarePath(), policy)
			sub := s.Subscribe()

			boardAndStart(t, s, 2)
			for range 90 {
				s.Advance(frame)
			}
			if s.State() != ride.Moving {
				t.Fatalf("state %s while riding", s.State())
			}
			startPos := mgl32.Vec3{0, 0, 0}
			if math.Distance3f(s.CurrentPosition(), startPos) < 0.5 {
				t.Errorf("car at %v hasn't moved", s.CurrentPosition())
			}

			if err := s.MarkSick(1); err != nil {
				t.Fatalf("MarkSick: %v", err)
			}
			if s.State() != ride.SlowingDown {
				t.Fatalf("state %s after sick passenger", s.State())
			}

			advanceUntil(t, s, ride.Waiting, 10*time.Second)
			if m := s.Motion(); m.Speed != 0 {
				t.Errorf("waiting with speed %f", m.Speed)
			}

			// The car stays put for the dwell time.
			pos := s.CurrentPosition()
			for range 60 {
				s.Advance(frame)
			}
			if s.State() != ride.Waiting || s.CurrentPosition() != pos {
				t.Errorf("car moved while waiting")
			}

			advanceUntil(t, s, ride.Returning, time.Duration(s.Config.Dwell)+time.Second)
			if m := s.Motion(); m.Speed != s.Config.ReturnSpeed {
				t.Errorf("returning with speed %f", m.Speed)
			}

			advanceUntil(t, s, ride.Stopped, 30*time.Second)
			m := s.Motion()
			if m.Speed != 0 {
				t.Errorf("stopped with speed %f", m.Speed)
			}
			if m.Progress > 1e-4 || math.Distance3f(m.Position, startPos) > 1e-3 {
				t.Errorf("stopped at %v (progress %f), not the start", m.Position, m.Progress)
			}
			for _, p := range s.PassengerViews() {
				if p.BeltOn {
					t.Errorf("seat %d still restrained", p.Seat)
				}
			}
			if !s.PassengerViews()[1].IsSick {
				t.Errorf("sick passenger recovered")
			}

			expected := []ride.State{ride.Moving, ride.SlowingDown, ride.Waiting, ride.Returning, ride.Stopped}
			if got := stateChanges(sub.Get()); !slices.Equal(got, expected) {
				t.Errorf("state changes %v, expected %v", got, expected)
			}

			// Still closed until everyone leaves.
			if s.BoardingOpen() {
				t.Errorf("boarding open with passengers aboard")
			}
			if err := s.Restrain(0); !errors.Is(err, ride.ErrBoardingClosed) {
				t.Errorf("restrain after ride: %v", err)
			}
		})
	}
}

func TestDisembarkReopensBoarding(t *testing.T) {
	s := makeSim(t, squarePath(), motion.PolicyArcLength)
	boardAndStart(t, s, 2)
	s.MarkSick(0)
	advanceUntil(t, s, ride.Stopped, time.Minute)

	sub := s.Subscribe()
	if err := s.Disembark(0); err != nil {
		t.Fatal(err)
	}
	if s.BoardingOpen() {
		t.Errorf("boarding reopened with a passenger aboard")
	}
	// Repeat is a no-op.
	if err := s.Disembark(0); err != nil {
		t.Errorf("repeat disembark: %v", err)
	}
	if err := s.Disembark(1); err != nil {
		t.Fatal(err)
	}
	if !s.BoardingOpen() || len(s.PassengerViews()) != 0 {
		t.Errorf("boarding open %v with %d passengers", s.BoardingOpen(), len(s.PassengerViews()))
	}

	var types []EventType
	for _, e := range sub.Get() {
		types = append(types, e.Type)
	}
	expected := []EventType{PassengerDisembarkedEvent, PassengerDisembarkedEvent, BoardingReopenedEvent}
	if !slices.Equal(types, expected) {
		t.Errorf("events %v, expected %v", types, expected)
	}

	if seat, err := s.Board(); err != nil || seat != 0 {
		t.Errorf("board after reopening: seat %d, %v", seat, err)
	}
}

func TestDegeneratePath(t *testing.T) {
	for _, pts := range [][]mgl32.Vec3{nil, {{1, 1, 1}}} {
		s := makeSim(t, track.NewPath(pts), motion.PolicyArcLength)
		boardAndStart(t, s, 1)
		for range 10 {
			s.Advance(frame)
		}
		if s.CurrentPosition() != (mgl32.Vec3{}) {
			t.Errorf("car moved to %v on a degenerate path", s.CurrentPosition())
		}

		// The ride still cycles back to stopped.
		s.MarkSick(0)
		advanceUntil(t, s, ride.Stopped, time.Minute)
	}

	s := makeSim(t, nil, motion.PolicySpline)
	if u := s.Snapshot(); u.Track.Usable || u.Track.Keypoints != 0 {
		t.Errorf("nil path reported as %+v", u.Track)
	}
}

func TestTwoPointRideCycle(t *testing.T) {
	for _, policy := range motion.PolicyNames() {
		t.Run(policy, func(t *testing.T) {
			s := makeSim(t, track.NewPath([]mgl32.Vec3{{0, 0, 0}, {4, 0, 0}}), policy)
			parked := policy == motion.PolicySpline
			if s.Snapshot().Track.Usable == parked {
				t.Fatalf("usable %v for a two point track", !parked)
			}

			boardAndStart(t, s, 1)
			var maxX float32
			for range 300 {
				s.Advance(frame)
				pos := s.CurrentPosition()
				if pos.X() < -1e-3 || pos.X() > 4+1e-3 || pos.Y() != 0 || pos.Z() != 0 {
					t.Fatalf("car left the track at %v", pos)
				}
				maxX = math.Max(maxX, pos.X())
			}
			if parked && maxX != 0 {
				t.Errorf("parked car moved to x=%f", maxX)
			} else if !parked && maxX < 1 {
				t.Errorf("car only reached x=%f", maxX)
			}

			s.MarkSick(0)
			advanceUntil(t, s, ride.Stopped, time.Minute)
			if pos := s.CurrentPosition(); math.Distance3f(pos, mgl32.Vec3{}) > 1e-3 {
				t.Errorf("stopped at %v, not the start", pos)
			}
		})
	}
}

func TestNonFiniteTrack(t *testing.T) {
	nan := float32(gomath.NaN())
	path := track.NewPath([]mgl32.Vec3{{0, 0, 0}, {nan, 0, 4}, {4, 0, 4}, {4, 0, 0}})
	for _, policy := range motion.PolicyNames() {
		s := makeSim(t, path, policy)
		if s.Snapshot().Track.Usable {
			t.Errorf("%s: non-finite track usable", policy)
		}
		boardAndStart(t, s, 1)
		s.MarkSick(0)
		advanceUntil(t, s, ride.Stopped, time.Minute)
		if m := s.Motion(); m.Position != (mgl32.Vec3{}) || m.Progress != 0 {
			t.Errorf("%s: car moved to %+v", policy, m)
		}
	}
}

func TestAdvanceIgnoresNonPositive(t *testing.T) {
	s := makeSim(t, squarePath(), motion.PolicyArcLength)
	boardAndStart(t, s, 1)
	s.Advance(0)
	s.Advance(-time.Second)
	if m := s.Motion(); m.Progress != 0 {
		t.Errorf("progress %f after non-positive steps", m.Progress)
	}
	if u := s.Snapshot(); u.SimTime != 0 {
		t.Errorf("sim time %s", u.SimTime)
	}
}

func TestTransforms(t *testing.T) {
	s := makeSim(t, squarePath(), motion.PolicyArcLength)
	boardAndStart(t, s, 1)
	s.Advance(frame)

	// The first segment runs along +x, so the car's local +z axis points
	// along world +x.
	car := s.CarTransform()
	pos := s.CurrentPosition()
	tip := mgl32.TransformCoordinate(mgl32.Vec3{0, 0, 1}, car)
	expected := pos.Add(mgl32.Vec3{s.Config.CarScale, 0, 0})
	if math.Distance3f(tip, expected) > 1e-4 {
		t.Errorf("car +z maps to %v, expected %v", tip, expected)
	}

	seats := s.SeatTransform()
	origin := mgl32.TransformCoordinate(mgl32.Vec3{}, seats)
	if math.Distance3f(origin, pos.Add(mgl32.Vec3{0, s.Config.SeatSpacing[1], 0})) > 1e-4 {
		t.Errorf("seats at %v", origin)
	}

	p := s.PassengerViews()[0]
	origin = mgl32.TransformCoordinate(mgl32.Vec3{}, s.PassengerTransform(p))
	if d := math.Distance3f(origin, pos); math.Abs(d-p.Offset.Len()*s.Config.CarScale) > 1e-4 {
		t.Errorf("passenger at distance %f from car", d)
	}
}

func TestSnapshot(t *testing.T) {
	s := makeSim(t, squarePath(), motion.PolicyArcLength)
	boardAndStart(t, s, 2)
	s.Advance(frame)

	u := s.Snapshot()
	if u.State != ride.Moving || len(u.Passengers) != 2 || u.BoardingOpen {
		t.Errorf("snapshot %+v", u)
	}
	if u.Track.Keypoints != 4 || u.Track.TotalLength != 16 || !u.Track.Usable {
		t.Errorf("track info %+v", u.Track)
	}
	if u.SimTime != frame {
		t.Errorf("sim time %s", u.SimTime)
	}

	u.Passengers[0].BeltOn = false
	if !s.PassengerViews()[0].BeltOn {
		t.Errorf("snapshot shares passenger storage with the sim")
	}

	b, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"state":"MOVING"`) {
		t.Errorf("JSON %s doesn't include the state name", b)
	}

	if d := s.Dump(); d == "" {
		t.Errorf("empty dump")
	}
}

func TestEventStream(t *testing.T) {
	es := NewEventStream(nil)
	defer es.Destroy()

	// Events posted with no subscribers are dropped.
	es.Post(Event{Type: PassengerBoardedEvent, Seat: 0})

	a := es.Subscribe()
	es.Post(Event{Type: PassengerBoardedEvent, Seat: 1})
	b := es.Subscribe()
	es.Post(Event{Type: PassengerBoardedEvent, Seat: 2})

	seats := func(events []Event) []int {
		var s []int
		for _, e := range events {
			s = append(s, e.Seat)
		}
		return s
	}
	if got := seats(a.Get()); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("a got %v", got)
	}
	if got := seats(b.Get()); !slices.Equal(got, []int{2}) {
		t.Errorf("b got %v", got)
	}
	if got := a.Get(); len(got) != 0 {
		t.Errorf("a got %v on second Get", got)
	}

	es.mu.Lock()
	es.compact()
	n := len(es.events)
	es.mu.Unlock()
	if n != 0 {
		t.Errorf("%d events left after compaction", n)
	}

	es.Post(Event{Type: PassengerBoardedEvent, Seat: 3})
	b.Unsubscribe()
	if got := seats(a.Get()); !slices.Equal(got, []int{3}) {
		t.Errorf("a got %v after compaction", got)
	}
}
