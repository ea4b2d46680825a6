// sim/sim.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package sim ties the track, motion model, and ride state machine
// together into a single simulation that is driven by commands and
// fixed timesteps.
package sim

import (
	"log/slog"
	"time"

	"github.com/coastersim/coaster/log"
	"github.com/coastersim/coaster/math"
	"github.com/coastersim/coaster/motion"
	"github.com/coastersim/coaster/ride"
	"github.com/coastersim/coaster/track"
	"github.com/coastersim/coaster/util"

	"github.com/go-gl/mathgl/mgl32"
)

// Sim is the complete state of a ride. Commands and Advance may be
// called from one goroutine while others take snapshots.
type Sim struct {
	Config Config

	mu util.LoggingMutex

	model      *motion.Model
	state      ride.State
	passengers *ride.Registry
	waitTimer  time.Duration
	elapsed    time.Duration

	eventStream *EventStream
	lg          *log.Logger
}

// NewSim returns a stopped ride at the start of the given path. It only
// fails if the configured motion policy is unknown; a path that is too
// short or has non-finite coordinates leaves the car parked.
func NewSim(path *track.Path, config Config, lg *log.Logger) (*Sim, error) {
	policy, err := motion.PolicyByName(config.Policy, config.PolicyOptions())
	if err != nil {
		return nil, err
	}
	if path == nil {
		path = track.NewPath(nil)
	}

	s := &Sim{
		Config:      config,
		model:       motion.NewModel(path, policy, config.SpeedLaw()),
		state:       ride.Stopped,
		passengers:  ride.NewRegistry(config.Capacity, config.seatSpacing()),
		eventStream: NewEventStream(lg),
		lg:          lg,
	}

	if !s.model.Usable() {
		lg.Warn("track too short or not finite for motion policy; the car will not move",
			slog.String("policy", policy.Name()), slog.Int("min_points", policy.MinPoints()),
			slog.Any("track", path))
	} else {
		lg.Info("ride ready", slog.String("policy", policy.Name()), slog.Any("track", path))
	}

	return s, nil
}

// Destroy releases the sim's event stream.
func (s *Sim) Destroy() {
	s.eventStream.Destroy()
}

func (s *Sim) Subscribe() *EventsSubscription {
	return s.eventStream.Subscribe()
}

func (s *Sim) PostEvent(e Event) {
	s.eventStream.Post(e)
}

///////////////////////////////////////////////////////////////////////////
// Commands

func (s *Sim) reject(command string, seat int, err error) error {
	s.lg.Debug("command rejected", slog.String("command", command), slog.Int("seat", seat),
		slog.String("state", s.state.String()), slog.Any("error", err))
	s.eventStream.Post(Event{
		Type:    CommandRejectedEvent,
		Seat:    seat,
		Command: command,
		Error:   err.Error(),
	})
	return err
}

// StartRide launches the car if at least one passenger is aboard and all
// of them are restrained.
func (s *Sim) StartRide() error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if s.state != ride.Stopped {
		return s.reject("start", -1, ride.ErrRideInProgress)
	} else if s.passengers.ActiveCount() == 0 {
		return s.reject("start", -1, ride.ErrNoPassengers)
	} else if !s.passengers.AllRestrained() {
		return s.reject("start", -1, ride.ErrUnrestrained)
	}

	s.transition(ride.TriggerStart)
	return nil
}

// Board seats a new passenger and returns the seat index.
func (s *Sim) Board() (int, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	seat, err := s.passengers.Board(s.state)
	if err != nil {
		return seat, s.reject("board", -1, err)
	}

	s.lg.Info("passenger boarded", slog.Int("seat", seat))
	s.eventStream.Post(Event{Type: PassengerBoardedEvent, Seat: seat})
	return seat, nil
}

// Disembark lets the passenger in the given seat leave the car. Once
// the car is empty, its seats are freed and boarding reopens.
func (s *Sim) Disembark(seat int) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	wasActive := s.seatActive(seat)
	if err := s.passengers.Disembark(s.state, seat); err != nil {
		return s.reject("disembark", seat, err)
	}
	if wasActive {
		s.lg.Info("passenger disembarked", slog.Int("seat", seat))
		s.eventStream.Post(Event{Type: PassengerDisembarkedEvent, Seat: seat})
	}

	wasOpen := s.passengers.BoardingOpen()
	if s.passengers.AllGone() && (wasActive || !wasOpen) {
		s.lg.Info("car empty; boarding open")
		s.eventStream.Post(Event{Type: BoardingReopenedEvent, Seat: -1})
	}
	return nil
}

func (s *Sim) seatActive(seat int) bool {
	p := s.passengers.Passengers()
	return seat >= 0 && seat < len(p) && p[seat].Active
}

// Restrain fastens the belt of the passenger in the given seat.
func (s *Sim) Restrain(seat int) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if err := s.passengers.Restrain(s.state, seat); err != nil {
		return s.reject("restrain", seat, err)
	}

	s.eventStream.Post(Event{Type: RestraintFastenedEvent, Seat: seat})
	return nil
}

// MarkSick flags the passenger in the given seat as sick, which forces
// the moving car to brake to a stop.
func (s *Sim) MarkSick(seat int) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	// The registry validates the state and seat; the passenger's flag is
	// set there rather than as a transition effect.
	if err := s.passengers.MarkSick(s.state, seat); err != nil {
		return s.reject("sick", seat, err)
	}

	s.lg.Info("passenger sick", slog.Int("seat", seat))
	s.eventStream.Post(Event{Type: PassengerSickEvent, Seat: seat})
	s.transition(ride.TriggerSick)
	return nil
}

///////////////////////////////////////////////////////////////////////////
// Time

// transition applies tr to the current state; it returns false if tr
// doesn't apply.
func (s *Sim) transition(tr ride.Trigger) bool {
	from := s.state
	to, effects, ok := ride.Transition(from, tr)
	if !ok {
		s.lg.Errorf("%s: invalid trigger in state %s", tr, from)
		return false
	}

	for _, eff := range effects {
		switch eff {
		case ride.CloseBoarding:
			s.passengers.CloseBoarding()
		case ride.SetLaunchSpeed:
			s.model.SetSpeed(s.Config.LaunchSpeed)
		case ride.MarkSick:
			// Already applied by MarkSick.
		case ride.ResetWaitTimer:
			s.waitTimer = 0
		case ride.SetReturnSpeed:
			s.model.SetSpeed(s.Config.ReturnSpeed)
		case ride.ZeroSpeed:
			s.model.Hold()
		case ride.ClearRestraints:
			s.passengers.ClearRestraints()
		}
	}

	s.state = to
	s.lg.Info("ride state changed", slog.String("from", from.String()), slog.String("to", to.String()),
		slog.String("trigger", tr.String()), slog.Any("motion", s.model.State()))
	s.eventStream.Post(Event{Type: RideStateChangedEvent, From: from, To: to, Seat: -1})
	return true
}

// Advance steps the simulation forward by dt.
func (s *Sim) Advance(dt time.Duration) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if dt <= 0 {
		return
	}
	s.elapsed += dt
	sec := float32(dt.Seconds())

	switch s.state {
	case ride.Stopped:
		s.model.Hold()

	case ride.Moving:
		s.model.Drive(sec)

	case ride.SlowingDown:
		if s.model.Coast(sec) {
			s.transition(ride.TriggerStopped)
		}

	case ride.Waiting:
		s.model.Hold()
		s.waitTimer += dt
		if s.waitTimer >= time.Duration(s.Config.Dwell) {
			s.transition(ride.TriggerDwellElapsed)
		}

	case ride.Returning:
		if s.model.Reverse(sec) {
			s.transition(ride.TriggerReachedStart)
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// Queries

func (s *Sim) State() ride.State {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)
	return s.state
}

func (s *Sim) Motion() motion.State {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)
	return s.model.State()
}

func (s *Sim) CurrentPosition() mgl32.Vec3 {
	return s.Motion().Position
}

func (s *Sim) CurrentForward() mgl32.Vec3 {
	return s.Motion().Forward
}

func (s *Sim) BoardingOpen() bool {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)
	return s.passengers.BoardingOpen()
}

// PassengerView is the renderer's view of a passenger.
type PassengerView struct {
	Seat   int        `json:"seat"`
	Offset mgl32.Vec3 `json:"offset"`
	BeltOn bool       `json:"belt_on"`
	IsSick bool       `json:"is_sick"`
	Active bool       `json:"active"`
}

func (s *Sim) PassengerViews() []PassengerView {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)
	return s.passengerViews()
}

func (s *Sim) passengerViews() []PassengerView {
	p := s.passengers.Passengers()
	views := make([]PassengerView, len(p))
	for i, pass := range p {
		views[i] = PassengerView{
			Seat:   pass.Seat,
			Offset: pass.Offset,
			BeltOn: pass.BeltOn,
			IsSick: pass.IsSick,
			Active: pass.Active,
		}
	}
	return views
}

// CarTransform returns the car's model matrix: it is placed at the
// current position, turned to face along the track, and scaled.
func (s *Sim) CarTransform() mgl32.Mat4 {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)
	return s.carTransform()
}

func (s *Sim) carTransform() mgl32.Mat4 {
	return math.ModelMatrix(s.model.State().Position, s.model.Yaw(), s.Config.CarScale)
}

// SeatTransform returns the model matrix for the car's seats, which sit
// above the car's origin.
func (s *Sim) SeatTransform() mgl32.Mat4 {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	pos := s.model.State().Position.Add(mgl32.Vec3{0, s.Config.SeatSpacing[1], 0})
	return math.ModelMatrix(pos, s.model.Yaw(), s.Config.CarScale)
}

// PassengerTransform returns the model matrix for a passenger, which
// follows the car's orientation.
func (s *Sim) PassengerTransform(p PassengerView) mgl32.Mat4 {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return s.carTransform().Mul4(mgl32.Translate3D(p.Offset.X(), p.Offset.Y(), p.Offset.Z()))
}
