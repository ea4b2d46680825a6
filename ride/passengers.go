// ride/passengers.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ride

import (
	"log/slog"

	"github.com/brunoga/deep"
	"github.com/go-gl/mathgl/mgl32"
)

const DefaultCapacity = 8

type Passenger struct {
	Seat int `json:"seat"`
	// Offset is the passenger's position relative to the car.
	Offset mgl32.Vec3 `json:"offset"`
	BeltOn bool       `json:"belt_on"`
	IsSick bool       `json:"is_sick"`
	// Active is cleared when the passenger leaves the car.
	Active bool `json:"active"`
}

func (p Passenger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("seat", p.Seat),
		slog.Bool("belt_on", p.BeltOn),
		slog.Bool("is_sick", p.IsSick),
		slog.Bool("active", p.Active))
}

// Registry tracks the passengers aboard the car and whether boarding is
// open. Seats are handed out in order and aren't reused until everyone
// has left.
type Registry struct {
	capacity     int
	seatSpacing  mgl32.Vec3
	passengers   []Passenger
	boardingOpen bool
}

// DefaultSeatSpacing gives the distance between seat rows (x), the
// seat height (y), and the distance between columns (z).
var DefaultSeatSpacing = mgl32.Vec3{0.6, 0.3, 0.7}

func NewRegistry(capacity int, seatSpacing mgl32.Vec3) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		capacity:     capacity,
		seatSpacing:  seatSpacing,
		boardingOpen: true,
	}
}

func (r *Registry) Capacity() int { return r.capacity }

// SeatOffset returns the position of the given seat relative to the car.
// Seats are laid out two abreast: row = seat mod 2, column = seat div 2,
// centered on the car.
func (r *Registry) SeatOffset(seat int) mgl32.Vec3 {
	row, col := seat%2, seat/2
	cols := (r.capacity + 1) / 2
	return mgl32.Vec3{
		(float32(row) - 0.5) * r.seatSpacing.X(),
		r.seatSpacing.Y(),
		(float32(col) - float32(cols-1)/2) * r.seatSpacing.Z(),
	}
}

// BoardingOpen reports whether new passengers may board or fasten
// their belts.
func (r *Registry) BoardingOpen() bool { return r.boardingOpen }

func (r *Registry) CloseBoarding() { r.boardingOpen = false }

// Board adds a passenger to the next free seat and returns its index.
func (r *Registry) Board(state State) (int, error) {
	if state != Stopped {
		return -1, ErrRideInProgress
	} else if !r.boardingOpen {
		return -1, ErrBoardingClosed
	} else if len(r.passengers) >= r.capacity {
		return -1, ErrRideFull
	}

	seat := len(r.passengers)
	r.passengers = append(r.passengers, Passenger{
		Seat:   seat,
		Offset: r.SeatOffset(seat),
		Active: true,
	})
	return seat, nil
}

// Disembark removes the passenger in the given seat from the car. Empty
// or unknown seats are ignored.
func (r *Registry) Disembark(state State, seat int) error {
	if state != Stopped {
		return ErrRideInProgress
	}
	if seat < 0 || seat >= len(r.passengers) || !r.passengers[seat].Active {
		return nil
	}

	p := &r.passengers[seat]
	p.Active, p.BeltOn, p.IsSick = false, false, false
	return nil
}

func (r *Registry) lookup(seat int) (*Passenger, error) {
	if seat < 0 || seat >= len(r.passengers) {
		return nil, ErrInvalidSeat
	}
	p := &r.passengers[seat]
	if !p.Active {
		return nil, ErrPassengerInactive
	}
	return p, nil
}

// Restrain fastens the belt of the passenger in the given seat.
func (r *Registry) Restrain(state State, seat int) error {
	if state != Stopped {
		return ErrRideInProgress
	} else if !r.boardingOpen {
		return ErrBoardingClosed
	}
	p, err := r.lookup(seat)
	if err != nil {
		return err
	}
	p.BeltOn = true
	return nil
}

// MarkSick flags the passenger in the given seat as sick. The ride must
// be moving; the caller is responsible for bringing it to a halt.
func (r *Registry) MarkSick(state State, seat int) error {
	if state != Moving {
		return ErrNotMoving
	}
	p, err := r.lookup(seat)
	if err != nil {
		return err
	}
	p.IsSick = true
	return nil
}

// AllGone reports whether every passenger has left. If so, the seats are
// freed and boarding reopens.
func (r *Registry) AllGone() bool {
	if r.ActiveCount() > 0 {
		return false
	}
	r.passengers = r.passengers[:0]
	r.boardingOpen = true
	return true
}

// AllRestrained reports whether every passenger aboard has a fastened
// belt. It is vacuously true for an empty car.
func (r *Registry) AllRestrained() bool {
	for _, p := range r.passengers {
		if p.Active && !p.BeltOn {
			return false
		}
	}
	return true
}

func (r *Registry) ActiveCount() int {
	n := 0
	for _, p := range r.passengers {
		if p.Active {
			n++
		}
	}
	return n
}

func (r *Registry) ClearRestraints() {
	for i := range r.passengers {
		r.passengers[i].BeltOn = false
	}
}

// Passengers returns a copy of all passengers, including those who have
// left.
func (r *Registry) Passengers() []Passenger {
	return deep.MustCopy(r.passengers)
}
