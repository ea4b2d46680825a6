// ride/errors.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ride

import "errors"

var (
	ErrBoardingClosed    = errors.New("Boarding is closed")
	ErrRideInProgress    = errors.New("Ride is in progress")
	ErrRideFull          = errors.New("All seats are taken")
	ErrNoPassengers      = errors.New("No passengers on board")
	ErrUnrestrained      = errors.New("Not all passengers are restrained")
	ErrInvalidSeat       = errors.New("Invalid seat")
	ErrPassengerInactive = errors.New("Passenger has left the car")
	ErrNotMoving         = errors.New("Ride is not moving")
)
