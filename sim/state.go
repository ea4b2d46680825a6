// sim/state.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"log/slog"
	"time"

	"github.com/coastersim/coaster/motion"
	"github.com/coastersim/coaster/ride"

	"github.com/goforj/godump"
)

// StateUpdate is a self-contained copy of everything needed to draw the
// ride; it shares no memory with the Sim.
type StateUpdate struct {
	SimTime      time.Duration   `json:"sim_time"`
	State        ride.State      `json:"state"`
	Motion       motion.State    `json:"motion"`
	Yaw          float32         `json:"yaw"`
	BoardingOpen bool            `json:"boarding_open"`
	WaitTimer    time.Duration   `json:"wait_timer"`
	Passengers   []PassengerView `json:"passengers"`
	Track        TrackInfo       `json:"track"`
}

type TrackInfo struct {
	Policy      string  `json:"policy"`
	Keypoints   int     `json:"keypoints"`
	TotalLength float32 `json:"total_length"`
	Usable      bool    `json:"usable"`
}

func (u StateUpdate) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("sim_time", u.SimTime),
		slog.String("state", u.State.String()),
		slog.Any("motion", u.Motion),
		slog.Int("passengers", len(u.Passengers)))
}

func (s *Sim) Snapshot() StateUpdate {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	path := s.model.Path()
	update := StateUpdate{
		SimTime:      s.elapsed,
		State:        s.state,
		Motion:       s.model.State(),
		Yaw:          s.model.Yaw(),
		BoardingOpen: s.passengers.BoardingOpen(),
		WaitTimer:    s.waitTimer,
		Passengers:   s.passengerViews(),
		Track: TrackInfo{
			Policy:      s.model.Policy().Name(),
			Keypoints:   path.Len(),
			TotalLength: path.TotalLength,
			Usable:      s.model.Usable(),
		},
	}

	return update
}

// Dump returns a human-readable rendition of the current state.
func (s *Sim) Dump() string {
	return godump.DumpStr(s.Snapshot())
}
