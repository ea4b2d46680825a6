// server/feed_test.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coastersim/coaster/ride"
	"github.com/coastersim/coaster/sim"

	"github.com/gorilla/websocket"
)

type fixedSnapshot struct {
	u sim.StateUpdate
}

func (f fixedSnapshot) Snapshot() sim.StateUpdate { return f.u }

func readUpdate(t *testing.T, conn *websocket.Conn) sim.StateUpdate {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var u sim.StateUpdate
	if err := json.Unmarshal(msg, &u); err != nil {
		t.Fatalf("Unmarshal %s: %v", msg, err)
	}
	return u
}

func TestFeedBroadcast(t *testing.T) {
	feed := NewFeed(fixedSnapshot{}, nil)
	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()

	feed.Publish(sim.StateUpdate{State: ride.Stopped, Passengers: []sim.PassengerView{{Seat: 0, Active: true}}})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// The latest state is sent on connect.
	if u := readUpdate(t, conn); u.State != ride.Stopped || len(u.Passengers) != 1 {
		t.Errorf("initial update %+v", u)
	}

	feed.Publish(sim.StateUpdate{State: ride.Moving, SimTime: time.Second})
	if u := readUpdate(t, conn); u.State != ride.Moving || u.SimTime != time.Second {
		t.Errorf("broadcast update %+v", u)
	}
	if feed.NumClients() != 1 {
		t.Errorf("%d clients", feed.NumClients())
	}
}

func TestFeedDropsSlowClients(t *testing.T) {
	feed := NewFeed(fixedSnapshot{}, nil)
	slow := &client{send: make(chan []byte, 1), addr: "slow"}
	feed.clients[slow] = nil

	feed.Publish(sim.StateUpdate{})
	if feed.NumClients() != 1 {
		t.Fatalf("client dropped with room in its buffer")
	}
	feed.Publish(sim.StateUpdate{})
	if feed.NumClients() != 0 {
		t.Errorf("slow client not dropped")
	}
	if feed.dropped != 1 {
		t.Errorf("dropped = %d", feed.dropped)
	}

	// The buffered message is still there, followed by the close.
	if _, ok := <-slow.send; !ok {
		t.Errorf("buffered update lost")
	}
	if _, ok := <-slow.send; ok {
		t.Errorf("send channel not closed")
	}
}

func TestStateEndpoint(t *testing.T) {
	feed := NewFeed(fixedSnapshot{}, nil)
	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status %d before any publish", resp.StatusCode)
	}

	feed.Publish(sim.StateUpdate{State: ride.Waiting})
	resp, err = http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(b), `"state":"WAITING"`) {
		t.Errorf("status %d body %s", resp.StatusCode, b)
	}
}

func TestStatsPage(t *testing.T) {
	feed := NewFeed(fixedSnapshot{sim.StateUpdate{
		State:      ride.Returning,
		Passengers: []sim.PassengerView{{Seat: 3, Active: true, IsSick: true}},
	}}, nil)
	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sup")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "RETURNING") || !strings.Contains(string(b), "<td>3</td>") {
		t.Errorf("stats page missing ride state:\n%s", b)
	}
}
