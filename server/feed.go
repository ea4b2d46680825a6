// server/feed.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package server publishes ride snapshots to remote spectators over
// websockets and serves a small status page.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coastersim/coaster/log"
	"github.com/coastersim/coaster/sim"

	"github.com/gorilla/websocket"
)

// Snapshotter is the source of published ride state.
type Snapshotter interface {
	Snapshot() sim.StateUpdate
}

const clientBufferSize = 16

type client struct {
	conn *websocket.Conn
	send chan []byte
	addr string
}

// Feed broadcasts JSON-encoded StateUpdates to all connected websocket
// clients. Clients that fall behind are disconnected rather than
// allowed to slow the ride down.
type Feed struct {
	src       Snapshotter
	lg        *log.Logger
	upgrader  websocket.Upgrader
	startTime time.Time

	mu        sync.Mutex
	clients   map[*client]interface{}
	latest    []byte
	published int64
	dropped   int64
}

func NewFeed(src Snapshotter, lg *log.Logger) *Feed {
	return &Feed{
		src: src,
		lg:  lg,
		upgrader: websocket.Upgrader{
			EnableCompression: false,
			// Spectators are read-only.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		startTime: time.Now(),
		clients:   make(map[*client]interface{}),
	}
}

// Publish sends u to every connected client.
func (f *Feed) Publish(u sim.StateUpdate) {
	msg, err := json.Marshal(u)
	if err != nil {
		f.lg.Errorf("Unable to encode state update: %v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.latest = msg
	f.published++
	for c := range f.clients {
		select {
		case c.send <- msg:
		default:
			f.lg.Warn("dropping slow spectator", slog.String("addr", c.addr))
			f.removeClient(c)
			f.dropped++
		}
	}
}

// removeClient must be called with f.mu held.
func (f *Feed) removeClient(c *client) {
	if _, ok := f.clients[c]; ok {
		delete(f.clients, c)
		close(c.send)
	}
}

// Run publishes a snapshot every interval until ctx is canceled.
func (f *Feed) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.closeAll()
			return nil
		case <-ticker.C:
			f.Publish(f.src.Snapshot())
		}
	}
}

func (f *Feed) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		f.removeClient(c)
	}
}

func (f *Feed) NumClients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *Feed) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.lg.Errorf("Unable to upgrade spectator websocket: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBufferSize), addr: r.RemoteAddr}

	f.mu.Lock()
	f.clients[c] = nil
	if f.latest != nil {
		// New spectators see the current state right away.
		c.send <- f.latest
	}
	f.mu.Unlock()

	f.lg.Info("spectator connected", slog.String("addr", c.addr))

	go f.readLoop(c)
	go f.writeLoop(c)
}

// readLoop discards anything the client sends; it notices when the
// client goes away.
func (f *Feed) readLoop(c *client) {
	defer func() {
		f.mu.Lock()
		f.removeClient(c)
		f.mu.Unlock()
		c.conn.Close()
		f.lg.Info("spectator disconnected", slog.String("addr", c.addr))
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *Feed) writeLoop(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *Feed) serveState(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	msg := f.latest
	f.mu.Unlock()

	if msg == nil {
		http.Error(w, "No state published yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(msg)
}
