// server/http.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"
	"strconv"
	"text/template"
	"time"

	"github.com/coastersim/coaster/math"
	"github.com/coastersim/coaster/sim"

	"github.com/shirou/gopsutil/v3/cpu"
)

const DefaultPort = 8089

type serverStats struct {
	Uptime           time.Duration
	AllocMemory      uint64
	TotalAllocMemory uint64
	SysMemory        uint64
	NumGC            uint32
	NumGoRoutines    int
	CPUUsage         int

	Spectators int
	Published  int64
	Dropped    int64
	Ride       sim.StateUpdate
}

// Handler returns the feed's HTTP endpoints: /ws for the websocket
// feed, /state for the latest snapshot, and /sup for a status page.
func (f *Feed) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", f.serveWS)
	mux.HandleFunc("/state", f.serveState)
	mux.HandleFunc("/sup", func(w http.ResponseWriter, r *http.Request) {
		f.statsHandler(w, r)
		f.lg.Infof("%s: served stats request", r.URL.String())
	})

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return mux
}

// Serve listens on the first free port starting at basePort and serves
// until ctx is canceled.
func (f *Feed) Serve(ctx context.Context, basePort int) error {
	var listener net.Listener
	var err error
	for i := range 10 {
		port := basePort + i
		if listener, err = net.Listen("tcp", ":"+strconv.Itoa(port)); err == nil {
			fmt.Printf("Spectator feed on ws://localhost:%d/ws\n", port)
			f.lg.Infof("Launched spectator HTTP server on port %d", port)
			break
		}
	}
	if err != nil {
		return fmt.Errorf("unable to start HTTP server: %w", err)
	}

	srv := &http.Server{Handler: f.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var statsTemplate = template.Must(template.New("").Parse(`
<html>
<head>
<title>coaster status</title>
</head>
<style>
table {
  border-collapse: collapse;
}
td, th {
  border: 1px solid #dddddd;
  padding: 4px;
  text-align: left;
}
</style>
<body>
<h1>Status</h1>
<ul>
  <li>Uptime: {{.Uptime}}</li>
  <li>CPU usage: {{.CPUUsage}}%</li>
  <li>Allocated memory: {{.AllocMemory}} MB</li>
  <li>Total allocated memory: {{.TotalAllocMemory}} MB</li>
  <li>System memory: {{.SysMemory}} MB</li>
  <li>Garbage collection passes: {{.NumGC}}</li>
  <li>Running goroutines: {{.NumGoRoutines}}</li>
</ul>

<h1>Feed</h1>
<ul>
  <li>Spectators: {{.Spectators}}</li>
  <li>Updates published: {{.Published}}</li>
  <li>Spectators dropped: {{.Dropped}}</li>
</ul>

<h1>Ride</h1>
<ul>
  <li>State: {{.Ride.State}}</li>
  <li>Sim time: {{.Ride.SimTime}}</li>
  <li>Speed: {{printf "%.2f" .Ride.Motion.Speed}}</li>
  <li>Progress: {{printf "%.3f" .Ride.Motion.Progress}}</li>
  <li>Track: {{.Ride.Track.Keypoints}} keypoints, {{printf "%.1f" .Ride.Track.TotalLength}} long ({{.Ride.Track.Policy}})</li>
</ul>

<table>
<tr>
  <th>Seat</th>
  <th>Aboard</th>
  <th>Belt</th>
  <th>Sick</th>
</tr>
{{range .Ride.Passengers}}
<tr>
  <td>{{.Seat}}</td>
  <td>{{.Active}}</td>
  <td>{{.BeltOn}}</td>
  <td>{{.IsSick}}</td>
</tr>
{{end}}
</table>

</body>
</html>
`))

func (f *Feed) statsHandler(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cpuUsage := 0
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		cpuUsage = int(math.Round(float32(usage[0])))
	}

	f.mu.Lock()
	stats := serverStats{
		Uptime:           time.Since(f.startTime).Round(time.Second),
		AllocMemory:      m.Alloc / (1024 * 1024),
		TotalAllocMemory: m.TotalAlloc / (1024 * 1024),
		SysMemory:        m.Sys / (1024 * 1024),
		NumGC:            m.NumGC,
		NumGoRoutines:    runtime.NumGoroutine(),
		CPUUsage:         cpuUsage,
		Spectators:       len(f.clients),
		Published:        f.published,
		Dropped:          f.dropped,
	}
	f.mu.Unlock()

	if f.src != nil {
		stats.Ride = f.src.Snapshot()
	}

	if err := statsTemplate.Execute(w, stats); err != nil {
		f.lg.Errorf("stats template: %v", err)
	}
}
