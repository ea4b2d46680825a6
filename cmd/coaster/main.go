// cmd/coaster/main.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// This file contains the implementation of the main() function, which
// loads the track and configuration, creates the simulation, and then
// hands off to one of the drivers (window, terminal, or scripted).

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/coastersim/coaster/input"
	"github.com/coastersim/coaster/log"
	"github.com/coastersim/coaster/motion"
	"github.com/coastersim/coaster/server"
	"github.com/coastersim/coaster/sim"
	"github.com/coastersim/coaster/track"

	"github.com/apenwarr/fixconsole"
	"golang.org/x/sync/errgroup"
)

var (
	trackFilename  = flag.String("track", "resources/tracks/loop.obj", "OBJ file with the track mesh (may be .zst compressed)")
	configFilename = flag.String("config", "", "JSON file with ride settings")
	policyName     = flag.String("policy", "", "motion policy: arclength, seek, or spline (overrides the config file)")
	logLevel       = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir         = flag.String("logdir", "", "log file directory")
	runSim         = flag.Int("runsim", 0, "run a scripted ride without a UI for the given number of steps")
	useTUI         = flag.Bool("tui", false, "run in the terminal rather than opening a window")
	serve          = flag.Bool("serve", false, "publish the ride state to websocket spectators")
	port           = flag.Int("port", server.DefaultPort, "first port to try for the spectator server")
	noCache        = flag.Bool("nocache", false, "always rebuild the track rather than using the disk cache")
	dump           = flag.Bool("dump", false, "print the final ride state before exiting")
	stepRate       = flag.Int("hz", 60, "simulation steps per second")
)

func init() {
	// OpenGL and friends require that all calls be made from the primary
	// application thread, while by default, go allows the main thread to
	// run on different hardware threads over the course of
	// execution. Therefore, we must lock the main thread at startup time.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	// Initialize the logging system first and foremost.
	lg := log.New(*logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	path := loadTrack(*trackFilename, config.Reduce, !*noCache, lg)

	s, err := sim.NewSim(path, config, lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer s.Destroy()

	if *stepRate <= 0 {
		fmt.Fprintf(os.Stderr, "%d: -hz must be positive\n", *stepRate)
		os.Exit(1)
	}
	dt := time.Second / time.Duration(*stepRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)

	if *serve {
		feed := server.NewFeed(s, lg)
		eg.Go(func() error { return feed.Serve(ctx, *port) })
		eg.Go(func() error { return feed.Run(ctx, 100*time.Millisecond) })
	}

	dispatcher := input.NewDispatcher(s, lg)

	switch {
	case *runSim > 0:
		err = runScripted(ctx, s, dispatcher, *runSim, dt, lg)
	case *useTUI:
		err = runTUI(ctx, s, dispatcher, dt, lg)
	default:
		err = runWindow(ctx, s, path, dispatcher, dt, lg)
	}
	if err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}

	cancel()
	werr := eg.Wait()
	if werr != nil {
		lg.Errorf("%v", werr)
		fmt.Fprintf(os.Stderr, "%v\n", werr)
	}

	if *dump {
		fmt.Println(s.Dump())
	}
	if err != nil || werr != nil {
		os.Exit(1)
	}
}

func loadConfig() (sim.Config, error) {
	config := sim.DefaultConfig()
	if *configFilename != "" {
		var err error
		if config, err = sim.LoadConfig(*configFilename); err != nil {
			return config, err
		}
	}

	if *policyName != "" {
		if !motion.ValidPolicy(*policyName) {
			return config, fmt.Errorf("%s: unknown motion policy; expected one of %v", *policyName, motion.PolicyNames())
		}
		config.Policy = *policyName
	}
	return config, nil
}

// loadTrack builds the path for the OBJ file at filename. Failures are
// logged and give an empty path, which leaves the car parked.
func loadTrack(filename string, opts track.ReduceOptions, useCache bool, lg *log.Logger) *track.Path {
	if useCache {
		return track.NewLibrary(true, lg).Load(filename, opts)
	}

	points := track.LoadPoints(filename, lg)
	p := track.Build(points, opts)
	lg.Info("built track", slog.String("path", filename), slog.Any("track", p))
	return p
}

// handleResults logs the outcome of dispatched key presses and returns
// messages for rejected commands along with whether quit was requested.
func handleResults(results []input.Result, lg *log.Logger) (messages []string, quit bool) {
	for _, r := range results {
		if r.Quit {
			quit = true
			continue
		}
		if r.Err != nil {
			lg.Info("command rejected", slog.Any("result", r))
			if r.Seat >= 0 {
				messages = append(messages, fmt.Sprintf("%s seat %d: %v", r.Command, r.Seat+1, r.Err))
			} else {
				messages = append(messages, fmt.Sprintf("%s: %v", r.Command, r.Err))
			}
		} else {
			lg.Debug("command", slog.Any("result", r))
		}
	}
	return
}
