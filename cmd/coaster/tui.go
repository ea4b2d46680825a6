// cmd/coaster/tui.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coastersim/coaster/input"
	"github.com/coastersim/coaster/log"
	"github.com/coastersim/coaster/sim"
	"github.com/coastersim/coaster/util"

	"github.com/gdamore/tcell/v2"
)

const maxMessages = 5

func runTUI(ctx context.Context, s *sim.Sim, d *input.Dispatcher, dt time.Duration, lg *log.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("error creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("error initializing screen: %w", err)
	}
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorReset).
		Foreground(tcell.ColorReset))

	// PollEvent returns nil once the screen is finalized, which ends
	// this goroutine.
	go func() {
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if e, ok := translateKey(ev); ok {
					d.Enqueue(e)
				}
			}
		}
	}()

	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	var messages []string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		msgs, quit := handleResults(d.Drain(), lg)
		if quit {
			return nil
		}
		messages = append(messages, msgs...)
		if len(messages) > maxMessages {
			messages = messages[len(messages)-maxMessages:]
		}

		s.Advance(dt)

		render(screen, s.Snapshot(), messages)
		screen.Show()
	}
}

func translateKey(ev *tcell.EventKey) (input.Event, bool) {
	switch ev.Key() {
	case tcell.KeyEnter:
		return input.Event{Key: input.KeyEnter}, true
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return input.Event{Key: input.KeyEscape}, true
	case tcell.KeyRune:
		// Terminals report shifted digits as their symbols.
		return input.RuneEvent(ev.Rune(), false), true
	default:
		return input.Event{}, false
	}
}

func render(screen tcell.Screen, u sim.StateUpdate, messages []string) {
	screen.Clear()
	width, height := screen.Size()

	styleDefault := tcell.StyleDefault
	styleHeader := tcell.StyleDefault.Bold(true).Reverse(true)
	styleHelp := tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSick := tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleError := tcell.StyleDefault.Foreground(tcell.ColorRed)

	drawText(screen, 0, 0, width, styleHeader,
		fmt.Sprintf(" %s  [%s, %d keypoints, %.1f long]", u.State, u.Track.Policy, u.Track.Keypoints, u.Track.TotalLength))

	boarding := "closed"
	if u.BoardingOpen {
		boarding = "open"
	}
	drawText(screen, 0, 2, width, styleDefault,
		fmt.Sprintf("Speed %5.2f   Progress %5.1f%%   Boarding %s", u.Motion.Speed, 100*u.Motion.Progress, boarding))
	drawText(screen, 0, 3, width, styleDefault,
		fmt.Sprintf("Position (%.1f, %.1f, %.1f)   Heading %.0f", u.Motion.Position.X(), u.Motion.Position.Y(),
			u.Motion.Position.Z(), u.Yaw))
	if u.WaitTimer > 0 {
		drawText(screen, 0, 4, width, styleDefault, fmt.Sprintf("Waiting %s", u.WaitTimer.Round(100*time.Millisecond)))
	}
	if !u.Track.Usable {
		drawText(screen, 0, 4, width, styleError, "Track is too short for the motion policy; the car will not move")
	}

	y := 6
	for _, p := range u.Passengers {
		if !p.Active {
			continue
		}
		var flags []string
		if p.BeltOn {
			flags = append(flags, "belt")
		}
		style := styleDefault
		if p.IsSick {
			flags = append(flags, "sick")
			style = styleSick
		}
		drawText(screen, 2, y, width-2, style, fmt.Sprintf("Seat %d  %s", p.Seat+1, strings.Join(flags, " ")))
		y++
	}

	var lines []string
	for _, m := range messages {
		lines = append(lines, util.WrapLines(m, width, 2)...)
	}
	y = max(y+1, height-len(lines)-2)
	for _, line := range lines {
		drawText(screen, 0, y, width, styleError, line)
		y++
	}

	drawText(screen, 0, height-1, width, styleHelp,
		"b board  1-8 belt (sick while moving)  d+N disembark  s/Enter start  q/Esc quit")
}

// drawText draws a string at the given position.
func drawText(screen tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) {
	col := 0
	for _, r := range text {
		if col >= maxWidth {
			break
		}
		screen.SetContent(x+col, y, r, nil, style)
		col++
	}
	// Fill remaining space
	for col < maxWidth {
		screen.SetContent(x+col, y, ' ', nil, style)
		col++
	}
}
