// platform/glfw.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package platform provides a minimal GLFW window that shows a top-down
// view of the ride and forwards key presses to the input dispatcher.
package platform

import (
	"fmt"
	"runtime"

	"github.com/coastersim/coaster/input"
	"github.com/coastersim/coaster/log"
	"github.com/coastersim/coaster/math"
	"github.com/coastersim/coaster/ride"
	"github.com/coastersim/coaster/sim"
	"github.com/coastersim/coaster/track"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

type Config struct {
	InitialWindowSize     [2]int
	InitialWindowPosition [2]int

	EnableMSAA bool
}

// Window must only be used from the goroutine that created it, which
// must be locked to its OS thread.
type Window struct {
	window *glfw.Window
	config *Config
	onKey  func(input.Event)
	lg     *log.Logger

	// Transform from track x/z to normalized device coordinates.
	center mgl32.Vec2
	scale  float32

	title string
}

// New opens a window; key presses are passed to onKey.
func New(config *Config, onKey func(input.Event), lg *log.Logger) (*Window, error) {
	lg.Info("Starting GLFW initialization")
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	lg.Infof("GLFW: %s", glfw.GetVersionString())

	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	vm := glfw.GetPrimaryMonitor().GetVideoMode()
	if config.InitialWindowSize[0] == 0 || config.InitialWindowSize[1] == 0 {
		if runtime.GOOS == "windows" {
			config.InitialWindowSize[0] = vm.Width - 200
			config.InitialWindowSize[1] = vm.Height - 300
		} else {
			config.InitialWindowSize[0] = vm.Width - 150
			config.InitialWindowSize[1] = vm.Height - 150
		}
	}
	// If window position is out of bounds, create the window at (100, 100)
	if config.InitialWindowPosition[0] <= 0 || config.InitialWindowPosition[1] <= 0 ||
		config.InitialWindowPosition[0] > vm.Width || config.InitialWindowPosition[1] > vm.Height {
		config.InitialWindowPosition = [2]int{100, 100}
	}

	// Start with an invisible window so that we can position it first
	glfw.WindowHint(glfw.Visible, 0)
	if config.EnableMSAA {
		glfw.WindowHint(glfw.Samples, 4)
	}

	window, err := glfw.CreateWindow(config.InitialWindowSize[0], config.InitialWindowSize[1], "coaster", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.SetPos(config.InitialWindowPosition[0], config.InitialWindowPosition[1])
	window.Show()
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	lg.Infof("OpenGL: %s", gl.GoStr(gl.GetString(gl.VERSION)))

	w := &Window{
		window: window,
		config: config,
		onKey:  onKey,
		lg:     lg,
		scale:  1,
	}
	window.SetKeyCallback(w.keyCallback)
	glfw.SwapInterval(1)

	lg.Info("Finished GLFW initialization")

	return w, nil
}

func (w *Window) keyCallback(window *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if e, ok := TranslateKey(key, mods); ok && w.onKey != nil {
		w.onKey(e)
	}
}

// TranslateKey maps a GLFW key press to an input.Event.
func TranslateKey(key glfw.Key, mods glfw.ModifierKey) (input.Event, bool) {
	shift := mods&glfw.ModShift != 0
	switch {
	case key == glfw.KeyEscape:
		return input.Event{Key: input.KeyEscape}, true
	case key == glfw.KeyEnter || key == glfw.KeyKPEnter:
		return input.Event{Key: input.KeyEnter}, true
	case key >= glfw.Key0 && key <= glfw.Key9:
		return input.RuneEvent(rune('0'+key-glfw.Key0), shift), true
	case key >= glfw.KeyKP0 && key <= glfw.KeyKP9:
		return input.RuneEvent(rune('0'+key-glfw.KeyKP0), shift), true
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		return input.RuneEvent(rune('a'+key-glfw.KeyA), shift), true
	default:
		return input.Event{}, false
	}
}

func (w *Window) ShouldStop() bool {
	return w.window.ShouldClose()
}

// ProcessEvents handles pending window events, which may invoke the key
// callback.
func (w *Window) ProcessEvents() {
	glfw.PollEvents()
}

// SetTrack fits the view to the given path.
func (w *Window) SetTrack(p *track.Path) {
	if p.Len() == 0 {
		w.center, w.scale = mgl32.Vec2{}, 1
		return
	}

	lo := mgl32.Vec2{p.Points[0].X(), p.Points[0].Z()}
	hi := lo
	for _, pt := range p.Points {
		lo = mgl32.Vec2{math.Min(lo[0], pt.X()), math.Min(lo[1], pt.Z())}
		hi = mgl32.Vec2{math.Max(hi[0], pt.X()), math.Max(hi[1], pt.Z())}
	}
	w.center = lo.Add(hi).Mul(0.5)
	extent := math.Max(hi[0]-lo[0], hi[1]-lo[1])
	if extent > 0 {
		w.scale = 1.8 / extent
	}
}

func (w *Window) project(p mgl32.Vec3) (float32, float32) {
	return (p.X() - w.center[0]) * w.scale, (p.Z() - w.center[1]) * w.scale
}

// StateColor returns the background color used for each ride state.
func StateColor(s ride.State) [3]float32 {
	switch s {
	case ride.Moving:
		return [3]float32{0.1, 0.25, 0.1}
	case ride.SlowingDown:
		return [3]float32{0.3, 0.25, 0.05}
	case ride.Waiting:
		return [3]float32{0.3, 0.1, 0.1}
	case ride.Returning:
		return [3]float32{0.1, 0.1, 0.3}
	default:
		return [3]float32{0.12, 0.12, 0.12}
	}
}

// Title returns the window title for the given state; message, if
// non-empty, is the most recent feedback for the operator.
func Title(u sim.StateUpdate, message string) string {
	aboard := 0
	for _, p := range u.Passengers {
		if p.Active {
			aboard++
		}
	}
	title := fmt.Sprintf("coaster: %s, %d aboard", u.State, aboard)
	if u.BoardingOpen {
		title += ", boarding"
	}
	if message != "" {
		title += " | " + message
	}
	return title
}

// Render draws the track and car from above and shows the ride state
// and message in the title bar.
func (w *Window) Render(p *track.Path, u sim.StateUpdate, message string) {
	if t := Title(u, message); t != w.title {
		w.window.SetTitle(t)
		w.title = t
	}

	fbw, fbh := w.window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fbw), int32(fbh))

	c := StateColor(u.State)
	gl.ClearColor(c[0], c[1], c[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.Color3f(0.8, 0.8, 0.8)
	gl.Begin(gl.LINE_LOOP)
	for _, pt := range p.Points {
		gl.Vertex2f(w.project(pt))
	}
	gl.End()

	if u.Track.Usable {
		car := u.Motion.Position
		gl.PointSize(10)
		gl.Begin(gl.POINTS)
		gl.Color3f(1, 0.8, 0.2)
		gl.Vertex2f(w.project(car))
		gl.End()

		tip := car.Add(u.Motion.Forward.Mul(1 / w.scale * 0.05))
		gl.Begin(gl.LINES)
		gl.Vertex2f(w.project(car))
		gl.Vertex2f(w.project(tip))
		gl.End()
	}

	w.window.SwapBuffers()
}

func (w *Window) Dispose() {
	w.window.Destroy()
	glfw.Terminate()
}
