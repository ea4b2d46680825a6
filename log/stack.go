// log/stack.go
// Copyright(c) 2025 coaster contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

const modulePrefix = "github.com/coastersim/coaster/"

// Maximum number of frames recorded per log record.
const maxStackDepth = 12

// StackFrame is a single caller recorded with a log message or a held
// mutex. Function names are relative to the coaster module.
type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

// Callstack records the callers of the function that called it,
// reusing the storage in fr when it is large enough. Frames stop at
// main.main or at the first goroutine entry point outside the module,
// so driver loops and test harness frames aren't included.
func Callstack(fr []StackFrame) []StackFrame {
	var pcs [maxStackDepth]uintptr
	// Skip runtime.Callers, Callstack, and the logging method.
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	fr = fr[:0]
	for {
		frame, more := frames.Next()
		if frame.Function == "" {
			break
		}
		fn, inModule := strings.CutPrefix(frame.Function, modulePrefix)
		if !inModule && len(fr) > 0 && !strings.HasPrefix(fn, "main.") {
			break
		}

		fr = append(fr, StackFrame{
			File:     filepath.Base(frame.File),
			Line:     frame.Line,
			Function: fn,
		})
		if !more || frame.Function == "main.main" {
			break
		}
	}
	return fr
}

func (f StackFrame) String() string {
	return fmt.Sprintf("%s:%d %s", f.File, f.Line, f.Function)
}

func (f StackFrame) LogValue() slog.Value {
	return slog.StringValue(f.String())
}
