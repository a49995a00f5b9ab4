// pkg/log/stack.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const maxStackDepth = 16

type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) String() string {
	return f.File + ":" + strconv.Itoa(f.Line) + ":" + f.Function
}

// Callstack is the chain of callers leading to a log call, innermost first.
type Callstack []StackFrame

// CaptureCallstack records the callers of the function that calls it,
// skipping skip additional frames.
func CaptureCallstack(skip int) Callstack {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(2+skip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	cs := make(Callstack, 0, n)
	for {
		frame, more := frames.Next()
		if stackRoot(frame.Function) {
			break
		}
		fn := strings.TrimPrefix(frame.Function, "github.com/mmp/manualcontrol/pkg/")
		cs = append(cs, StackFrame{
			File:     filepath.Base(frame.File),
			Line:     frame.Line,
			Function: strings.TrimPrefix(fn, "main."),
		})
		if !more || frame.Function == "main.main" {
			break
		}
	}
	return cs
}

// stackRoot reports whether a frame belongs to the goroutine machinery
// below the application's own code.
func stackRoot(fn string) bool {
	return fn == "" || strings.HasPrefix(fn, "runtime.") ||
		strings.HasPrefix(fn, "golang.org/x/sync/errgroup.") || strings.HasPrefix(fn, "testing.")
}

func (cs Callstack) LogValue() slog.Value {
	s := make([]string, len(cs))
	for i, f := range cs {
		s[i] = f.String()
	}
	return slog.AnyValue(s)
}

// callstackAttr is called directly from the Logger methods; the frames
// for it and the method are skipped.
func callstackAttr() slog.Attr {
	return slog.Any("callstack", CaptureCallstack(2))
}
