// Copyright 2019 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-stack/stack"
	colorable "github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/exp/slog"
)

var levelColor = map[slog.Level]int{
	LevelCrit:  35, // magenta
	LevelError: 31, // red
	LevelWarn:  33, // yellow
	LevelInfo:  32, // green
	LevelDebug: 36, // cyan
	LevelTrace: 90, // gray
}

// terminalHandler formats records the way a developer reading a live
// terminal wants them: level, message, then "key=value" pairs, colorized
// when the destination is a real terminal.
type terminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	useColor bool
	minLevel slog.Level
	attrs    []slog.Attr
}

// NewTerminalHandler returns a slog.Handler tuned for human eyes. useColor
// should normally be set from DetectTerminal(wr).
func NewTerminalHandler(wr io.Writer, useColor bool) slog.Handler {
	return &terminalHandler{wr: wr, useColor: useColor, minLevel: LevelInfo}
}

// DetectTerminal reports whether f is an interactive terminal that
// supports ANSI color, wrapping it in a colorable writer on Windows so
// escape codes render instead of leaking through as text.
func DetectTerminal(f *os.File) (io.Writer, bool) {
	if !isatty.IsTerminal(f.Fd()) {
		return f, false
	}
	return colorable.NewColorable(f), true
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel
}

func (h *terminalHandler) SetLevel(level slog.Level) { h.minLevel = level }

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	b.WriteString(r.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	h.writeLevel(&b, r.Level)
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "caller" {
			if call, ok := a.Value.Any().(stack.Call); ok {
				fmt.Fprintf(&b, " caller=%+v", call)
				return true
			}
		}
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Any())
		return true
	})
	b.WriteByte('\n')

	_, err := io.WriteString(h.wr, b.String())
	return err
}

func (h *terminalHandler) writeLevel(b *strings.Builder, level slog.Level) {
	name, ok := levelNames[level]
	if !ok {
		name = level.String()
	}
	if !h.useColor {
		b.WriteString(name)
		return
	}
	color := levelColor[level]
	if color == 0 {
		color = 37
	}
	fmt.Fprintf(b, "\x1b[%dm%s\x1b[0m", color, name)
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Logger.With reaches here through slog.Logger.With: the bound
	// attributes are kept on a copy of the handler and written before each
	// record's own attributes.
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(append(merged, h.attrs...), attrs...)
	return &terminalHandler{wr: h.wr, useColor: h.useColor, minLevel: h.minLevel, attrs: merged}
}

func (h *terminalHandler) WithGroup(name string) slog.Handler { return h }

// DiscardHandler silences logging entirely; useful for tests and library
// callers that supply their own Logger.
func DiscardHandler() slog.Handler { return discardHandler{} }

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
