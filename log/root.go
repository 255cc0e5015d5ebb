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
	"os"
	"sync"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

func init() {
	wr, useColor := DetectTerminal(os.Stderr)
	defaultLogger = NewLogger(NewTerminalHandler(wr, useColor))
}

// Root returns the default Logger used by the package-level
// Trace/Debug/Info/Warn/Error/Crit helpers and by TraceBy/DebugBy/...
//
// Logger implementations vary in concrete type (the terminal handler, a
// file sink, a caller's own wrapper), so the default is held behind a
// mutex rather than atomic.Value, which requires every Store to share one
// concrete type.
func Root() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the default Logger, e.g. to point at a file sink
// configured by --log-file, or to silence output with DiscardHandler.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

func Trace(msg string, ctx ...any) { Root().Write(LevelTrace, msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Write(LevelDebug, msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Write(LevelInfo, msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Write(LevelWarn, msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Write(LevelError, msg, ctx...) }
func Crit(msg string, ctx ...any)  { Root().Write(LevelCrit, msg, ctx...) }
