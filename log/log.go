// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides leveled key/value logging on top of go-ethereum's slog based logger.
// Loggers created by WithContext follow the handler installed by SetDefault, even when they
// are created before it, so packages can declare their logger at init time.
package log

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	gethlog "github.com/ethereum/go-ethereum/log"
)

// Logger writes key/value pairs to a Handler.
type Logger = gethlog.Logger

const (
	LevelTrace = gethlog.LevelTrace
	LevelDebug = gethlog.LevelDebug
	LevelInfo  = gethlog.LevelInfo
	LevelWarn  = gethlog.LevelWarn
	LevelError = gethlog.LevelError
	LevelCrit  = gethlog.LevelCrit
)

var current atomic.Pointer[slog.Handler]

func init() {
	h := gethlog.DiscardHandler()
	current.Store(&h)
}

// SetDefault installs the handler of l as the output of every logger.
func SetDefault(l Logger) {
	h := l.Handler()
	current.Store(&h)
	gethlog.SetDefault(l)
}

// Root returns a logger writing to the installed handler.
func Root() Logger {
	return gethlog.NewLogger(&lazyHandler{})
}

// WithContext returns a logger with the given context attached to every record.
func WithContext(ctx ...any) Logger {
	return Root().With(ctx...)
}

// NewLogger creates a logger writing to h.
func NewLogger(h slog.Handler) Logger {
	return gethlog.NewLogger(h)
}

// NewTerminalHandlerWithLevel returns a handler formatting records for humans.
func NewTerminalHandlerWithLevel(w io.Writer, lvl slog.Level, useColor bool) slog.Handler {
	return gethlog.NewTerminalHandlerWithLevel(w, lvl, useColor)
}

// NewJSONHandler returns a handler writing one JSON object per record.
func NewJSONHandler(w io.Writer, lvl slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
}

// FromLegacyLevel converts a 0 (crit) to 5 (trace) verbosity into a level.
func FromLegacyLevel(lvl int) slog.Level {
	return gethlog.FromLegacyLevel(lvl)
}

func Debug(msg string, ctx ...any) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Error(msg, ctx...) }

// lazyHandler resolves the installed handler on every record.
type lazyHandler struct {
	ops []func(slog.Handler) slog.Handler
}

func (l *lazyHandler) resolve() slog.Handler {
	h := *current.Load()
	for _, op := range l.ops {
		h = op(h)
	}
	return h
}

func (l *lazyHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return (*current.Load()).Enabled(ctx, lvl)
}

func (l *lazyHandler) Handle(ctx context.Context, r slog.Record) error {
	return l.resolve().Handle(ctx, r)
}

func (l *lazyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return l.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (l *lazyHandler) WithGroup(name string) slog.Handler {
	return l.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (l *lazyHandler) with(op func(slog.Handler) slog.Handler) slog.Handler {
	ops := make([]func(slog.Handler) slog.Handler, 0, len(l.ops)+1)
	return &lazyHandler{ops: append(append(ops, l.ops...), op)}
}
