// Copyright (c) 2023, Cogent Core. All rights reserved.
// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logx provides the user log level and a colored terminal
// handler for log/slog.
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

// UserLevel is the verbosity [slog.Level] that the user has selected for
// what logging and printing messages should be shown. Messages at
// levels at or above this level will be shown. It should typically
// be set through the command line options. By default, it is
// [slog.LevelInfo], or [slog.LevelDebug] under the "debug" build tag
// and [slog.LevelWarn] under the "release" build tag.
var UserLevel = &slog.LevelVar{}

func init() {
	UserLevel.Set(defaultUserLevel)
}

// Handler is a [slog.Handler] that writes one line per record,
// with the level name colored by severity when the output supports it.
type Handler struct {
	mu     *sync.Mutex
	out    *termenv.Output
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewHandler returns a new [Handler] writing to w, filtered by [UserLevel].
func NewHandler(w io.Writer) *Handler {
	return &Handler{mu: &sync.Mutex{}, out: termenv.NewOutput(w), level: UserLevel}
}

// SetDefault installs a [Handler] on [os.Stderr] as the default slog logger.
func SetDefault() {
	slog.SetDefault(slog.New(NewHandler(os.Stderr)))
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.levelString(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Resolve())
	}
	prefix := h.prefix()
	r.Attrs(func(a slog.Attr) bool {
		if a.Equal(slog.Attr{}) {
			return true
		}
		fmt.Fprintf(&b, " %s%s=%v", prefix, a.Key, a.Value.Resolve())
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append([]slog.Attr{}, h.attrs...)
	prefix := h.prefix()
	for _, a := range attrs {
		nh.attrs = append(nh.attrs, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}
	return &nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.groups = append(append([]string{}, h.groups...), name)
	return &nh
}

// prefix returns the dotted group prefix for attribute keys.
func (h *Handler) prefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

// levelString returns the level name styled for the terminal.
func (h *Handler) levelString(l slog.Level) string {
	s := h.out.String(l.String())
	switch {
	case l >= slog.LevelError:
		s = s.Foreground(h.out.Color("1")).Bold()
	case l >= slog.LevelWarn:
		s = s.Foreground(h.out.Color("3"))
	case l >= slog.LevelInfo:
		s = s.Foreground(h.out.Color("4"))
	default:
		s = s.Faint()
	}
	return s.String()
}
