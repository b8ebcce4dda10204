package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"

	"github.com/fatih/color"
)

// consoleHandler prints one coloured line per record for interactive operator use.
type consoleHandler struct {
	l     *log.Logger
	level slog.Level
	attrs []slog.Attr
}

func newConsoleHandler(out io.Writer, level slog.Level) *consoleHandler {
	return &consoleHandler{l: log.New(out, "", 0), level: level}
}

func (c *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.HiBlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	var b strings.Builder
	write := func(a slog.Attr) bool {
		b.WriteString(color.GreenString(a.Key))
		b.WriteString("=")
		b.WriteString(fmt.Sprint(a.Value.Any()))
		b.WriteString(" ")
		return true
	}
	for _, a := range c.attrs {
		write(a)
	}
	r.Attrs(write)

	c.l.Println(r.Time.Format("15:04:05.000"), level, r.Message, b.String())
	return nil
}

func (c *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *c
	next.attrs = append(append([]slog.Attr{}, c.attrs...), attrs...)
	return &next
}

func (c *consoleHandler) WithGroup(_ string) slog.Handler {
	return c
}

func (c *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= c.level
}
