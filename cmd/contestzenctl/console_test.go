package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestConsoleHandlerFormatsAttrs(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, slog.LevelInfo)).With("service", "contestzen")
	logger.Debug("hidden")
	logger.Warn("schema drift", "table", "participants")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN:")
	assert.Contains(t, out, "schema drift")
	assert.Contains(t, out, "service=contestzen")
	assert.Contains(t, out, "table=participants")
}
