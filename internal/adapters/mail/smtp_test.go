package mail

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/nischalstumbeti/contestzen/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage("noreply@contestzen.test", ports.MailMessage{
		To:      "asha@example.com",
		Subject: "Your login code",
		Body:    "Your code is 123456",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Subject: Your login code")
	assert.Contains(t, raw, "<asha@example.com>")
	assert.Contains(t, raw, "Your code is 123456")
}

func TestBuildMessageRejectsBadAddress(t *testing.T) {
	_, err := buildMessage("noreply@contestzen.test", ports.MailMessage{To: "not an address"})
	assert.Error(t, err)
}

func TestNewSMTPMailerRequiresHostAndFrom(t *testing.T) {
	_, err := NewSMTPMailer(SMTPConfig{From: "a@b.c"})
	assert.Error(t, err)
	_, err = NewSMTPMailer(SMTPConfig{Host: "localhost"})
	assert.Error(t, err)
	m, err := NewSMTPMailer(SMTPConfig{Host: "localhost", From: "a@b.c"})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestLogMailerKeepsBodyOutOfInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	m := NewLogMailer(logger)

	require.NoError(t, m.Send(context.Background(), ports.MailMessage{To: "a@b.c", Subject: "code", Body: "999111"}))
	out := buf.String()
	assert.True(t, strings.Contains(out, `"to":"a@b.c"`))
	assert.NotContains(t, out, "999111")
}
