package domain_test

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionPolicies(t *testing.T) {
	t.Parallel()

	cases := []struct {
		policy   domain.TransitionPolicy
		from, to domain.SubmissionStatus
		want     bool
	}{
		{domain.TransitionPermissive, domain.StatusApproved, domain.StatusPending, true},
		{domain.TransitionPermissive, domain.StatusRejected, domain.StatusApproved, true},
		{domain.TransitionForwardOnly, domain.StatusPending, domain.StatusApproved, true},
		{domain.TransitionForwardOnly, domain.StatusPending, domain.StatusCancelled, true},
		{domain.TransitionForwardOnly, domain.StatusApproved, domain.StatusRejected, false},
		{domain.TransitionForwardOnly, domain.StatusRejected, domain.StatusPending, false},
		{domain.TransitionForwardOnly, domain.StatusApproved, domain.StatusApproved, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.policy.CanTransition(tc.from, tc.to), "%s %s->%s", tc.policy, tc.from, tc.to)
	}

	p, err := domain.ParseTransitionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionPermissive, p)
	_, err = domain.ParseTransitionPolicy("strict")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseDataURI(t *testing.T) {
	t.Parallel()

	payload := base64.StdEncoding.EncodeToString([]byte("hello world"))
	got, err := domain.ParseDataURI("data:application/pdf;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, domain.DataURI{MimeType: "application/pdf", SizeBytes: 11}, got)

	for _, raw := range []string{
		"hello",
		"data:application/pdf," + payload,
		"data:application/pdf;base64,!!!",
		"data:application/pdf;base64,",
	} {
		_, err := domain.ParseDataURI(raw)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), raw)
	}
}

func TestValidateDriveLink(t *testing.T) {
	t.Parallel()

	link, err := domain.ValidateDriveLink("  https://drive.example.com/file/d/abc  ")
	require.NoError(t, err)
	assert.Equal(t, "https://drive.example.com/file/d/abc", link)

	for _, raw := range []string{"", "drive.example.com/abc", "ftp://files.example.com/a", "https://"} {
		_, err := domain.ValidateDriveLink(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, raw)
	}
}

func TestSubmissionGateOpen(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	gate := domain.DefaultSubmissionControl()
	assert.True(t, gate.Open(now))

	past := now.Add(-time.Minute)
	gate.Deadline = &past
	assert.False(t, gate.Open(now))

	future := now.Add(time.Hour)
	gate.Deadline = &future
	assert.True(t, gate.Open(now))

	gate.Enabled = false
	assert.False(t, gate.Open(now))
}

func TestGateErrorUnwraps(t *testing.T) {
	t.Parallel()

	err := error(&domain.GateError{Err: domain.ErrSubmissionClosed, Message: "Back in June."})
	assert.ErrorIs(t, err, domain.ErrSubmissionClosed)
	assert.Equal(t, "submissions are closed: Back in June.", err.Error())
	assert.Equal(t, "registration is closed", (&domain.GateError{Err: domain.ErrRegistrationClosed}).Error())
}
