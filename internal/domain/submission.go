package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SubmissionType string

const (
	SubmissionFile      SubmissionType = "file"
	SubmissionDriveLink SubmissionType = "drive_link"
)

type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusApproved  SubmissionStatus = "approved"
	StatusRejected  SubmissionStatus = "rejected"
	StatusCancelled SubmissionStatus = "cancelled"
)

func ParseSubmissionStatus(raw string) (SubmissionStatus, error) {
	s := SubmissionStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("%w: status must be one of pending, approved, rejected, cancelled", ErrInvalidInput)
	}
}

func (s SubmissionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// TransitionPolicy selects how strictly administrators may move a submission between states.
type TransitionPolicy string

const (
	// TransitionPermissive allows any status to any status.
	TransitionPermissive TransitionPolicy = "permissive"
	// TransitionForwardOnly allows only pending -> terminal.
	TransitionForwardOnly TransitionPolicy = "forward_only"
)

func ParseTransitionPolicy(raw string) (TransitionPolicy, error) {
	p := TransitionPolicy(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case "":
		return TransitionPermissive, nil
	case TransitionPermissive, TransitionForwardOnly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown transition policy %q", ErrInvalidInput, raw)
	}
}

// CanTransition reports whether from -> to is allowed under the policy.
// Re-selecting the current status is always allowed.
func (p TransitionPolicy) CanTransition(from, to SubmissionStatus) bool {
	if from == to {
		return true
	}
	if p == TransitionForwardOnly {
		return from == StatusPending && to.Terminal()
	}
	return true
}

// Submission is the single contest entry of a participant.
type Submission struct {
	ID              uuid.UUID
	ParticipantID   uuid.UUID
	Type            SubmissionType
	Payload         string
	FileName        string
	MimeType        string
	SizeBytes       int64
	Description     string
	Status          SubmissionStatus
	AdminNotes      string
	InternalRemarks string
	ReviewedBy      *uuid.UUID
	ReviewedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidateDriveLink only checks URL syntax; reachability is not verified.
func ValidateDriveLink(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: drive_link must be an http(s) URL", ErrInvalidInput)
	}
	return trimmed, nil
}
