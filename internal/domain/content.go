package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type AnnouncementPriority string

const (
	PriorityLow    AnnouncementPriority = "low"
	PriorityNormal AnnouncementPriority = "normal"
	PriorityHigh   AnnouncementPriority = "high"
)

func ParseAnnouncementPriority(raw string) (AnnouncementPriority, error) {
	switch p := AnnouncementPriority(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PriorityNormal, nil
	case PriorityLow, PriorityNormal, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("%w: priority must be low, normal or high", ErrInvalidInput)
}

type Announcement struct {
	ID        uuid.UUID            `json:"id"`
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	Priority  AnnouncementPriority `json:"priority"`
	Published bool                 `json:"published"`
	CreatedBy *uuid.UUID           `json:"created_by,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// CMSContent is a named page or block of site copy.
type CMSContent struct {
	ID        uuid.UUID  `json:"id"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Published bool       `json:"published"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func ValidateSlug(slug string) (string, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if len(slug) > 120 || !slugPattern.MatchString(slug) {
		return "", fmt.Errorf("%w: slug must be lowercase words joined by hyphens", ErrInvalidInput)
	}
	return slug, nil
}
