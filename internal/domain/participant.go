package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

// ProfessionOther requires the free-text profession_other field.
const ProfessionOther = "other"

// Participant is the contestant identity aggregate.
type Participant struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Profession      string
	ProfessionOther string
	Gender          Gender
	Age             *int
	ContestType     string
	PhotoURL        string
	LoginEnabled    bool
	UploadEnabled   bool
	AuthUserID      *uuid.UUID
	ExtraFields     map[string]any
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func ParseGender(raw string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(raw)))
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return g, nil
	default:
		return "", fmt.Errorf("%w: gender must be one of male, female, other, prefer_not_to_say", ErrInvalidInput)
	}
}

func ValidateAge(age *int) error {
	if age == nil {
		return nil
	}
	if *age < 1 || *age > 120 {
		return fmt.Errorf("%w: age must be between 1 and 120", ErrInvalidInput)
	}
	return nil
}

// ValidateProfession enforces that "other" professions carry a description.
func ValidateProfession(profession, other string) error {
	if strings.TrimSpace(profession) == "" {
		return fmt.Errorf("%w: profession is required", ErrInvalidInput)
	}
	if strings.EqualFold(strings.TrimSpace(profession), ProfessionOther) && strings.TrimSpace(other) == "" {
		return fmt.Errorf("%w: profession_other is required when profession is other", ErrInvalidInput)
	}
	return nil
}

// ParticipantMutation is an audit record of a participant change.
type ParticipantMutation struct {
	ID            uuid.UUID
	ParticipantID uuid.UUID
	ActorID       uuid.UUID
	ActorKind     SubjectKind
	Before        map[string]any
	After         map[string]any
	ChangedFields []string
	CreatedAt     time.Time
}
