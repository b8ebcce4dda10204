package domain

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldEmail    FieldKind = "email"
	FieldNumber   FieldKind = "number"
	FieldSelect   FieldKind = "select"
	FieldRadio    FieldKind = "radio"
	FieldCheckbox FieldKind = "checkbox"
	FieldDate     FieldKind = "date"
)

var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// TextRules applies to text, textarea and email fields.
type TextRules struct {
	MinLength int    `json:"min_length,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
}

// NumberRules applies to number fields.
type NumberRules struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ChoiceRules applies to select, radio and checkbox fields.
type ChoiceRules struct {
	Options []string `json:"options,omitempty"`
}

// FormField is an administrator-defined registration field. Exactly one of the rule blocks is
// meaningful, selected by Kind.
type FormField struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Label       string       `json:"label"`
	Kind        FieldKind    `json:"kind"`
	Placeholder string       `json:"placeholder,omitempty"`
	HelpText    string       `json:"help_text,omitempty"`
	Required    bool         `json:"required"`
	Active      bool         `json:"active"`
	SortOrder   int          `json:"sort_order"`
	Text        *TextRules   `json:"text,omitempty"`
	Number      *NumberRules `json:"number,omitempty"`
	Choice      *ChoiceRules `json:"choice,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ValidateDefinition checks the field against the fixed schema for its kind and drops rule
// blocks that do not belong to it.
func (f *FormField) ValidateDefinition() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Label = strings.TrimSpace(f.Label)
	if !fieldNamePattern.MatchString(f.Name) {
		return fmt.Errorf("%w: field name must be snake_case starting with a letter", ErrInvalidInput)
	}
	if f.Label == "" {
		return fmt.Errorf("%w: field label is required", ErrInvalidInput)
	}
	switch f.Kind {
	case FieldText, FieldTextarea, FieldEmail:
		f.Number, f.Choice = nil, nil
		if f.Text != nil {
			if f.Text.MinLength < 0 || f.Text.MaxLength < 0 {
				return fmt.Errorf("%w: length limits must not be negative", ErrInvalidInput)
			}
			if f.Text.MaxLength > 0 && f.Text.MinLength > f.Text.MaxLength {
				return fmt.Errorf("%w: min_length exceeds max_length", ErrInvalidInput)
			}
			if f.Text.Pattern != "" {
				if _, err := regexp.Compile(f.Text.Pattern); err != nil {
					return fmt.Errorf("%w: pattern is not a valid regular expression", ErrInvalidInput)
				}
			}
		}
	case FieldNumber:
		f.Text, f.Choice = nil, nil
		if f.Number != nil && f.Number.Min != nil && f.Number.Max != nil && *f.Number.Min > *f.Number.Max {
			return fmt.Errorf("%w: min exceeds max", ErrInvalidInput)
		}
	case FieldSelect, FieldRadio:
		f.Text, f.Number = nil, nil
		if f.Choice == nil || len(f.Choice.Options) == 0 {
			return fmt.Errorf("%w: %s fields require options", ErrInvalidInput, f.Kind)
		}
		if err := checkOptions(f.Choice.Options); err != nil {
			return err
		}
	case FieldCheckbox:
		f.Text, f.Number = nil, nil
		if f.Choice != nil {
			if err := checkOptions(f.Choice.Options); err != nil {
				return err
			}
		}
	case FieldDate:
		f.Text, f.Number, f.Choice = nil, nil, nil
	default:
		return fmt.Errorf("%w: unknown field kind %q", ErrInvalidInput, f.Kind)
	}
	return nil
}

func checkOptions(options []string) error {
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("%w: options must not be blank", ErrInvalidInput)
		}
		if _, dup := seen[o]; dup {
			return fmt.Errorf("%w: duplicate option %q", ErrInvalidInput, o)
		}
		seen[o] = struct{}{}
	}
	return nil
}

// ValidateAnswer checks a single submitted value. A nil value is only accepted for optional fields.
func (f FormField) ValidateAnswer(value any) error {
	if isBlank(value) {
		if f.Required {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.Label)
		}
		return nil
	}
	switch f.Kind {
	case FieldText, FieldTextarea, FieldEmail:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be text", ErrInvalidInput, f.Label)
		}
		if f.Kind == FieldEmail {
			if _, err := mail.ParseAddress(s); err != nil {
				return fmt.Errorf("%w: %s must be an email address", ErrInvalidInput, f.Label)
			}
		}
		if f.Text != nil {
			n := len([]rune(s))
			if f.Text.MinLength > 0 && n < f.Text.MinLength {
				return fmt.Errorf("%w: %s is too short", ErrInvalidInput, f.Label)
			}
			if f.Text.MaxLength > 0 && n > f.Text.MaxLength {
				return fmt.Errorf("%w: %s is too long", ErrInvalidInput, f.Label)
			}
			if f.Text.Pattern != "" && !regexp.MustCompile(f.Text.Pattern).MatchString(s) {
				return fmt.Errorf("%w: %s has an invalid format", ErrInvalidInput, f.Label)
			}
		}
	case FieldNumber:
		n, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("%w: %s must be a number", ErrInvalidInput, f.Label)
		}
		if f.Number != nil {
			if f.Number.Min != nil && n < *f.Number.Min {
				return fmt.Errorf("%w: %s is below the minimum", ErrInvalidInput, f.Label)
			}
			if f.Number.Max != nil && n > *f.Number.Max {
				return fmt.Errorf("%w: %s is above the maximum", ErrInvalidInput, f.Label)
			}
		}
	case FieldSelect, FieldRadio:
		s, ok := value.(string)
		if !ok || !f.hasOption(s) {
			return fmt.Errorf("%w: %s must be one of the listed options", ErrInvalidInput, f.Label)
		}
	case FieldCheckbox:
		if f.Choice == nil || len(f.Choice.Options) == 0 {
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("%w: %s must be true or false", ErrInvalidInput, f.Label)
			}
			if f.Required && value == false {
				return fmt.Errorf("%w: %s must be checked", ErrInvalidInput, f.Label)
			}
			return nil
		}
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%w: %s must be a list of options", ErrInvalidInput, f.Label)
		}
		for _, item := range items {
			s, ok := item.(string)
			if !ok || !f.hasOption(s) {
				return fmt.Errorf("%w: %s contains an unknown option", ErrInvalidInput, f.Label)
			}
		}
	case FieldDate:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a date", ErrInvalidInput, f.Label)
		}
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return fmt.Errorf("%w: %s must be formatted YYYY-MM-DD", ErrInvalidInput, f.Label)
		}
	}
	return nil
}

func (f FormField) hasOption(v string) bool {
	if f.Choice == nil {
		return false
	}
	for _, o := range f.Choice.Options {
		if o == v {
			return true
		}
	}
	return false
}

// ValidateAnswers checks answers against the active fields and strips keys no active field declares.
func ValidateAnswers(fields []FormField, answers map[string]any) (map[string]any, error) {
	clean := make(map[string]any, len(fields))
	for _, f := range fields {
		if !f.Active {
			continue
		}
		v := answers[f.Name]
		if err := f.ValidateAnswer(v); err != nil {
			return nil, err
		}
		if !isBlank(v) {
			clean[f.Name] = v
		}
	}
	return clean, nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}
