package domain_test

import (
	"testing"

	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormFieldDefinitionDropsForeignRules(t *testing.T) {
	t.Parallel()

	f := domain.FormField{
		Name:   "bio",
		Label:  " Short bio ",
		Kind:   domain.FieldTextarea,
		Text:   &domain.TextRules{MaxLength: 280},
		Choice: &domain.ChoiceRules{Options: []string{"a"}},
	}
	require.NoError(t, f.ValidateDefinition())
	assert.Equal(t, "Short bio", f.Label)
	assert.Nil(t, f.Choice)
	assert.NotNil(t, f.Text)

	bad := domain.FormField{Name: "code", Label: "Code", Kind: domain.FieldText, Text: &domain.TextRules{Pattern: "("}}
	require.ErrorIs(t, bad.ValidateDefinition(), domain.ErrInvalidInput)

	dup := domain.FormField{Name: "track", Label: "Track", Kind: domain.FieldRadio, Choice: &domain.ChoiceRules{Options: []string{"a", "a"}}}
	require.ErrorIs(t, dup.ValidateDefinition(), domain.ErrInvalidInput)
}

func TestFormFieldAnswers(t *testing.T) {
	t.Parallel()

	minYears, maxYears := 0.0, 50.0
	fields := []domain.FormField{
		{Name: "handle", Label: "Handle", Kind: domain.FieldText, Required: true, Active: true, Text: &domain.TextRules{MinLength: 3, Pattern: `^[a-z0-9]+$`}},
		{Name: "contact", Label: "Contact", Kind: domain.FieldEmail, Active: true},
		{Name: "years", Label: "Years", Kind: domain.FieldNumber, Active: true, Number: &domain.NumberRules{Min: &minYears, Max: &maxYears}},
		{Name: "topics", Label: "Topics", Kind: domain.FieldCheckbox, Active: true, Choice: &domain.ChoiceRules{Options: []string{"ai", "web"}}},
		{Name: "consent", Label: "Consent", Kind: domain.FieldCheckbox, Required: true, Active: true},
		{Name: "dob", Label: "Date of birth", Kind: domain.FieldDate, Active: true},
		{Name: "retired", Label: "Retired", Kind: domain.FieldText, Required: true, Active: false},
	}
	valid := map[string]any{
		"handle":  "neo42",
		"contact": "neo@example.com",
		"years":   float64(7),
		"topics":  []any{"ai"},
		"consent": true,
		"dob":     "1999-12-31",
		"extra":   "ignored",
	}

	clean, err := domain.ValidateAnswers(fields, valid)
	require.NoError(t, err)
	assert.NotContains(t, clean, "extra")
	assert.Len(t, clean, 6)

	cases := map[string]map[string]any{
		"missing required": {"consent": true},
		"too short":        {"handle": "ab", "consent": true},
		"pattern":          {"handle": "Neo_42", "consent": true},
		"bad email":        {"handle": "neo42", "contact": "nope", "consent": true},
		"above max":        {"handle": "neo42", "years": "51", "consent": true},
		"unknown option":   {"handle": "neo42", "topics": []any{"mobile"}, "consent": true},
		"unchecked":        {"handle": "neo42", "consent": false},
		"bad date":         {"handle": "neo42", "consent": true, "dob": "31/12/1999"},
	}
	for name, answers := range cases {
		_, err := domain.ValidateAnswers(fields, answers)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}
}
