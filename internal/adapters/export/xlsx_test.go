package export

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nischalstumbeti/contestzen/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFitCell(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantLen int
		dots    bool
	}{
		{"short", "hello", 5, false},
		{"exact", strings.Repeat("a", MaxCellChars), MaxCellChars, false},
		{"over", strings.Repeat("a", MaxCellChars+10), MaxCellChars, true},
		{"multibyte", strings.Repeat("é", MaxCellChars+1), MaxCellChars, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitCell(tt.in)
			assert.Equal(t, tt.wantLen, utf8.RuneCountInString(got))
			assert.Equal(t, tt.dots, strings.HasSuffix(got, "...") && got != tt.in)
		})
	}
}

func TestXLSXWriterWritesSheetsInOrder(t *testing.T) {
	long := strings.Repeat("x", MaxCellChars+50)
	sheets := []ports.Sheet{
		{Name: "All Users", Header: []string{"Name", "Email"}, Rows: [][]string{{"Asha", "asha@example.com"}, {"Ravi", long}}},
		{Name: "Participants", Header: []string{"Name"}, Rows: [][]string{{"Asha"}}},
		{Name: "Administrators", Header: []string{"Name"}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewXLSXWriter().Write(&buf, sheets))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"All Users", "Participants", "Administrators"}, f.GetSheetList())

	rows, err := f.GetRows("All Users")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Email"}, rows[0])
	assert.Equal(t, "asha@example.com", rows[1][1])
	assert.Len(t, rows[2][1], MaxCellChars)
	assert.True(t, strings.HasSuffix(rows[2][1], "..."))

	admins, err := f.GetRows("Administrators")
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestXLSXWriterNeedsSheets(t *testing.T) {
	assert.Error(t, NewXLSXWriter().Write(&bytes.Buffer{}, nil))
}
