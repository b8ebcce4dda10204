package export

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/nischalstumbeti/contestzen/internal/ports"
	"github.com/xuri/excelize/v2"
)

// MaxCellChars is the per-cell text limit of the xlsx format.
const MaxCellChars = excelize.TotalCellChars

const ellipsis = "..."

// XLSXWriter renders sheets into an Excel workbook using excelize stream writers.
type XLSXWriter struct{}

func NewXLSXWriter() *XLSXWriter { return &XLSXWriter{} }

func (XLSXWriter) Write(w io.Writer, sheets []ports.Sheet) (err error) {
	if len(sheets) == 0 {
		return errors.New("workbook needs at least one sheet")
	}
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet, headerStyle); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet ports.Sheet, headerStyle int) error {
	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return fmt.Errorf("stream writer %q: %w", sheet.Name, err)
	}

	header := make([]any, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: FitCell(h)}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("header row %q: %w", sheet.Name, err)
	}

	for r, row := range sheet.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = FitCell(v)
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, cells); err != nil {
			return fmt.Errorf("row %d of %q: %w", r+2, sheet.Name, err)
		}
	}
	return sw.Flush()
}

// FitCell truncates text over MaxCellChars and appends "..." so the result is exactly the limit.
func FitCell(v string) string {
	if utf8.RuneCountInString(v) <= MaxCellChars {
		return v
	}
	runes := []rune(v)
	return string(runes[:MaxCellChars-len(ellipsis)]) + ellipsis
}
