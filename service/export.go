package service

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/tealeg/xlsx/v2"

	"github.com/amarkiccha/lead/model"
	"github.com/amarkiccha/lead/pkg/datetime"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	exportSheetName = "Leads"
)

var exportHeader = []string{"Name", "Project", "Phone", "Date", "Time"}

// WriteXLSX writes leads as a single-sheet workbook with display-formatted
// dates and times.
func WriteXLSX(w io.Writer, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(exportSheetName)
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	addRow(sheet, exportHeader...)
	for _, l := range leads {
		addRow(sheet,
			l.Name,
			l.ProjectName,
			l.PhoneNumber,
			datetime.FormatDisplayDate(l.Date),
			datetime.FormatDisplayTime(l.Time),
		)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// BuildXLSX renders the workbook into memory.
func BuildXLSX(leads []model.Lead) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, leads); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportObjectName names an export file uniquely, e.g.
// "exports/leads-20260224-153000-1a2b3c4d.xlsx".
func ExportObjectName(now time.Time) string {
	return fmt.Sprintf("exports/leads-%s-%s.xlsx", now.UTC().Format("20060102-150405"), uuid.NewString()[:8])
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
