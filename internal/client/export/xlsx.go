// Package export writes attendance reports as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/client/models"
	"github.com/dmitrijs2005/qrattend/internal/filex"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "Attendance"

	colNumber    = "Student Number"
	colName      = "Student Name"
	colTimestamp = "Timestamp"
)

// Header is the column header row of the attendance sheet.
var Header = []string{colNumber, colName, colTimestamp}

func build(report *models.AttendanceReport, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.SetCellValue(SheetName, "A1", "Subject"); err != nil {
		_ = f.Close()
		return nil, err
	}
	_ = f.SetCellValue(SheetName, "B1", report.Subject)
	_ = f.SetCellValue(SheetName, "A2", "Session")
	_ = f.SetCellValue(SheetName, "B2", report.SessionID)

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A4", &header); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, e := range report.Entries {
		cell, err := excelize.CoordinatesToCellName(1, 5+i)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		row := []interface{}{e.StudentNumber, e.StudentName, e.Timestamp.In(loc).Format(time.DateTime)}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 18)
	_ = f.SetColWidth(SheetName, "B", "B", 32)
	_ = f.SetColWidth(SheetName, "C", "C", 22)
	return f, nil
}

// Write encodes report into w. Timestamps are rendered in loc.
func Write(w io.Writer, report *models.AttendanceReport, loc *time.Location) error {
	f, err := build(report, loc)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile saves report to path, creating parent directories, and returns
// the absolute path written.
func WriteFile(path string, report *models.AttendanceReport, loc *time.Location) (string, error) {
	abs, err := filex.EnsureParentDir(path)
	if err != nil {
		return "", err
	}

	f, err := build(report, loc)
	if err != nil {
		return "", fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()

	if err := f.SaveAs(abs); err != nil {
		return "", fmt.Errorf("save %s: %w", abs, err)
	}
	return abs, nil
}
