package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding station rows.
const SheetName = "Report"

// header starts on this row; the rows above hold the report title and time.
const headerRow = 4

var columns = []string{
	"Station", "Lines", "Borough", "Precip Rate (in/hr)", "1hr Accum (in)", "6hr Accum (in)", "Risk Level",
}

// Row is one station line of the workbook.
type Row struct {
	Station     string
	Lines       string
	Borough     string
	PrecipRate  float64
	Accum1Hour  float64
	Accum6Hours float64
	RiskLevel   string
}

// Summary describes a workbook that was read back.
type Summary struct {
	Sheets   []string
	Stations int
}

// WriteWorkbook renders rows as an XLSX workbook for date and time.
func WriteWorkbook(date, clock string, rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	_ = f.SetCellValue(SheetName, "A1", "MTA Station Precipitation Report")
	_ = f.SetCellValue(SheetName, "A2", "Report date")
	_ = f.SetCellValue(SheetName, "B2", date)
	_ = f.SetCellValue(SheetName, "C2", "Report time")
	_ = f.SetCellValue(SheetName, "D2", clock)

	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(SheetName, cell, name)
	}

	for i, r := range rows {
		row := headerRow + 1 + i
		values := []any{r.Station, r.Lines, r.Borough, r.PrecipRate, r.Accum1Hour, r.Accum6Hours, r.RiskLevel}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(SheetName, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// InspectWorkbook opens data as an XLSX workbook. It fails with
// ErrMalformedPayload when data is not a readable workbook.
func InspectWorkbook(data []byte) (*Summary, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no worksheets", ErrMalformedPayload)
	}

	summary := &Summary{Sheets: sheets}
	if rows, err := f.GetRows(SheetName); err == nil && len(rows) > headerRow {
		summary.Stations = len(rows) - headerRow
	}
	return summary, nil
}
