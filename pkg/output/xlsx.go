package output

import (
	"fmt"
	"io"

	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet  = "Sheet1"
	warningsSheet = "warnings"
)

// XLSXFormat writes the report as a workbook with one sheet per section.
// Figures are stored as numbers rounded to cents; text metrics as strings.
func XLSXFormat(w io.Writer, report *planner.Report) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:      "Financial plan",
		Identifier: report.ID,
	}); err != nil {
		return fmt.Errorf("failed to set workbook properties: %w", err)
	}

	nextRow := make(map[string]int)
	var sheets []string
	appendRow := func(sheet string, header, values []interface{}) error {
		row, ok := nextRow[sheet]
		if !ok {
			if _, err := f.NewSheet(sheet); err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
				return err
			}
			sheets = append(sheets, sheet)
			row = 2
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		nextRow[sheet] = row + 1
		return nil
	}

	header := []interface{}{"name", "metric", "value"}
	for _, r := range reportRecords(report.Plan) {
		var value interface{} = r.text
		if !r.isText {
			value = mathutil.ToNumber(mathutil.Round(r.value))
		}
		if err := appendRow(r.section, header, []interface{}{r.name, r.metric, value}); err != nil {
			return fmt.Errorf("failed to write %s sheet: %w", r.section, err)
		}
	}

	for _, warning := range report.Warnings {
		if err := appendRow(warningsSheet, []interface{}{"warning"}, []interface{}{warning}); err != nil {
			return fmt.Errorf("failed to write %s sheet: %w", warningsSheet, err)
		}
	}

	if len(sheets) > 0 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("failed to remove default sheet: %w", err)
		}
		index, err := f.GetSheetIndex(sheets[0])
		if err != nil {
			return err
		}
		f.SetActiveSheet(index)
	}

	return f.Write(w)
}
