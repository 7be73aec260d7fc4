package chart

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"burnscope/internal/core"
)

const (
	SheetYearly      = "Yearly"
	SheetSeasonality = "Seasonality"
	SheetMonthly     = "Monthly"
)

// WriteWorkbook exports the selection as an xlsx workbook: yearly totals, the
// presence grid and the monthly per-category rows behind both.
func WriteWorkbook(w io.Writer, rows []core.AggregatedRecord, sel core.Selection) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetYearly); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSeasonality, SheetMonthly} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	numFmt, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return fmt.Errorf("create number style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeYearly(f, rows, sel, header, numFmt); err != nil {
		return err
	}
	if err := writeSeasonality(f, rows, sel, header); err != nil {
		return err
	}
	if err := writeMonthly(f, rows, sel, header, numFmt); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeYearly(f *excelize.File, rows []core.AggregatedRecord, sel core.Selection, header, numFmt int) error {
	if err := f.SetSheetRow(SheetYearly, "A1", &[]any{"Year", "Total Burned Area [ha]"}); err != nil {
		return fmt.Errorf("write yearly header: %w", err)
	}
	if err := f.SetCellStyle(SheetYearly, "A1", "B1", header); err != nil {
		return fmt.Errorf("style yearly header: %w", err)
	}

	totals := core.YearlyTotals(rows, sel)
	for i, t := range totals {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetYearly, cell, &[]any{t.Year, t.TotalBurnedArea}); err != nil {
			return fmt.Errorf("write yearly row %d: %w", t.Year, err)
		}
	}
	if len(totals) > 0 {
		last, _ := excelize.CoordinatesToCellName(2, len(totals)+1)
		if err := f.SetCellStyle(SheetYearly, "B2", last, numFmt); err != nil {
			return fmt.Errorf("style yearly values: %w", err)
		}
	}
	return f.SetColWidth(SheetYearly, "B", "B", 24)
}

func writeSeasonality(f *excelize.File, rows []core.AggregatedRecord, sel core.Selection, header int) error {
	grid := core.BuildPresence(rows, sel.Country, sel.YearFrom, sel.YearTo)

	top := make([]any, 0, len(grid.Years)+1)
	top = append(top, "Month")
	for _, y := range grid.Years {
		top = append(top, y)
	}
	if err := f.SetSheetRow(SheetSeasonality, "A1", &top); err != nil {
		return fmt.Errorf("write seasonality header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(top), 1)
	if err := f.SetCellStyle(SheetSeasonality, "A1", last, header); err != nil {
		return fmt.Errorf("style seasonality header: %w", err)
	}

	for m, name := range core.MonthAbbrevs {
		row := make([]any, 0, len(grid.Years)+1)
		row = append(row, name)
		for _, v := range grid.Cells[m] {
			row = append(row, v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, m+2)
		if err := f.SetSheetRow(SheetSeasonality, cell, &row); err != nil {
			return fmt.Errorf("write seasonality %s: %w", name, err)
		}
	}
	return nil
}

func writeMonthly(f *excelize.File, rows []core.AggregatedRecord, sel core.Selection, header, numFmt int) error {
	top := []any{"Year", "Country", "Month"}
	for _, c := range core.Categories {
		top = append(top, c)
	}
	top = append(top, "Total_Burned_Area")
	if err := f.SetSheetRow(SheetMonthly, "A1", &top); err != nil {
		return fmt.Errorf("write monthly header: %w", err)
	}
	lastHead, _ := excelize.CoordinatesToCellName(len(top), 1)
	if err := f.SetCellStyle(SheetMonthly, "A1", lastHead, header); err != nil {
		return fmt.Errorf("style monthly header: %w", err)
	}

	n := 0
	for _, r := range core.Filter(rows, sel) {
		row := []any{r.Year, r.Country, r.Month}
		for _, v := range r.CategoryValues() {
			row = append(row, v)
		}
		row = append(row, r.TotalBurnedArea)

		n++
		cell, _ := excelize.CoordinatesToCellName(1, n+1)
		if err := f.SetSheetRow(SheetMonthly, cell, &row); err != nil {
			return fmt.Errorf("write monthly row: %w", err)
		}
	}
	if n > 0 {
		last, _ := excelize.CoordinatesToCellName(len(top), n+1)
		if err := f.SetCellStyle(SheetMonthly, "D2", last, numFmt); err != nil {
			return fmt.Errorf("style monthly values: %w", err)
		}
	}
	return nil
}
