package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"burnscope/internal/core"
)

// Column names required in the dataset header.
const (
	ColYear    = "year"
	ColCountry = "country"
	ColMonth   = "month"
)

// RequiredColumns is the fixed column set of the burned-area dataset.
var RequiredColumns = append([]string{ColYear, ColCountry, ColMonth}, core.Categories...)

var (
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrEmptyDataset      = errors.New("dataset has no header row")
)

// columnIndex maps each required column to its position in the header.
type columnIndex map[string]int

func indexHeader(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(RequiredColumns))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s; got headers=%v", ErrMissingColumn, strings.Join(missing, ","), header)
	}
	return idx, nil
}

// normalizeHeader turns "Shrublands Grasslands" or " Year" into snake case.
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// parseRow converts one data row. line is 1-based and only used in errors.
func (idx columnIndex) parseRow(row []string, line int) (core.Record, error) {
	var (
		rec core.Record
		err error
	)
	if rec.Year, err = parseInt(safeGet(row, idx[ColYear])); err != nil {
		return rec, fmt.Errorf("line %d: column %s: %w", line, ColYear, err)
	}
	if rec.Month, err = parseInt(safeGet(row, idx[ColMonth])); err != nil {
		return rec, fmt.Errorf("line %d: column %s: %w", line, ColMonth, err)
	}
	rec.Country = strings.TrimSpace(safeGet(row, idx[ColCountry]))

	targets := []*float64{&rec.Forest, &rec.Savannas, &rec.ShrublandsGrasslands, &rec.Croplands, &rec.Other}
	for i, col := range core.Categories {
		if *targets[i], err = parseFloat(safeGet(row, idx[col])); err != nil {
			return rec, fmt.Errorf("line %d: column %s: %w", line, col, err)
		}
	}
	return rec, nil
}

// ParseValues converts a header row plus data rows into records. Fully blank
// rows are skipped.
func ParseValues(rows [][]string) ([]core.Record, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	idx, err := indexHeader(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]core.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec, err := idx.parseRow(row, i+2)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	// Spreadsheet exports sometimes write integers as "2020.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

// parseFloat treats empty cells as zero, matching how missing values sum.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
