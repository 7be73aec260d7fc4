package core

import "sort"

// Table is the aggregated dataset plus metadata derived once at startup.
// It is never mutated after NewTable returns.
type Table struct {
	Rows      []AggregatedRecord
	Countries []string // first-seen order of the raw records
	Years     []int    // unique years of the aggregated rows, ascending
	MinYear   int
	MaxYear   int
	RawRows   int
}

// NewTable aggregates the raw records and derives countries and years.
func NewTable(records []Record) *Table {
	t := &Table{
		Rows:    Aggregate(records),
		RawRows: len(records),
	}

	seen := make(map[string]struct{})
	for _, r := range records {
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		t.Countries = append(t.Countries, r.Country)
	}

	years := make(map[int]struct{})
	for _, r := range t.Rows {
		years[r.Year] = struct{}{}
	}
	for y := range years {
		t.Years = append(t.Years, y)
	}
	sort.Ints(t.Years)
	if len(t.Years) > 0 {
		t.MinYear = t.Years[0]
		t.MaxYear = t.Years[len(t.Years)-1]
	}
	return t
}

// InitialSelection picks the first country in load order and the full year span.
func (t *Table) InitialSelection() Selection {
	sel := Selection{YearFrom: t.MinYear, YearTo: t.MaxYear}
	if len(t.Countries) > 0 {
		sel.Country = t.Countries[0]
	}
	return sel
}
