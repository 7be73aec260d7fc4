package core

import (
	"errors"
	"fmt"
	"strings"
)

// Land-cover category names as they appear in the dataset header.
const (
	CategoryForest               = "forest"
	CategorySavannas             = "savannas"
	CategoryShrublandsGrasslands = "shrublands_grasslands"
	CategoryCroplands            = "croplands"
	CategoryOther                = "other"
)

// Categories lists the land-cover categories in dataset column order.
var Categories = []string{
	CategoryForest,
	CategorySavannas,
	CategoryShrublandsGrasslands,
	CategoryCroplands,
	CategoryOther,
}

// MonthAbbrevs are the heatmap row labels in calendar order.
var MonthAbbrevs = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

type (
	// Record is one raw row of the burned-area dataset.
	Record struct {
		Year                 int
		Country              string
		Month                int
		Forest               float64
		Savannas             float64
		ShrublandsGrasslands float64
		Croplands            float64
		Other                float64
	}

	// Key identifies an aggregation group. Matching is exact on all three fields.
	Key struct {
		Year    int
		Country string
		Month   int
	}

	// AggregatedRecord holds the category sums for one (year, country, month).
	AggregatedRecord struct {
		Key
		Forest               float64
		Savannas             float64
		ShrublandsGrasslands float64
		Croplands            float64
		Other                float64
		TotalBurnedArea      float64
	}

	// YearlyTotal is the burned area of one year summed across months.
	YearlyTotal struct {
		Year            int
		TotalBurnedArea float64
	}

	// Selection is the dashboard state for one interaction. It is passed by value.
	Selection struct {
		Country  string `json:"country"`
		YearFrom int    `json:"year_from"`
		YearTo   int    `json:"year_to"`
		Clicks   int    `json:"clicks"`
	}
)

var ErrEmptyCountry = errors.New("empty country")

// Key returns the aggregation key of the record.
func (r Record) Key() Key {
	return Key{Year: r.Year, Country: r.Country, Month: r.Month}
}

// CategorySum returns the sum of the five land-cover categories.
func (r Record) CategorySum() float64 {
	return r.Forest + r.Savannas + r.ShrublandsGrasslands + r.Croplands + r.Other
}

// CategorySum recomputes the category sum; it always equals TotalBurnedArea.
func (a AggregatedRecord) CategorySum() float64 {
	return a.Forest + a.Savannas + a.ShrublandsGrasslands + a.Croplands + a.Other
}

// CategoryValues returns the category sums in Categories order.
func (a AggregatedRecord) CategoryValues() []float64 {
	return []float64{a.Forest, a.Savannas, a.ShrublandsGrasslands, a.Croplands, a.Other}
}

// Validate checks that the selection names a country. Ranges with
// YearFrom > YearTo are allowed and render empty charts.
func (s Selection) Validate() error {
	if strings.TrimSpace(s.Country) == "" {
		return ErrEmptyCountry
	}
	return nil
}

// Contains reports whether year lies in [YearFrom, YearTo].
func (s Selection) Contains(year int) bool {
	return year >= s.YearFrom && year <= s.YearTo
}

func (s Selection) String() string {
	return fmt.Sprintf("%s [%d-%d]", s.Country, s.YearFrom, s.YearTo)
}
