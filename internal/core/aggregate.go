package core

import "sort"

// Aggregate groups records by (year, country, month) and sums the five
// categories. TotalBurnedArea is derived from the sums. Output is sorted by
// year, country, month.
func Aggregate(records []Record) []AggregatedRecord {
	index := make(map[Key]int, len(records))
	out := make([]AggregatedRecord, 0)

	for _, r := range records {
		k := r.Key()
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, AggregatedRecord{Key: k})
		}
		a := &out[i]
		a.Forest += r.Forest
		a.Savannas += r.Savannas
		a.ShrublandsGrasslands += r.ShrublandsGrasslands
		a.Croplands += r.Croplands
		a.Other += r.Other
	}

	for i := range out {
		out[i].TotalBurnedArea = out[i].CategorySum()
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.less(out[j].Key)
	})
	return out
}

// Expand turns an aggregated row back into a raw record.
func Expand(a AggregatedRecord) Record {
	return Record{
		Year:                 a.Year,
		Country:              a.Country,
		Month:                a.Month,
		Forest:               a.Forest,
		Savannas:             a.Savannas,
		ShrublandsGrasslands: a.ShrublandsGrasslands,
		Croplands:            a.Croplands,
		Other:                a.Other,
	}
}

// Filter keeps the rows of one country whose year lies in the selection range.
func Filter(rows []AggregatedRecord, sel Selection) []AggregatedRecord {
	out := make([]AggregatedRecord, 0)
	for _, r := range rows {
		if r.Country == sel.Country && sel.Contains(r.Year) {
			out = append(out, r)
		}
	}
	return out
}

// YearlyTotals sums TotalBurnedArea per year for the selected country and
// range. Only years with at least one row appear, in ascending order.
func YearlyTotals(rows []AggregatedRecord, sel Selection) []YearlyTotal {
	byYear := make(map[int]float64)
	for _, r := range Filter(rows, sel) {
		byYear[r.Year] += r.TotalBurnedArea
	}

	out := make([]YearlyTotal, 0, len(byYear))
	for y, total := range byYear {
		out = append(out, YearlyTotal{Year: y, TotalBurnedArea: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func (k Key) less(o Key) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	if k.Country != o.Country {
		return k.Country < o.Country
	}
	return k.Month < o.Month
}
