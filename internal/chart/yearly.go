package chart

import (
	"fmt"

	"burnscope/internal/core"
)

// YearlyTitle is the bar chart title for a selection.
func YearlyTitle(sel core.Selection) string {
	return fmt.Sprintf("Yearly Burned Area - %s [%d-%d]", sel.Country, sel.YearFrom, sel.YearTo)
}

// YearlyBar builds the yearly total bar chart. Years without rows get no bar;
// an empty selection yields a figure with an empty trace.
func YearlyBar(rows []core.AggregatedRecord, sel core.Selection) Figure {
	totals := core.YearlyTotals(rows, sel)

	xs := make([]int, 0, len(totals))
	ys := make([]float64, 0, len(totals))
	for _, t := range totals {
		xs = append(xs, t.Year)
		ys = append(ys, t.TotalBurnedArea)
	}

	return Figure{
		Data: []Trace{{
			Type:          "bar",
			Name:          "Yearly Burned Area",
			X:             xs,
			Y:             ys,
			YAxis:         "y",
			Marker:        &Marker{Color: ColorPrimary},
			HoverTemplate: "%{y:,.0f} ha<extra></extra>",
		}},
		Layout: Layout{
			Title: Title{Text: YearlyTitle(sel)},
			XAxis: Axis{
				TickFont: axisFont(),
				TickMode: "linear",
				DTick:    1,
			},
			YAxis: Axis{
				Title:      &Title{Text: "Yearly Burned Area [ha]", Font: axisFont()},
				TickFont:   axisFont(),
				TickFormat: ",.0f",
			},
			BarGap: ptr(0.0),
		},
	}
}
