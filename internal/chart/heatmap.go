package chart

import (
	"strconv"

	"burnscope/internal/core"
)

const SeasonalityTitle = "Yearly Burned Area Seasonality"

// SeasonalityHeatmap builds the month x year presence heatmap. Cells are 0 or
// 1 and map onto two fixed colours; there is no colour bar and no hover text.
func SeasonalityHeatmap(rows []core.AggregatedRecord, sel core.Selection) Figure {
	grid := core.BuildPresence(rows, sel.Country, sel.YearFrom, sel.YearTo)

	years := make([]string, len(grid.Years))
	for i, y := range grid.Years {
		years[i] = strconv.Itoa(y)
	}
	months := append([]string(nil), core.MonthAbbrevs...)

	return Figure{
		Data: []Trace{{
			Type:       "heatmap",
			X:          years,
			Y:          months,
			Z:          grid.Matrix(),
			ColorScale: [][2]any{{0, ColorPrimary}, {1, ColorFire}},
			ShowScale:  ptr(false),
			ZMin:       ptr(0.0),
			ZMax:       ptr(1.0),
			XGap:       1,
			YGap:       1,
			HoverInfo:  "none",
		}},
		Layout: Layout{
			Title: Title{Text: SeasonalityTitle},
			XAxis: Axis{TickFont: axisFont(), Type: "category"},
			YAxis: Axis{TickFont: axisFont(), Type: "category"},
		},
	}
}

// Build renders both panels for a selection.
func Build(rows []core.AggregatedRecord, sel core.Selection) Pair {
	return Pair{
		Bar:     YearlyBar(rows, sel),
		Heatmap: SeasonalityHeatmap(rows, sel),
	}
}
