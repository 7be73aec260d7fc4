package core

// PresenceGrid is a 12 x N fire-occurrence matrix. Cells[m][i] is 1 when the
// summed burned area for month m+1 of Years[i] is positive, otherwise 0.
type PresenceGrid struct {
	Years []int
	Cells [12][]int
}

// BuildPresence computes the presence grid for a country over [from, to].
// An inverted range yields a grid with zero year columns.
func BuildPresence(rows []AggregatedRecord, country string, from, to int) PresenceGrid {
	span := 0
	if from <= to {
		span = to - from + 1
	}

	g := PresenceGrid{Years: make([]int, span)}
	for i := range g.Years {
		g.Years[i] = from + i
	}
	for m := range g.Cells {
		g.Cells[m] = make([]int, span)
	}
	if span == 0 {
		return g
	}

	sums := make(map[[2]int]float64)
	for _, r := range rows {
		if r.Country != country || r.Year < from || r.Year > to {
			continue
		}
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		sums[[2]int{r.Year, r.Month}] += r.TotalBurnedArea
	}

	for cell, total := range sums {
		if total > 0 {
			g.Cells[cell[1]-1][cell[0]-from] = 1
		}
	}
	return g
}

// Cell returns the value for a calendar month (1-12) and year, 0 outside the grid.
func (g PresenceGrid) Cell(month, year int) int {
	if month < 1 || month > 12 || len(g.Years) == 0 {
		return 0
	}
	i := year - g.Years[0]
	if i < 0 || i >= len(g.Years) {
		return 0
	}
	return g.Cells[month-1][i]
}

// Matrix returns the cells as rows of months, suitable for heatmap z values.
func (g PresenceGrid) Matrix() [][]int {
	out := make([][]int, 12)
	for m := range g.Cells {
		out[m] = append([]int(nil), g.Cells[m]...)
	}
	return out
}

// Active counts the cells set to 1.
func (g PresenceGrid) Active() int {
	n := 0
	for m := range g.Cells {
		for _, v := range g.Cells[m] {
			n += v
		}
	}
	return n
}
