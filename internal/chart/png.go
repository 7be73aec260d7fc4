package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"burnscope/internal/core"
)

const (
	pngWidth  = 8 * vg.Inch
	pngHeight = 5 * vg.Inch
)

var (
	rgbPrimary = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	rgbFire    = color.RGBA{R: 0xff, G: 0x99, B: 0x99, A: 0xff}
)

// RenderPNG draws one panel for the selection as a PNG image.
func RenderPNG(w io.Writer, kind Kind, rows []core.AggregatedRecord, sel core.Selection) error {
	var (
		p   *plot.Plot
		err error
	)
	switch kind {
	case KindYearly:
		p, err = yearlyPlot(rows, sel)
	case KindSeasonality:
		p = seasonalityPlot(rows, sel)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(pngWidth, pngHeight, "png")
	if err != nil {
		return fmt.Errorf("create png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func yearlyPlot(rows []core.AggregatedRecord, sel core.Selection) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = YearlyTitle(sel)
	p.Y.Label.Text = "Yearly Burned Area [ha]"
	p.Y.Tick.Marker = hectareTicks{}
	p.Y.Min = 0
	styleAxes(p)

	totals := core.YearlyTotals(rows, sel)
	if len(totals) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(totals))
	labels := make([]string, len(totals))
	for i, t := range totals {
		values[i] = t.TotalBurnedArea
		labels[i] = strconv.Itoa(t.Year)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, fmt.Errorf("build bar chart: %w", err)
	}
	bars.Color = rgbPrimary
	bars.LineStyle.Width = vg.Length(0)

	p.Add(bars)
	p.NominalX(labels...)
	return p, nil
}

func seasonalityPlot(rows []core.AggregatedRecord, sel core.Selection) *plot.Plot {
	grid := core.BuildPresence(rows, sel.Country, sel.YearFrom, sel.YearTo)

	p := plot.New()
	p.Title.Text = SeasonalityTitle
	styleAxes(p)

	monthTicks := make([]plot.Tick, len(core.MonthAbbrevs))
	for i, m := range core.MonthAbbrevs {
		monthTicks[i] = plot.Tick{Value: float64(i), Label: m}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(monthTicks)

	if len(grid.Years) == 0 {
		return p
	}

	yearTicks := make([]plot.Tick, len(grid.Years))
	for i, y := range grid.Years {
		yearTicks[i] = plot.Tick{Value: float64(i), Label: strconv.Itoa(y)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(yearTicks)

	hm := plotter.NewHeatMap(presenceXYZ{grid}, twoTone{rgbPrimary, rgbFire})
	hm.Min, hm.Max = 0, 1
	p.Add(hm)
	return p
}

func styleAxes(p *plot.Plot) {
	for _, a := range []*plot.Axis{&p.X, &p.Y} {
		a.Tick.Label.Color = rgbPrimary
		a.Tick.Label.Font.Size = vg.Points(axisFontSize)
		a.Label.TextStyle.Color = rgbPrimary
		a.Label.TextStyle.Font.Size = vg.Points(axisFontSize)
	}
}

// hectareTicks formats the default tick positions as thousands-separated integers.
type hectareTicks struct{}

func (hectareTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label == "" {
			continue
		}
		ticks[i].Label = humanize.Comma(int64(math.Round(ticks[i].Value)))
	}
	return ticks
}

// presenceXYZ adapts a presence grid to plotter.GridXYZ. Columns are years,
// rows are months with January at the bottom.
type presenceXYZ struct {
	grid core.PresenceGrid
}

func (g presenceXYZ) Dims() (c, r int) { return len(g.grid.Years), 12 }

func (g presenceXYZ) Z(c, r int) float64 { return float64(g.grid.Cells[r][c]) }

func (g presenceXYZ) X(c int) float64 { return float64(c) }

func (g presenceXYZ) Y(r int) float64 { return float64(r) }

// twoTone is a fixed two-colour palette.Palette.
type twoTone []color.Color

func (t twoTone) Colors() []color.Color { return t }
