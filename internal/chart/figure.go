// Package chart builds the dashboard figures. Figures are plotly.js documents
// ({data, layout}) encoded as JSON and drawn in the browser; png.go and
// xlsx.go render the same selections for download.
package chart

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names a chart panel.
type Kind string

const (
	KindYearly      Kind = "yearly"
	KindSeasonality Kind = "seasonality"
)

var ErrUnknownKind = errors.New("unknown chart kind")

// ParseKind maps a URL segment to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindYearly:
		return KindYearly, nil
	case KindSeasonality:
		return KindSeasonality, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Palette shared by the interactive and raster renderings.
const (
	ColorPrimary = "#1f77b4"
	ColorFire    = "#ff9999"
	axisFontSize = 10
)

type (
	Figure struct {
		Data   []Trace `json:"data"`
		Layout Layout  `json:"layout"`
	}

	// Trace covers the bar and heatmap fields used by the dashboard.
	Trace struct {
		Type          string   `json:"type"`
		Name          string   `json:"name,omitempty"`
		X             any      `json:"x"`
		Y             any      `json:"y"`
		Z             [][]int  `json:"z,omitempty"`
		YAxis         string   `json:"yaxis,omitempty"`
		Marker        *Marker  `json:"marker,omitempty"`
		HoverTemplate string   `json:"hovertemplate,omitempty"`
		HoverInfo     string   `json:"hoverinfo,omitempty"`
		ColorScale    [][2]any `json:"colorscale,omitempty"`
		ShowScale     *bool    `json:"showscale,omitempty"`
		ZMin          *float64 `json:"zmin,omitempty"`
		ZMax          *float64 `json:"zmax,omitempty"`
		XGap          int      `json:"xgap,omitempty"`
		YGap          int      `json:"ygap,omitempty"`
	}

	Marker struct {
		Color string `json:"color"`
	}

	Layout struct {
		Title  Title    `json:"title"`
		XAxis  Axis     `json:"xaxis"`
		YAxis  Axis     `json:"yaxis"`
		BarGap *float64 `json:"bargap,omitempty"`
	}

	Title struct {
		Text string `json:"text"`
		Font *Font  `json:"font,omitempty"`
	}

	Font struct {
		Color string `json:"color,omitempty"`
		Size  int    `json:"size,omitempty"`
	}

	Axis struct {
		Title      *Title  `json:"title,omitempty"`
		TickFont   *Font   `json:"tickfont,omitempty"`
		TickMode   string  `json:"tickmode,omitempty"`
		DTick      float64 `json:"dtick,omitempty"`
		TickFormat string  `json:"tickformat,omitempty"`
		Type       string  `json:"type,omitempty"`
	}
)

// Pair is the result of one recompute: both panels, always rebuilt together.
type Pair struct {
	Bar     Figure `json:"bar"`
	Heatmap Figure `json:"heatmap"`
}

func axisFont() *Font {
	return &Font{Color: ColorPrimary, Size: axisFontSize}
}

func ptr[T any](v T) *T {
	return &v
}
