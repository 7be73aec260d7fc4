package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"burnscope/internal/amqp"
	"burnscope/internal/core"
	"burnscope/internal/dataset/memory"
	"burnscope/internal/log"
)

type recordingPublisher struct {
	events []*amqp.InteractionEvent
	err    error
}

func (p *recordingPublisher) PublishInteraction(_ context.Context, msg *amqp.InteractionEvent) error {
	p.events = append(p.events, msg)
	return p.err
}

func newTestService(t *testing.T, records []core.Record, pub Publisher) *DashboardService {
	t.Helper()
	table := core.NewTable(records)
	store := memory.New()
	if err := store.Replace(context.Background(), table.Rows); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	logger := log.New(log.Config{Level: slog.LevelDebug, Output: &bytes.Buffer{}})
	return NewDashboardService(table, store, pub, logger)
}

func sampleRecords() []core.Record {
	return []core.Record{
		{Year: 2003, Country: "Brazil", Month: 8, Forest: 100, Savannas: 50},
		{Year: 2002, Country: "Angola", Month: 7, Savannas: 400},
		{Year: 2002, Country: "Brazil", Month: 9, Croplands: 25},
		{Year: 2005, Country: "Angola", Month: 6, Other: 10},
		{Year: 2005, Country: "Angola", Month: 6, Forest: 0},
	}
}

func TestInitialSelection(t *testing.T) {
	svc := newTestService(t, sampleRecords(), nil)
	got := svc.Initial()
	want := core.Selection{Country: "Brazil", YearFrom: 2002, YearTo: 2005}
	if got != want {
		t.Errorf("Initial() = %+v, want %+v", got, want)
	}
}

func TestControlsMarksEachYearOnce(t *testing.T) {
	svc := newTestService(t, sampleRecords(), nil)
	c := svc.Controls()

	if c.Slider.Min != 2002 || c.Slider.Max != 2005 {
		t.Errorf("slider bounds = [%d, %d]", c.Slider.Min, c.Slider.Max)
	}
	seen := map[int]int{}
	for _, m := range c.Slider.Marks {
		seen[m.Value]++
	}
	// 2004 has no rows, so it gets no mark.
	for _, y := range []int{2002, 2003, 2005} {
		if seen[y] != 1 {
			t.Errorf("year %d marked %d times, want 1", y, seen[y])
		}
	}
	if len(c.Slider.Marks) != 3 {
		t.Errorf("got %d marks, want 3", len(c.Slider.Marks))
	}
	if seen[2004] != 0 {
		t.Error("year without data got a mark")
	}
	if !c.Slider.MarksOnly {
		t.Error("slider allows years between marks")
	}
	if len(c.Countries) != 2 || c.Countries[0] != "Brazil" {
		t.Errorf("countries = %v", c.Countries)
	}
}

func TestDispatch(t *testing.T) {
	base := core.Selection{Country: "Brazil", YearFrom: 2002, YearTo: 2005}

	tests := []struct {
		name      string
		event     Event
		payload   Payload
		want      core.Selection
		wantBars  int
		wantError error
	}{
		{
			name:     "update click recomputes current selection",
			event:    EventUpdateClicked,
			want:     core.Selection{Country: "Brazil", YearFrom: 2002, YearTo: 2005, Clicks: 1},
			wantBars: 2,
		},
		{
			name:     "year range change",
			event:    EventYearRangeChanged,
			payload:  Payload{Years: []int{2003, 2003}},
			want:     core.Selection{Country: "Brazil", YearFrom: 2003, YearTo: 2003},
			wantBars: 1,
		},
		{
			name:     "year range wider than dataset kept as requested",
			event:    EventYearRangeChanged,
			payload:  Payload{Years: []int{1990, 2100}},
			want:     core.Selection{Country: "Brazil", YearFrom: 1990, YearTo: 2100},
			wantBars: 2,
		},
		{
			name:     "country change",
			event:    EventCountryChanged,
			payload:  Payload{Country: "Angola"},
			want:     core.Selection{Country: "Angola", YearFrom: 2002, YearTo: 2005},
			wantBars: 2,
		},
		{
			name:     "unknown country renders empty",
			event:    EventCountryChanged,
			payload:  Payload{Country: "Atlantis"},
			want:     core.Selection{Country: "Atlantis", YearFrom: 2002, YearTo: 2005},
			wantBars: 0,
		},
		{
			name:      "blank country rejected",
			event:     EventCountryChanged,
			payload:   Payload{Country: "  "},
			wantError: ErrInvalidPayload,
		},
		{
			name:      "years needs two values",
			event:     EventYearRangeChanged,
			payload:   Payload{Years: []int{2003}},
			wantError: ErrInvalidPayload,
		},
		{
			name:      "unknown event",
			event:     Event("zoom"),
			wantError: ErrUnknownEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, sampleRecords(), nil)
			res, err := svc.Dispatch(context.Background(), base, tt.event, tt.payload)
			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Fatalf("Dispatch() error = %v, want %v", err, tt.wantError)
				}
				return
			}
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if res.Selection != tt.want {
				t.Errorf("selection = %+v, want %+v", res.Selection, tt.want)
			}
			if got := len(res.Bar.Data[0].X.([]int)); got != tt.wantBars {
				t.Errorf("bars = %d, want %d", got, tt.wantBars)
			}
		})
	}
}

func TestDispatchUnknownCountryGridIsZero(t *testing.T) {
	svc := newTestService(t, sampleRecords(), nil)
	res, err := svc.Dispatch(context.Background(), svc.Initial(), EventCountryChanged, Payload{Country: "Atlantis"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	z := res.Heatmap.Data[0].Z
	if len(z) != 12 {
		t.Fatalf("z rows = %d, want 12", len(z))
	}
	for m, row := range z {
		if len(row) != 4 {
			t.Errorf("row %d has %d columns, want 4", m, len(row))
		}
		for _, v := range row {
			if v != 0 {
				t.Fatalf("unexpected active cell in row %d", m)
			}
		}
	}
}

func TestDispatchYearRangeBeyondData(t *testing.T) {
	tests := []struct {
		name     string
		years    []int
		wantCols []string
		wantBars int
	}{
		{
			name:     "wider than data",
			years:    []int{2000, 2008},
			wantCols: []string{"2000", "2001", "2002", "2003", "2004", "2005", "2006", "2007", "2008"},
			wantBars: 2,
		},
		{
			name:     "entirely after data",
			years:    []int{2010, 2012},
			wantCols: []string{"2010", "2011", "2012"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, sampleRecords(), nil)
			res, err := svc.Dispatch(context.Background(), svc.Initial(), EventYearRangeChanged, Payload{Years: tt.years})
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if res.Selection.YearFrom != tt.years[0] || res.Selection.YearTo != tt.years[1] {
				t.Errorf("selection = %+v, want years %v", res.Selection, tt.years)
			}

			x := res.Heatmap.Data[0].X.([]string)
			if len(x) != len(tt.wantCols) {
				t.Fatalf("heatmap x = %v, want %v", x, tt.wantCols)
			}
			for i := range x {
				if x[i] != tt.wantCols[i] {
					t.Fatalf("heatmap x = %v, want %v", x, tt.wantCols)
				}
			}
			for m, row := range res.Heatmap.Data[0].Z {
				if len(row) != len(tt.wantCols) {
					t.Errorf("month %d has %d columns, want %d", m+1, len(row), len(tt.wantCols))
				}
			}
			if got := len(res.Bar.Data[0].X.([]int)); got != tt.wantBars {
				t.Errorf("bars = %d, want %d", got, tt.wantBars)
			}
			want := fmt.Sprintf("[%d-%d]", tt.years[0], tt.years[1])
			if !strings.Contains(res.Bar.Layout.Title.Text, want) {
				t.Errorf("bar title %q missing %s", res.Bar.Layout.Title.Text, want)
			}
		})
	}
}

func TestRenderLeavesClicksAndDoesNotPublish(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(t, sampleRecords(), pub)
	sel := core.Selection{Country: "Brazil", YearFrom: 2002, YearTo: 2005, Clicks: 3}

	res, err := svc.Render(context.Background(), sel)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if res.Selection != sel {
		t.Errorf("selection = %+v, want %+v", res.Selection, sel)
	}
	if got := len(res.Bar.Data[0].X.([]int)); got != 2 {
		t.Errorf("bars = %d, want 2", got)
	}
	if len(pub.events) != 0 {
		t.Errorf("Render published %d events", len(pub.events))
	}
	if _, err := svc.Render(context.Background(), core.Selection{}); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Render(empty) error = %v", err)
	}
}

func TestDispatchInvertedRange(t *testing.T) {
	svc := newTestService(t, sampleRecords(), nil)
	res, err := svc.Dispatch(context.Background(), svc.Initial(), EventYearRangeChanged, Payload{Years: []int{2005, 2003}})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(res.Bar.Data[0].X.([]int)) != 0 {
		t.Error("inverted range should produce no bars")
	}
	for _, row := range res.Heatmap.Data[0].Z {
		if len(row) != 0 {
			t.Fatal("inverted range should produce zero heatmap columns")
		}
	}
}

func TestDispatchPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(t, sampleRecords(), pub)

	if _, err := svc.Dispatch(context.Background(), svc.Initial(), EventUpdateClicked, Payload{}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Event != "update" || ev.Country != "Brazil" || ev.Clicks != 1 || ev.Bars != 2 || ev.ActiveCells != 2 {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestDispatchPublishFailureIsNotSurfaced(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(t, sampleRecords(), pub)

	if _, err := svc.Dispatch(context.Background(), svc.Initial(), EventUpdateClicked, Payload{}); err != nil {
		t.Fatalf("publish failure leaked into Dispatch: %v", err)
	}
}

func TestParseEvent(t *testing.T) {
	for _, name := range []string{"update", "years", "country"} {
		if _, err := ParseEvent(name); err != nil {
			t.Errorf("ParseEvent(%q) error = %v", name, err)
		}
	}
	if _, err := ParseEvent("Update"); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("ParseEvent is case-sensitive, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	svc := newTestService(t, sampleRecords(), nil)
	sel, err := svc.Resolve(core.Selection{Country: "Angola", YearFrom: 1900, YearTo: 2003})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if sel.YearFrom != 1900 || sel.YearTo != 2003 {
		t.Errorf("Resolve() = %+v, want range passed through", sel)
	}
	if _, err := svc.Resolve(core.Selection{}); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Resolve(empty) error = %v", err)
	}
}
