package memory

import (
	"context"
	"testing"

	"burnscope/internal/core"
)

func TestStoreReplaceAndQuery(t *testing.T) {
	s := New()
	rows := core.Aggregate([]core.Record{
		{Year: 2002, Country: "A", Month: 1, Forest: 1},
		{Year: 2003, Country: "A", Month: 1, Forest: 2},
		{Year: 2004, Country: "A", Month: 1, Forest: 3},
		{Year: 2003, Country: "B", Month: 1, Forest: 4},
	})
	if err := s.Replace(context.Background(), rows); err != nil {
		t.Fatalf("replace: %v", err)
	}

	n, _ := s.Count(context.Background())
	if n != 4 {
		t.Fatalf("count=%d", n)
	}

	got, err := s.ForCountry(context.Background(), "A", 2003, 2004)
	if err != nil || len(got) != 2 {
		t.Fatalf("unexpected rows: %+v err=%v", got, err)
	}
	for _, r := range got {
		if r.Country != "A" || r.Year < 2003 {
			t.Fatalf("row outside selection: %+v", r)
		}
	}

	if got, _ := s.ForCountry(context.Background(), "A", 2004, 2003); len(got) != 0 {
		t.Fatalf("inverted range must return no rows, got %d", len(got))
	}
	if got, _ := s.ForCountry(context.Background(), "Missing", 2000, 2030); len(got) != 0 {
		t.Fatalf("unknown country must return no rows, got %d", len(got))
	}
}

func TestStoreReplaceDropsOldRows(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Replace(ctx, []core.AggregatedRecord{{Key: core.Key{Year: 2002, Country: "Old", Month: 1}}})
	_ = s.Replace(ctx, []core.AggregatedRecord{{Key: core.Key{Year: 2002, Country: "New", Month: 1}}})

	if got, _ := s.ForCountry(ctx, "Old", 2000, 2030); len(got) != 0 {
		t.Fatalf("stale rows survived replace")
	}
}
