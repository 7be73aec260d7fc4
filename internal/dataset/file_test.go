package dataset

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"burnscope/internal/log"
)

const sampleCSV = `year,country,month,forest,savannas,shrublands_grasslands,croplands,other
2002,Angola,1,10.5,20,0,0,1
2002,Angola,1,1.5,0,0,0,0
2003,Brazil,7,0,0,,3,0
`

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	first := records[0]
	if first.Year != 2002 || first.Country != "Angola" || first.Month != 1 || first.Forest != 10.5 || first.Other != 1 {
		t.Fatalf("unexpected first record %+v", first)
	}
	if records[2].ShrublandsGrasslands != 0 || records[2].Croplands != 3 {
		t.Fatalf("empty cell must parse as zero: %+v", records[2])
	}
}

func TestReadCSVColumnOrderAndExtras(t *testing.T) {
	in := "idx,Country,Year,Month,Other,Croplands,Shrublands_Grasslands,Savannas,Forest\n" +
		"0,Chad,2010.0,3,1,2,3,4,5\n"
	records, err := ReadCSV(context.Background(), strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	r := records[0]
	if r.Country != "Chad" || r.Year != 2010 || r.Month != 3 || r.Forest != 5 || r.Other != 1 {
		t.Fatalf("columns mapped incorrectly: %+v", r)
	}
}

func TestReadCSVErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmptyDataset},
		{"missing column", "year,country,month,forest\n2002,A,1,1\n", ErrMissingColumn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(context.Background(), strings.NewReader(tc.in))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	bad := "year,country,month,forest,savannas,shrublands_grasslands,croplands,other\n2002,A,x,1,0,0,0,0\n"
	_, err := ReadCSV(context.Background(), strings.NewReader(bad))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line number in error, got %v", err)
	}
}

func TestFileSourceCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burned.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := NewFileSource(path, "")
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	records, err := src.Load(context.Background())
	if err != nil || len(records) != 3 {
		t.Fatalf("load: n=%d err=%v", len(records), err)
	}
}

func TestFileSourceLogsThroughContextLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burned.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := NewFileSource(path, "")
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	var buf bytes.Buffer
	ctx := log.NewContext(context.Background(), log.New(log.Config{Output: &buf}))
	if _, err := src.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Dataset file loaded", "component=dataset", "rows=3", "source=" + path} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src, _ := NewFileSource(filepath.Join(t.TempDir(), "nope.csv"), "")
	if _, err := src.Load(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestNewFileSourceRejectsUnknownExtension(t *testing.T) {
	if _, err := NewFileSource("data.parquet", ""); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFileSourceXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burned.xlsx")
	f := excelize.NewFile()
	sheet := "Burned"
	f.SetSheetName("Sheet1", sheet)
	rows := [][]any{
		{"year", "country", "month", "forest", "savannas", "shrublands_grasslands", "croplands", "other"},
		{2002, "Angola", 1, 10, 0, 0, 0, 0},
		{2003, "Angola", 8, 0, 2.5, 0, 0, 0},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	src, err := NewFileSource(path, "")
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	records, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 || records[1].Month != 8 || records[1].Savannas != 2.5 {
		t.Fatalf("unexpected records %+v", records)
	}
}
