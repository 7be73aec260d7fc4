package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"burnscope/internal/core"
	"burnscope/internal/log"
)

// FileSource reads the dataset from a local .csv or .xlsx file.
type FileSource struct {
	Path string
	// Sheet selects the worksheet for .xlsx files; the first sheet when empty.
	Sheet string
}

var _ Source = (*FileSource)(nil)

// NewFileSource returns a source for path, rejecting unknown extensions early.
func NewFileSource(path, sheet string) (*FileSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return &FileSource{Path: path, Sheet: sheet}, nil
}

// Load reads every record in file order.
func (s *FileSource) Load(ctx context.Context) ([]core.Record, error) {
	start := time.Now()

	var (
		records []core.Record
		err     error
	)
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".csv":
		records, err = s.loadCSV(ctx)
	case ".xlsx":
		records, err = s.loadXLSX(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(s.Path))
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", s.Path, err)
	}

	log.FromContext(ctx).WithComponent(log.ComponentDataset).InfoContext(ctx, "Dataset file loaded",
		log.FieldSource, s.Path,
		log.FieldRows, len(records),
		log.FieldDuration, time.Since(start).Milliseconds())
	return records, nil
}

func (s *FileSource) loadCSV(ctx context.Context) ([]core.Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return ReadCSV(ctx, f)
}

// ReadCSV parses a CSV stream whose first row is the header.
func ReadCSV(ctx context.Context, r io.Reader) ([]core.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var out []core.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isBlank(row) {
			continue
		}
		rec, err := idx.parseRow(row, line)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *FileSource) loadXLSX(ctx context.Context) ([]core.Record, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseValues(rows)
}
