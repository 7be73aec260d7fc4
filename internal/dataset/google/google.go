package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"burnscope/internal/core"
	"burnscope/internal/dataset"
	"burnscope/internal/log"
)

// ValuesGetter fetches a range of cell values. It is satisfied by the Sheets
// API client and replaced by a fake in tests.
type ValuesGetter interface {
	GetValues(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
}

// Source loads burned-area records from a Google Sheets tab.
type Source struct {
	values        ValuesGetter
	spreadsheetID string
	sheetName     string
}

var _ dataset.Source = (*Source)(nil)

// Credentials selects how the Sheets client authenticates.
type Credentials struct {
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a Sheets-backed source using service account credentials.
// sheetName defaults to "Data".
func New(ctx context.Context, spreadsheetID, sheetName string, creds Credentials) (*Source, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Data"
	}

	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithGetter(apiGetter{svc: svc}, spreadsheetID, sheetName), nil
}

// NewWithGetter builds a source on top of an arbitrary values getter.
func NewWithGetter(g ValuesGetter, spreadsheetID, sheetName string) *Source {
	return &Source{values: g, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// Load reads the whole tab; the first row must be the header.
func (s *Source) Load(ctx context.Context) ([]core.Record, error) {
	if s.values == nil {
		return nil, errors.New("sheets service not initialized")
	}
	start := time.Now()
	rng := fmt.Sprintf("%s!A:Z", s.sheetName)

	values, err := s.values.GetValues(ctx, s.spreadsheetID, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	records, err := dataset.ParseValues(toStringRows(values))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rng, err)
	}

	log.FromContext(ctx).WithComponent(log.ComponentDataset).InfoContext(ctx, "Dataset sheet loaded",
		log.FieldSource, s.spreadsheetID,
		log.FieldRange, rng,
		log.FieldRows, len(records),
		log.FieldDuration, time.Since(start).Milliseconds())
	return records, nil
}

type apiGetter struct {
	svc *gsheet.Service
}

func (g apiGetter) GetValues(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// newSheetsService initializes a read-only Sheets service from service account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither field is set.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(creds.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(creds.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	log.FromContext(ctx).WithComponent(log.ComponentDataset).InfoContext(ctx, "Creating Google Sheets service",
		log.FieldScope, gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func toStringRows(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = toStrings(row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case nil:
			out[i] = ""
		case float64:
			out[i] = formatNumber(x)
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
