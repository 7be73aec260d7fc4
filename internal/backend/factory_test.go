package backend

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"burnscope/internal/config"
	"burnscope/internal/core"
	"burnscope/internal/log"
)

func testFactory() Factory {
	return NewFactory(log.New(log.Config{Level: slog.LevelDebug, Output: io.Discard}))
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Source: FileSource, Store: MemoryStore, DatasetPath: "data.csv"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad source", mutate: func(c *Config) { c.Source = "ftp" }, wantErr: "invalid dataset source"},
		{name: "bad store", mutate: func(c *Config) { c.Store = "redis" }, wantErr: "invalid store backend"},
		{name: "missing path", mutate: func(c *Config) { c.DatasetPath = "" }, wantErr: "dataset path"},
		{name: "sheets without id", mutate: func(c *Config) { c.Source = SheetsSource }, wantErr: "Spreadsheet ID"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store = SQLiteStore }, wantErr: "SQLite database path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	app := &config.Config{
		DatasetSource: config.SourceFile,
		DatasetPath:   "in.xlsx",
		DatasetSheet:  "Data",
		StoreBackend:  config.BackendSQLite,
		SQLiteDBPath:  "x.db",
		AMQPURL:       "amqp://localhost",
		AMQPExchange:  "ex",
		AMQPQueue:     "q",
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Source != FileSource || cfg.Store != SQLiteStore || cfg.DatasetSheet != "Data" || cfg.AMQPQueue != "q" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestCreateSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burned.csv")
	csv := "year,country,month,forest,savannas,shrublands_grasslands,croplands,other\n" +
		"2003,Brazil,8,100,50,0,0,0\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := testFactory().CreateSource(context.Background(), Config{Source: FileSource, DatasetPath: path})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	records, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 1 || records[0].Country != "Brazil" {
		t.Errorf("records = %+v", records)
	}

	_, err = testFactory().CreateSource(context.Background(), Config{Source: FileSource, DatasetPath: "data.parquet"})
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestCreateStore(t *testing.T) {
	ctx := context.Background()
	rows := core.Aggregate([]core.Record{{Year: 2003, Country: "Brazil", Month: 8, Forest: 1}})

	for _, cfg := range []Config{
		{Store: MemoryStore},
		{Store: SQLiteStore, SQLiteDBPath: filepath.Join(t.TempDir(), "agg.db")},
	} {
		t.Run(cfg.Store.String(), func(t *testing.T) {
			res, err := testFactory().CreateStore(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateStore: %v", err)
			}
			t.Cleanup(func() { _ = res.Cleanup() })

			if err := res.Ready(ctx); err == nil {
				t.Fatal("empty store reported ready")
			}
			if err := res.Store.Replace(ctx, rows); err != nil {
				t.Fatalf("Replace: %v", err)
			}
			if err := res.Ready(ctx); err != nil {
				t.Fatalf("Ready after Replace: %v", err)
			}
		})
	}

	if _, err := testFactory().CreateStore(ctx, Config{Store: "redis"}); err == nil {
		t.Fatal("expected error for unknown store")
	}
}

func TestCreatePublisherDisabled(t *testing.T) {
	res, err := testFactory().CreatePublisher(context.Background(), Config{})
	if err != nil {
		t.Fatalf("CreatePublisher: %v", err)
	}
	if res.Publisher != nil {
		t.Error("publisher should be nil without AMQP URL")
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
}
