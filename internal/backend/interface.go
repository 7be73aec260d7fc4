package backend

import (
	"context"

	"burnscope/internal/dataset"
	"burnscope/internal/services"
)

// CleanupFunc releases a resource created by the factory.
type CleanupFunc func() error

// StoreResult is an aggregate store plus the function that closes it.
type StoreResult struct {
	Store   dataset.AggregateStore
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// PublisherResult holds the interaction publisher. Publisher is nil when
// publishing is disabled.
type PublisherResult struct {
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates the pluggable parts of the dashboard from configuration.
type Factory interface {
	CreateSource(ctx context.Context, config Config) (dataset.Source, error)
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreatePublisher(ctx context.Context, config Config) (*PublisherResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Source SourceType
	Store  StoreType

	// File source
	DatasetPath  string
	DatasetSheet string

	// Google Sheets source
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// SQLite store
	SQLiteDBPath string

	// Interaction publishing, off when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// SourceType selects where records are read from.
type SourceType string

const (
	FileSource   SourceType = "file"
	SheetsSource SourceType = "sheets"
)

func (t SourceType) String() string { return string(t) }

func (t SourceType) IsValid() bool {
	switch t {
	case FileSource, SheetsSource:
		return true
	default:
		return false
	}
}

// StoreType selects the aggregate store implementation.
type StoreType string

const (
	MemoryStore StoreType = "memory"
	SQLiteStore StoreType = "sqlite"
)

func (t StoreType) String() string { return string(t) }

func (t StoreType) IsValid() bool {
	switch t {
	case MemoryStore, SQLiteStore:
		return true
	default:
		return false
	}
}
