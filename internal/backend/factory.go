package backend

import (
	"context"
	"errors"
	"fmt"

	"burnscope/internal/amqp"
	"burnscope/internal/dataset"
	"burnscope/internal/dataset/google"
	"burnscope/internal/dataset/memory"
	"burnscope/internal/log"
	"burnscope/internal/storage"
)

var errAggregateStoreEmpty = errors.New("aggregate store is empty")

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentApp)}
}

// CreateSource returns the dataset source selected by config.Source.
func (f *DefaultFactory) CreateSource(ctx context.Context, config Config) (dataset.Source, error) {
	switch config.Source {
	case FileSource:
		src, err := dataset.NewFileSource(config.DatasetPath, config.DatasetSheet)
		if err != nil {
			return nil, err
		}
		f.logger.Info("Using file dataset source", log.FieldPath, config.DatasetPath)
		return src, nil
	case SheetsSource:
		src, err := google.New(ctx, config.GoogleSpreadsheetID, config.DatasetSheet, google.Credentials{
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
			ServiceAccountFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets source: %w", err)
		}
		f.logger.Info("Using Google Sheets dataset source", "spreadsheet_id", config.GoogleSpreadsheetID)
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported dataset source: %s", config.Source)
	}
}

// CreateStore opens the aggregate store. Ready reports whether the store
// holds any rows.
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	switch config.Store {
	case MemoryStore:
		store := memory.New()
		f.logger.Info("Initialized memory store")
		return &StoreResult{
			Store:   store,
			Ready:   nonEmpty(store),
			Cleanup: func() error { return nil },
		}, nil
	case SQLiteStore:
		store, err := storage.NewSQLiteStore(log.NewContext(ctx, f.logger), config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		ready := nonEmpty(store)
		return &StoreResult{
			Store: store,
			Ready: func(ctx context.Context) error {
				if err := store.Ping(ctx); err != nil {
					return err
				}
				return ready(ctx)
			},
			Cleanup: store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", config.Store)
	}
}

// CreatePublisher dials the broker when AMQP is configured. A dial failure
// disables publishing instead of failing startup.
func (f *DefaultFactory) CreatePublisher(ctx context.Context, config Config) (*PublisherResult, error) {
	noop := &PublisherResult{Cleanup: func() error { return nil }}
	if config.AMQPURL == "" {
		f.logger.Info("Interaction publishing disabled")
		return noop, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without publishing", log.FieldError, err)
		return noop, nil
	}
	f.logger.Info("Initialized AMQP publisher",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return &PublisherResult{Publisher: client, Cleanup: client.Close}, nil
}

func nonEmpty(store dataset.AggregateStore) func(context.Context) error {
	return func(ctx context.Context) error {
		n, err := store.Count(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return errAggregateStoreEmpty
		}
		return nil
	}
}
