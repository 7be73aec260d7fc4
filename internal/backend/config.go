package backend

import (
	"errors"
	"fmt"

	"burnscope/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Source: SourceType(appConfig.DatasetSource),
		Store:  StoreType(appConfig.StoreBackend),

		DatasetPath:  appConfig.DatasetPath,
		DatasetSheet: appConfig.DatasetSheet,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields the selected source and store need.
func (c Config) Validate() error {
	if !c.Source.IsValid() {
		return fmt.Errorf("invalid dataset source: %q", c.Source)
	}
	if !c.Store.IsValid() {
		return fmt.Errorf("invalid store backend: %q", c.Store)
	}

	switch c.Source {
	case FileSource:
		if c.DatasetPath == "" {
			return errors.New("dataset path is required for file source")
		}
	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets source")
		}
	}

	if c.Store == SQLiteStore && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	return nil
}
