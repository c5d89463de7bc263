package backend

import (
	"context"
	"fmt"

	"tracker/internal/log"
	"tracker/internal/sheets"
	gsheet "tracker/internal/sheets/google"
	sheetsmemory "tracker/internal/sheets/memory"
	"tracker/internal/storage/memory"
	"tracker/internal/storage/mongo"
	"tracker/internal/storage/postgres"
	"tracker/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		f.logger.Warn("Using in-memory store; data is lost on restart")
		s := memory.New()
		return &StoreResult{Store: s, Cleanup: s.Close}, nil

	case SQLiteBackend:
		repo, err := sqlite.NewRepository(ctx, config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &StoreResult{Store: repo, Cleanup: repo.Close}, nil

	case PostgresBackend:
		repo, err := postgres.Connect(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}
		f.logger.Info("Initialized PostgreSQL backend")
		return &StoreResult{Store: repo, Cleanup: repo.Close}, nil

	case MongoBackend:
		repo, err := mongo.Connect(ctx, config.DatabaseURL, config.DatabaseName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB repository: %w", err)
		}
		f.logger.Info("Initialized MongoDB backend", "database", config.DatabaseName)
		return &StoreResult{Store: repo, Cleanup: repo.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateExporter implements Factory.CreateExporter
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (sheets.LedgerExporter, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Warn("No spreadsheet configured; exporting to an in-process ledger")
		return sheetsmemory.New(), nil
	}
	exp, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsFile: config.GoogleCredentialsFile,
		CredentialsJSON: config.GoogleCredentialsJSON,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
	}
	f.logger.Info("Initialized Google Sheets exporter", "sheet", config.GoogleSheetName)
	return exp, nil
}
