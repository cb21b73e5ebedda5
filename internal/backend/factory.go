package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hubtrack/internal/amqp"
	"hubtrack/internal/services"
	gsheet "hubtrack/internal/sheets/google"
	memledger "hubtrack/internal/sheets/memory"
	"hubtrack/internal/storage"
	"hubtrack/internal/store"
	"hubtrack/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger

	// dialAMQP is replaced in tests.
	dialAMQP func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger:   logger,
		dialAMQP: amqp.NewClient,
	}
}

// CreateBackend opens the configured store and wraps it in a HubService. A
// failing AMQP connection is logged and the service runs without
// publishing; the ledger worker's sweep covers the gap.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	st, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	var (
		client    *amqp.Client
		publisher services.PaymentPublisher
	)
	if config.AMQPURL != "" {
		client, err = f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
			client = nil
		} else {
			publisher = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewHubService(st, publisher)
	f.logger.InfoContext(ctx, "Initialized backend",
		"type", config.Type,
		"amqp_enabled", client != nil)

	return &BackendResult{
		Service:   svc,
		Store:     st,
		Publisher: client,
		Cleanup: func() error {
			var errs []error
			if client != nil {
				errs = append(errs, client.Close())
			}
			errs = append(errs, svc.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createStore(config Config) (store.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateLedger returns the Google Sheets ledger when a spreadsheet is
// configured, otherwise an in-memory ledger.
func (f *DefaultFactory) CreateLedger(ctx context.Context, config Config) (*LedgerResult, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.WarnContext(ctx, "No spreadsheet configured, using in-memory ledger")
		return &LedgerResult{Ledger: memledger.New()}, nil
	}

	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		Sheet:              config.GoogleLedgerSheet,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
		OAuthClientFile:    config.GoogleOAuthClientFile,
		OAuthTokenFile:     config.GoogleOAuthTokenFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets ledger: %w", err)
	}
	if err := cli.EnsureHeader(ctx); err != nil {
		return nil, fmt.Errorf("prepare ledger sheet: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets ledger", "sheet", config.GoogleLedgerSheet)
	return &LedgerResult{Ledger: cli, Remote: true}, nil
}
