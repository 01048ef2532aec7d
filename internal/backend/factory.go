package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zandaka/internal/amqp"
	"zandaka/internal/holiday"
	"zandaka/internal/services"
	"zandaka/internal/storage"
	"zandaka/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	// AMQP is optional; the ledger works without it.
	var (
		publisher  services.Publisher
		amqpClient *amqp.Client
	)
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications", "error", err)
			amqpClient = nil
		} else {
			publisher = amqpClient
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	size := config.HolidayCacheSize
	if size <= 0 {
		size = holiday.DefaultSharedCacheSize
	}
	calendar := holiday.NewSharedCache(size)

	ledger := services.NewLedgerService(store, publisher)
	projection := services.NewProjectionService(ledger, calendar)

	f.logger.InfoContext(ctx, "Initialized backend",
		"type", config.Type.String(),
		"amqp_enabled", amqpClient != nil,
		"holiday_cache_size", size)

	return &BackendResult{
		Store:      store,
		Ledger:     ledger,
		Projection: projection,
		Calendar:   calendar,
		Publishing: amqpClient != nil,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				errs = append(errs, amqpClient.Close())
			}
			errs = append(errs, ledger.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		store, err := memory.NewFromFile(config.StateFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load state file: %w", err)
		}
		f.logger.Info("Initialized memory store", "state_file", config.StateFile)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
