package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gastitos/internal/amqp"
	"gastitos/internal/core"
	applog "gastitos/internal/log"
)

// Store is the persistence contract the service relies on; storage.Manager
// implements it.
type Store interface {
	Initialize(ctx context.Context) error
	Create(ctx context.Context, t core.NewTransaction) (int64, error)
	ListAll(ctx context.Context) ([]core.Transaction, error)
	GetByID(ctx context.Context, id int64) (core.Transaction, bool, error)
	Update(ctx context.Context, id int64, t core.NewTransaction) error
	Delete(ctx context.Context, id int64) error
	Close() error
}

// EventPublisher announces committed changes; amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, eventType amqp.EventType, transactionID int64) error
	Close() error
}

// TransactionService writes to the local store first and then publishes a
// change event. Publishing is best effort and never fails a write.
type TransactionService struct {
	store     Store
	publisher EventPublisher
	logger    *slog.Logger
}

// NewTransactionService accepts a nil publisher, in which case no events are
// sent.
func NewTransactionService(store Store, publisher EventPublisher, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    logger.With(applog.FieldComponent, applog.ComponentService),
	}
}

func (s *TransactionService) Initialize(ctx context.Context) error {
	return s.store.Initialize(ctx)
}

// Create saves t and returns the id assigned by the store.
func (s *TransactionService) Create(ctx context.Context, t core.NewTransaction) (int64, error) {
	id, err := s.store.Create(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, amqp.EventCreated, id)
	return id, nil
}

func (s *TransactionService) ListAll(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListAll(ctx)
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, bool, error) {
	return s.store.GetByID(ctx, id)
}

func (s *TransactionService) Update(ctx context.Context, id int64, t core.NewTransaction) error {
	if err := s.store.Update(ctx, id, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, amqp.EventUpdated, id)
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.EventDeleted, id)
	return nil
}

func (s *TransactionService) publish(ctx context.Context, eventType amqp.EventType, id int64) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping event", "type", eventType)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, eventType, id); err != nil {
		// The change is already committed locally.
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldTransactionID, id,
			"type", eventType,
			applog.FieldOperation, applog.OpPublish,
			applog.FieldErrorType, applog.ErrorTypeNetwork,
			applog.FieldError, err)
	}
}

// Close closes both the store and the publisher.
func (s *TransactionService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}

	return nil
}
