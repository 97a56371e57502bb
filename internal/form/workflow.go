package form

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gastitos/internal/core"
	"gastitos/internal/ledger"
	applog "gastitos/internal/log"
)

const (
	opCreate = applog.OpCreate
	opUpdate = applog.OpUpdate
	opDelete = applog.OpDelete
)

// Store is the persistence the workflow writes through.
type Store interface {
	Initialize(ctx context.Context) error
	Create(ctx context.Context, t core.NewTransaction) (int64, error)
	ListAll(ctx context.Context) ([]core.Transaction, error)
	Update(ctx context.Context, id int64, t core.NewTransaction) error
	Delete(ctx context.Context, id int64) error
}

// Workflow validates dialog input, writes it to the store and keeps the
// ledger in step with what the store confirmed. Writes run one at a time so
// a reload never installs a list read before another write landed.
type Workflow struct {
	store  Store
	ledger *ledger.Ledger
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex // held across each write and the ledger change that follows
}

type Option func(*Workflow)

// WithClock sets the time source used to date new transactions.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func NewWorkflow(store Store, l *ledger.Ledger, logger *slog.Logger, opts ...Option) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Workflow{
		store:  store,
		ledger: l,
		logger: logger.With(applog.FieldComponent, applog.ComponentWorkflow),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) Ledger() *ledger.Ledger {
	return w.ledger
}

// Load initializes the store and fills the ledger from it.
func (w *Workflow) Load(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Initialize(ctx); err != nil {
		return err
	}
	return w.refresh(ctx)
}

func (w *Workflow) refresh(ctx context.Context) error {
	txs, err := w.store.ListAll(ctx)
	if err != nil {
		return err
	}
	w.ledger.Replace(txs)
	return nil
}

// Create stores a new transaction of kind dated today and puts it at the
// head of the ledger.
func (w *Workflow) Create(ctx context.Context, kind core.Kind, d Draft) (core.Transaction, error) {
	n, err := Normalize(kind, d)
	if err != nil {
		w.logger.DebugContext(ctx, "Draft rejected", applog.FieldKind, kind, applog.FieldError, err)
		return core.Transaction{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	nt := n.Transaction(core.DateOf(w.now()))
	id, err := w.store.Create(ctx, nt)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to create transaction", applog.FieldError, err)
		return core.Transaction{}, newAlert(opCreate, err)
	}

	t := nt.WithID(id, w.now())
	w.ledger.Prepend(t)
	w.logger.InfoContext(ctx, "Transaction created",
		applog.FieldTransactionID, id,
		applog.FieldKind, t.Kind,
		applog.FieldAmount, t.Amount.String(),
		applog.FieldCategory, t.Category)
	return t, nil
}

// Update rewrites the editable fields of t. Kind and date never change.
// The ledger is reloaded from the store afterwards.
func (w *Workflow) Update(ctx context.Context, t core.Transaction, d Draft) (core.Transaction, error) {
	n, err := Normalize(t.Kind, d)
	if err != nil {
		w.logger.DebugContext(ctx, "Draft rejected", applog.FieldTransactionID, t.ID, applog.FieldError, err)
		return core.Transaction{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	nt := n.Transaction(t.Date)
	if err := w.store.Update(ctx, t.ID, nt); err != nil {
		w.logger.ErrorContext(ctx, "Failed to update transaction", applog.FieldTransactionID, t.ID, applog.FieldError, err)
		return core.Transaction{}, newAlert(opUpdate, err)
	}
	if err := w.refresh(ctx); err != nil {
		w.logger.WarnContext(ctx, "Failed to reload transactions after update", applog.FieldError, err)
	}

	updated := nt.WithID(t.ID, t.CreatedAt)
	if cached, ok := w.ledger.Find(t.ID); ok {
		updated = cached
	}
	return updated, nil
}

// Delete removes transaction id and reloads the ledger.
func (w *Workflow) Delete(ctx context.Context, id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Delete(ctx, id); err != nil {
		w.logger.ErrorContext(ctx, "Failed to delete transaction", applog.FieldTransactionID, id, applog.FieldError, err)
		return newAlert(opDelete, err)
	}
	if err := w.refresh(ctx); err != nil {
		w.logger.WarnContext(ctx, "Failed to reload transactions after delete", applog.FieldError, err)
	}
	w.logger.InfoContext(ctx, "Transaction deleted", applog.FieldTransactionID, id)
	return nil
}
