// Package storage owns the local SQLite database holding transactions.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"gastitos/internal/core"
	applog "gastitos/internal/log"

	_ "modernc.org/sqlite"
)

// Manager is the persistence context for transactions. It keeps exactly one
// connection, opened lazily on first use. Construct it once at startup and
// pass it to whoever needs it.
type Manager struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	db      *sql.DB
	queries *Queries

	initGroup singleflight.Group
	attempts  atomic.Int64
}

func NewManager(dbPath string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		path:   dbPath,
		logger: logger.With(applog.FieldComponent, applog.ComponentStorage),
	}
}

// Path returns the database file location.
func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db != nil
}

// Initialize opens the database and creates the schema. Concurrent callers
// share a single attempt; once it succeeded further calls return
// immediately. A failed attempt leaves the manager uninitialized so a later
// call can retry.
func (m *Manager) Initialize(ctx context.Context) error {
	if m.ready() {
		return nil
	}
	// The attempt is not tied to the first caller: abandoning a request does
	// not stop initialization for the others.
	ctx = context.WithoutCancel(ctx)
	_, err, _ := m.initGroup.Do("init", func() (any, error) {
		if m.ready() {
			return nil, nil
		}
		return nil, m.open(ctx)
	})
	return err
}

func (m *Manager) open(ctx context.Context) error {
	m.attempts.Add(1)
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return m.initFailed(ctx, fmt.Errorf("create db directory: %w", err))
	}

	db, err := sql.Open("sqlite", m.path)
	if err != nil {
		return m.initFailed(ctx, fmt.Errorf("open sqlite database: %w", err))
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return m.initFailed(ctx, fmt.Errorf("ping database: %w", err))
	}

	if err := RunMigrations(m.path); err != nil {
		db.Close()
		return m.initFailed(ctx, err)
	}

	m.mu.Lock()
	m.db = db
	m.queries = New(db)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "SQLite store initialized",
		"db_path", m.path,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (m *Manager) initFailed(ctx context.Context, err error) error {
	m.logger.ErrorContext(ctx, "SQLite store initialization failed",
		"db_path", m.path,
		applog.FieldError, err,
		applog.FieldErrorType, applog.ErrorTypeDatabase)
	return &InitializationError{Path: m.path, Err: err}
}

// conn initializes on demand and returns the query set.
func (m *Manager) conn(ctx context.Context) (*Queries, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.queries == nil {
		return nil, ErrUnavailable
	}
	return m.queries, nil
}

// Create stores t and returns the identifier assigned by the database.
func (m *Manager) Create(ctx context.Context, t core.NewTransaction) (int64, error) {
	q, err := m.conn(ctx)
	if err != nil {
		return 0, &PersistenceError{Op: applog.OpCreate, Err: err}
	}

	id, err := q.CreateTransaction(ctx, CreateTransactionParams{
		Kind:        string(t.Kind),
		Amount:      t.Amount.InexactFloat64(),
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date.Display(),
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to save transaction", applog.FieldError, err)
		return 0, &PersistenceError{Op: applog.OpCreate, Err: err}
	}
	if id <= 0 {
		return 0, &PersistenceError{Op: applog.OpCreate, Err: ErrNoInsertID}
	}

	m.logger.InfoContext(ctx, "Transaction saved to SQLite",
		applog.FieldTransactionID, id,
		applog.FieldKind, t.Kind,
		applog.FieldAmount, t.Amount.String(),
		applog.FieldCategory, t.Category)
	return id, nil
}

// ListAll returns every stored transaction, most recently created first.
//
// Read failures are logged and reported as an empty list so callers can
// still render; only a failure to initialize the store is returned.
func (m *Manager) ListAll(ctx context.Context) ([]core.Transaction, error) {
	q, err := m.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.ListTransactions(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to list transactions, returning empty list",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpList)
		return []core.Transaction{}, nil
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, m.fromRow(ctx, r))
	}
	return out, nil
}

// GetByID returns the transaction with id. The bool is false when no such row
// exists; absence is not an error.
func (m *Manager) GetByID(ctx context.Context, id int64) (core.Transaction, bool, error) {
	q, err := m.conn(ctx)
	if err != nil {
		return core.Transaction{}, false, &PersistenceError{Op: applog.OpRead, ID: id, Err: err}
	}

	row, err := q.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, false, nil
	}
	if err != nil {
		return core.Transaction{}, false, &PersistenceError{Op: applog.OpRead, ID: id, Err: err}
	}
	return m.fromRow(ctx, row), true, nil
}

// Update replaces the stored fields of transaction id. Updating an id that
// does not exist succeeds without effect.
func (m *Manager) Update(ctx context.Context, id int64, t core.NewTransaction) error {
	q, err := m.conn(ctx)
	if err != nil {
		return &PersistenceError{Op: applog.OpUpdate, ID: id, Err: err}
	}

	err = q.UpdateTransaction(ctx, UpdateTransactionParams{
		Kind:        string(t.Kind),
		Amount:      t.Amount.InexactFloat64(),
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date.Display(),
		ID:          id,
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to update transaction", applog.FieldTransactionID, id, applog.FieldError, err)
		return &PersistenceError{Op: applog.OpUpdate, ID: id, Err: err}
	}

	m.logger.InfoContext(ctx, "Transaction updated", applog.FieldTransactionID, id)
	return nil
}

// Delete permanently removes transaction id. Deleting an id that does not
// exist succeeds without effect.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	q, err := m.conn(ctx)
	if err != nil {
		return &PersistenceError{Op: applog.OpDelete, ID: id, Err: err}
	}

	if err := q.DeleteTransaction(ctx, id); err != nil {
		m.logger.ErrorContext(ctx, "Failed to delete transaction", applog.FieldTransactionID, id, applog.FieldError, err)
		return &PersistenceError{Op: applog.OpDelete, ID: id, Err: err}
	}

	m.logger.InfoContext(ctx, "Transaction deleted", applog.FieldTransactionID, id)
	return nil
}

// Close releases the connection. The next operation initializes again.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	if err != nil {
		m.logger.Error("Failed to close SQLite store", applog.FieldError, err)
	}
	m.db = nil
	m.queries = nil
	return err
}

func (m *Manager) fromRow(ctx context.Context, r TransactionRow) core.Transaction {
	t := core.Transaction{
		ID:          r.ID,
		Kind:        core.Kind(r.Kind),
		Amount:      decimal.NewFromFloat(r.Amount),
		Description: r.Description,
		Category:    r.Category,
		CreatedAt:   parseTimestamp(r.CreatedAt),
	}

	d, err := core.ParseDisplayDate(r.Date)
	if err != nil {
		m.logger.WarnContext(ctx, "Stored transaction has an unreadable date",
			applog.FieldTransactionID, r.ID,
			"date", r.Date)
	}
	t.Date = d
	return t
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s.String); err == nil {
			return t
		}
	}
	return time.Time{}
}
