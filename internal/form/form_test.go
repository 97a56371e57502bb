package form

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gastitos/internal/core"
	"gastitos/internal/ledger"
)

type memStore struct {
	txs     []core.Transaction
	nextID  int64
	calls   int
	failing error
}

func (m *memStore) Initialize(ctx context.Context) error {
	m.calls++
	return nil
}

func (m *memStore) Create(ctx context.Context, t core.NewTransaction) (int64, error) {
	m.calls++
	if m.failing != nil {
		return 0, m.failing
	}
	m.nextID++
	m.txs = append([]core.Transaction{t.WithID(m.nextID, time.Now())}, m.txs...)
	return m.nextID, nil
}

func (m *memStore) ListAll(ctx context.Context) ([]core.Transaction, error) {
	m.calls++
	out := make([]core.Transaction, len(m.txs))
	copy(out, m.txs)
	return out, nil
}

func (m *memStore) Update(ctx context.Context, id int64, t core.NewTransaction) error {
	m.calls++
	if m.failing != nil {
		return m.failing
	}
	for i := range m.txs {
		if m.txs[i].ID == id {
			m.txs[i] = t.WithID(id, m.txs[i].CreatedAt)
		}
	}
	return nil
}

func (m *memStore) Delete(ctx context.Context, id int64) error {
	m.calls++
	if m.failing != nil {
		return m.failing
	}
	for i := range m.txs {
		if m.txs[i].ID == id {
			m.txs = append(m.txs[:i], m.txs[i+1:]...)
			break
		}
	}
	return nil
}

var fixedNow = time.Date(2025, time.July, 4, 10, 30, 0, 0, time.UTC)

func newWorkflow(store Store) *Workflow {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorkflow(store, ledger.New(), logger, WithClock(func() time.Time { return fixedNow }))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		kind    core.Kind
		draft   Draft
		want    string
		wantCat string
		wantErr error
	}{
		{"income positive", core.Income, Draft{Amount: "100", Description: " sueldo ", Category: "Trabajo"}, "100", "Trabajo", nil},
		{"expense negated", core.Expense, Draft{Amount: "30,5", Description: "cena", Category: "Comida"}, "-30.5", "Comida", nil},
		{"default category", core.Expense, Draft{Amount: "1", Description: "x"}, "-1", "Comida", nil},
		{"zero", core.Expense, Draft{Amount: "0", Description: "x"}, "", "", core.ErrInvalidAmount},
		{"negative", core.Expense, Draft{Amount: "-5", Description: "x"}, "", "", core.ErrInvalidAmount},
		{"empty amount", core.Income, Draft{Amount: "", Description: "x"}, "", "", core.ErrInvalidAmount},
		{"not a number", core.Income, Draft{Amount: "abc", Description: "x"}, "", "", core.ErrInvalidAmount},
		{"blank description", core.Income, Draft{Amount: "5", Description: "   "}, "", "", core.ErrEmptyDescription},
		{"long description", core.Income, Draft{Amount: "5", Description: strings.Repeat("a", 51)}, "", "", core.ErrLongDescription},
		{"category of other kind", core.Income, Draft{Amount: "5", Description: "x", Category: "Comida"}, "", "", core.ErrInvalidCategory},
		{"bad kind", core.Kind("loan"), Draft{Amount: "5", Description: "x"}, "", "", core.ErrInvalidKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.kind, tt.draft)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, ErrRejected)
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Amount.Equal(decimal.RequireFromString(tt.want)), "amount %s", got.Amount)
			assert.Equal(t, tt.wantCat, got.Category)
			assert.Equal(t, strings.TrimSpace(tt.draft.Description), got.Description)
		})
	}
}

func TestRejectedInputNeverReachesStore(t *testing.T) {
	store := &memStore{}
	wf := newWorkflow(store)
	ctx := context.Background()

	drafts := []Draft{
		{Amount: "0", Description: "x"},
		{Amount: "-5", Description: "x"},
		{Amount: "", Description: "x"},
		{Amount: "5", Description: ""},
		{Amount: "5", Description: " \t "},
	}
	for _, d := range drafts {
		_, err := wf.Create(ctx, core.Expense, d)
		assert.ErrorIs(t, err, ErrRejected)
	}

	existing := core.Transaction{ID: 1, Kind: core.Expense, Amount: decimal.NewFromInt(-1), Description: "x", Category: "Comida"}
	_, err := wf.Update(ctx, existing, Draft{Amount: "0", Description: "x"})
	assert.ErrorIs(t, err, ErrRejected)

	assert.Zero(t, store.calls)
	assert.Zero(t, wf.Ledger().Len())
}

func TestCreatePrependsWithStoreID(t *testing.T) {
	store := &memStore{}
	wf := newWorkflow(store)
	ctx := context.Background()

	first, err := wf.Create(ctx, core.Income, Draft{Amount: "100", Description: "sueldo", Category: "Trabajo"})
	require.NoError(t, err)
	second, err := wf.Create(ctx, core.Expense, Draft{Amount: "30", Description: "almuerzo", Category: "Comida"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.True(t, second.Amount.Equal(decimal.NewFromInt(-30)))
	assert.Equal(t, "7/4/2025", second.Date.Display())

	snap := wf.Ledger().Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, second.ID, snap[0].ID)
	assert.Equal(t, first.ID, snap[1].ID)
}

func TestCreateStoreFailureRaisesAlert(t *testing.T) {
	cause := errors.New("database is locked")
	store := &memStore{failing: cause}
	wf := newWorkflow(store)

	_, err := wf.Create(context.Background(), core.Expense, Draft{Amount: "3", Description: "pan"})
	var alert *Alert
	require.ErrorAs(t, err, &alert)
	assert.Equal(t, msgCreateFailed, alert.Message)
	assert.ErrorIs(t, err, cause)
	assert.Zero(t, wf.Ledger().Len())
}

func TestUpdateRequeriesAndKeepsKindAndDate(t *testing.T) {
	store := &memStore{}
	wf := newWorkflow(store)
	ctx := context.Background()

	created, err := wf.Create(ctx, core.Expense, Draft{Amount: "10", Description: "taxi", Category: "Transporte"})
	require.NoError(t, err)

	// A row written elsewhere shows up after the re-query.
	store.txs = append(store.txs, core.Transaction{ID: 50, Kind: core.Income, Amount: decimal.NewFromInt(5), Description: "x", Category: "Otros"})

	updated, err := wf.Update(ctx, created, Draft{Amount: "12.5", Description: "taxi aeropuerto", Category: "Transporte"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, core.Expense, updated.Kind)
	assert.Equal(t, created.Date.Display(), updated.Date.Display())
	assert.True(t, updated.Amount.Equal(decimal.RequireFromString("-12.5")))

	assert.Equal(t, 2, wf.Ledger().Len())
	got, ok := wf.Ledger().Find(created.ID)
	require.True(t, ok)
	assert.Equal(t, "taxi aeropuerto", got.Description)
}

func TestDeleteRequeries(t *testing.T) {
	store := &memStore{}
	wf := newWorkflow(store)
	ctx := context.Background()

	a, err := wf.Create(ctx, core.Expense, Draft{Amount: "1", Description: "a"})
	require.NoError(t, err)
	_, err = wf.Create(ctx, core.Expense, Draft{Amount: "2", Description: "b"})
	require.NoError(t, err)

	require.NoError(t, wf.Delete(ctx, a.ID))
	_, ok := wf.Ledger().Find(a.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, wf.Ledger().Len())

	store.failing = errors.New("disk full")
	err = wf.Delete(ctx, 2)
	var alert *Alert
	require.ErrorAs(t, err, &alert)
	assert.Equal(t, msgDeleteFailed, alert.Message)
	assert.Equal(t, 1, wf.Ledger().Len())
}

// gatedStore pauses the first ListAll after taking its snapshot until
// release is closed.
type gatedStore struct {
	*memStore
	armed   bool
	entered chan struct{}
	release chan struct{}
	created chan struct{}
}

func (g *gatedStore) ListAll(ctx context.Context) ([]core.Transaction, error) {
	txs, err := g.memStore.ListAll(ctx)
	if g.armed {
		g.armed = false
		close(g.entered)
		<-g.release
	}
	return txs, err
}

func (g *gatedStore) Create(ctx context.Context, t core.NewTransaction) (int64, error) {
	id, err := g.memStore.Create(ctx, t)
	close(g.created)
	return id, err
}

func TestCreateDuringReloadIsNotLost(t *testing.T) {
	store := &gatedStore{
		memStore: &memStore{
			nextID: 2,
			txs: []core.Transaction{
				{ID: 2, Kind: core.Expense, Amount: decimal.NewFromInt(-2), Description: "b", Category: "Comida"},
				{ID: 1, Kind: core.Expense, Amount: decimal.NewFromInt(-1), Description: "a", Category: "Comida"},
			},
		},
		entered: make(chan struct{}),
		release: make(chan struct{}),
		created: make(chan struct{}),
	}
	wf := newWorkflow(store)
	ctx := context.Background()
	require.NoError(t, wf.Load(ctx))
	store.armed = true

	deleted := make(chan error, 1)
	go func() { deleted <- wf.Delete(ctx, 1) }()
	<-store.entered

	createdTx := make(chan error, 1)
	go func() {
		_, err := wf.Create(ctx, core.Expense, Draft{Amount: "3", Description: "c"})
		createdTx <- err
	}()

	// A create must not reach the store while the reload is pending.
	select {
	case <-store.created:
		t.Fatal("create ran while a delete was reloading the ledger")
	case <-time.After(50 * time.Millisecond):
	}
	close(store.release)

	require.NoError(t, <-deleted)
	require.NoError(t, <-createdTx)

	all, err := store.memStore.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, len(all), wf.Ledger().Len())
	_, ok := wf.Ledger().Find(3)
	assert.True(t, ok, "new transaction must survive the reload")
}

func TestLoad(t *testing.T) {
	store := &memStore{txs: []core.Transaction{{ID: 7, Kind: core.Income, Amount: decimal.NewFromInt(1), Description: "x", Category: "Otros"}}}
	wf := newWorkflow(store)
	require.NoError(t, wf.Load(context.Background()))
	assert.Equal(t, 1, wf.Ledger().Len())
}

func TestDialogCreateLifecycle(t *testing.T) {
	store := &memStore{}
	wf := newWorkflow(store)
	ctx := context.Background()

	d := wf.NewDialog()
	assert.Equal(t, Closed, d.State())
	_, err := d.Submit(ctx)
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, d.Open(core.Income))
	assert.Equal(t, Open, d.State())
	assert.Equal(t, "Trabajo", d.Draft().Category)
	assert.Equal(t, "Nuevo Ingreso", d.Title())
	assert.ErrorIs(t, d.Open(core.Expense), ErrAlreadyOpen)

	// Rejected input keeps the dialog open with the draft intact.
	require.NoError(t, d.SetDraft(Draft{Amount: "0", Description: "bono", Category: "Regalos"}))
	_, err = d.Submit(ctx)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, Open, d.State())
	assert.Equal(t, "bono", d.Draft().Description)

	// Store failure raises an alert and the dialog stays open for retry.
	store.failing = errors.New("locked")
	require.NoError(t, d.SetDraft(Draft{Amount: "20", Description: "bono", Category: "Regalos"}))
	_, err = d.Submit(ctx)
	var alert *Alert
	require.ErrorAs(t, err, &alert)
	assert.Equal(t, Open, d.State())

	store.failing = nil
	tx, err := d.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Regalos", tx.Category)
	assert.Equal(t, Closed, d.State())
	assert.Equal(t, NewDraft(core.Income), d.Draft())
}

func TestDialogEdit(t *testing.T) {
	store := &memStore{}
	wf := newWorkflow(store)
	ctx := context.Background()

	created, err := wf.Create(ctx, core.Expense, Draft{Amount: "8.25", Description: "cine", Category: "Entretenimiento"})
	require.NoError(t, err)

	d := wf.NewDialog()
	require.NoError(t, d.OpenEdit(created))
	assert.Equal(t, "Editar Gasto", d.Title())
	assert.Equal(t, Draft{Amount: "8.25", Description: "cine", Category: "Entretenimiento"}, d.Draft())

	require.NoError(t, d.SetDraft(Draft{Amount: "9", Description: "cine 3D", Category: "Entretenimiento"}))
	store.failing = errors.New("locked")
	_, err = d.Submit(ctx)
	var alert *Alert
	require.ErrorAs(t, err, &alert)
	assert.Equal(t, msgUpdateFailed, alert.Message)
	assert.Equal(t, Open, d.State())

	store.failing = nil
	got, err := d.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cine 3D", got.Description)
	assert.Equal(t, Closed, d.State())

	d.Close()
	assert.Equal(t, Closed, d.State())
	assert.ErrorIs(t, d.SetDraft(Draft{}), ErrNotOpen)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "State(9)", State(9).String())
}
