package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gastitos/internal/core"
)

type State int

const (
	Closed State = iota
	Open
	Submitting
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrNotOpen     = errors.New("dialog is not open")
	ErrAlreadyOpen = errors.New("dialog is already open")
)

// Dialog is one create or edit dialog. It moves Closed → Open → Submitting
// and back to Closed on success or to Open when the input is rejected or the
// store fails.
type Dialog struct {
	wf *Workflow

	mu      sync.Mutex
	state   State
	kind    core.Kind
	editing *core.Transaction
	draft   Draft
}

func (w *Workflow) NewDialog() *Dialog {
	return &Dialog{wf: w, kind: core.Expense, draft: NewDraft(core.Expense)}
}

// Open starts a create dialog for kind with the default category selected.
func (d *Dialog) Open(kind core.Kind) error {
	if !kind.Valid() {
		return core.ErrInvalidKind
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Closed {
		return ErrAlreadyOpen
	}
	d.state = Open
	d.kind = kind
	d.editing = nil
	d.draft = NewDraft(kind)
	return nil
}

// OpenEdit starts an edit dialog prefilled from t.
func (d *Dialog) OpenEdit(t core.Transaction) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Closed {
		return ErrAlreadyOpen
	}
	d.state = Open
	d.kind = t.Kind
	d.editing = &t
	d.draft = DraftOf(t)
	return nil
}

// SetDraft replaces the field contents while the dialog is open.
func (d *Dialog) SetDraft(draft Draft) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Open {
		return ErrNotOpen
	}
	d.draft = draft
	return nil
}

// Submit sends the draft through the workflow. Rejected input leaves the
// dialog untouched; a store failure returns an *Alert and reopens it.
func (d *Dialog) Submit(ctx context.Context) (core.Transaction, error) {
	d.mu.Lock()
	if d.state != Open {
		d.mu.Unlock()
		return core.Transaction{}, ErrNotOpen
	}
	kind, editing, draft := d.kind, d.editing, d.draft
	if _, err := Normalize(kind, draft); err != nil {
		d.mu.Unlock()
		return core.Transaction{}, err
	}
	d.state = Submitting
	d.mu.Unlock()

	var (
		t   core.Transaction
		err error
	)
	if editing != nil {
		t, err = d.wf.Update(ctx, *editing, draft)
	} else {
		t, err = d.wf.Create(ctx, kind, draft)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.state = Open
		return core.Transaction{}, err
	}
	d.reset()
	return t, nil
}

// Close abandons the dialog and clears the fields.
func (d *Dialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Submitting {
		return
	}
	d.reset()
}

func (d *Dialog) reset() {
	d.state = Closed
	d.editing = nil
	d.draft = NewDraft(d.kind)
}

func (d *Dialog) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dialog) Draft() Draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// Title is the heading shown on the dialog.
func (d *Dialog) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	verb := "Nuevo"
	if d.editing != nil {
		verb = "Editar"
	}
	noun := "Gasto"
	if d.kind == core.Income {
		noun = "Ingreso"
	}
	return verb + " " + noun
}
