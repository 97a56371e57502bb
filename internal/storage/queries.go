package storage

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by Queries.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// TransactionRow mirrors one row of the transactions table.
type TransactionRow struct {
	ID          int64
	Kind        string
	Amount      float64
	Description string
	Category    string
	Date        string
	CreatedAt   sql.NullString
}

const createTransaction = `-- name: CreateTransaction :execlastid
INSERT INTO transactions (kind, amount, description, category, date)
VALUES (?, ?, ?, ?, ?)
`

type CreateTransactionParams struct {
	Kind        string
	Amount      float64
	Description string
	Category    string
	Date        string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createTransaction,
		arg.Kind,
		arg.Amount,
		arg.Description,
		arg.Category,
		arg.Date,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const listTransactions = `-- name: ListTransactions :many
SELECT id, kind, amount, description, category, date, created_at
FROM transactions
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.Amount,
			&i.Description,
			&i.Category,
			&i.Date,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTransaction = `-- name: GetTransaction :one
SELECT id, kind, amount, description, category, date, created_at
FROM transactions
WHERE id = ?
LIMIT 1
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i TransactionRow
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Amount,
		&i.Description,
		&i.Category,
		&i.Date,
		&i.CreatedAt,
	)
	return i, err
}

const updateTransaction = `-- name: UpdateTransaction :exec
UPDATE transactions
SET kind = ?, amount = ?, description = ?, category = ?, date = ?
WHERE id = ?
`

type UpdateTransactionParams struct {
	Kind        string
	Amount      float64
	Description string
	Category    string
	Date        string
	ID          int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Kind,
		arg.Amount,
		arg.Description,
		arg.Category,
		arg.Date,
		arg.ID,
	)
	return err
}

const deleteTransaction = `-- name: DeleteTransaction :exec
DELETE FROM transactions
WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTransaction, id)
	return err
}
