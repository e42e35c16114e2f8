package returnables

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRepository exposes the writes a return must make atomically.
type TxRepository interface {
	GetLedger(ctx context.Context, customerID, productID int64) (Ledger, error)
	SaveLedger(ctx context.Context, ledger Ledger) (Ledger, error)
	AdjustCustomerDeposit(ctx context.Context, customerID int64, delta float64) error
	ProductDepositValue(ctx context.Context, productID int64) (*float64, error)
}

// Repository persists returnable ledgers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn against a transactional repository view.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Outstanding lists ledger rows with pending bottles, joined with names.
// Zero customerID matches every customer.
func (r *Repository) Outstanding(ctx context.Context, customerID int64) ([]OutstandingRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.customer_id, l.product_id, l.quantity_out, l.quantity_returned,
		       l.quantity_pending, l.deposit_value_total, c.name, p.name
		FROM returnable_ledgers l
		JOIN customers c ON c.id = l.customer_id
		JOIN products p ON p.id = l.product_id
		WHERE l.quantity_pending > 0 AND ($1 = 0 OR l.customer_id = $1)
		ORDER BY c.name, p.name`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OutstandingRow
	for rows.Next() {
		var row OutstandingRow
		var out, returned, pending, total pgtype.Numeric
		if err := rows.Scan(&row.ID, &row.CustomerID, &row.ProductID, &out, &returned, &pending, &total, &row.CustomerName, &row.ProductName); err != nil {
			return nil, err
		}
		row.QuantityOut = numf(out)
		row.QuantityReturned = numf(returned)
		row.QuantityPending = numf(pending)
		row.DepositValueTotal = numf(total)
		result = append(result, row)
	}
	return result, rows.Err()
}

// LedgersFor returns every ledger row of one customer.
func (r *Repository) LedgersFor(ctx context.Context, customerID int64) ([]Ledger, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, product_id, quantity_out, quantity_returned, quantity_pending, deposit_value_total
		FROM returnable_ledgers
		WHERE customer_id = $1
		ORDER BY product_id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Ledger
	for rows.Next() {
		ledger, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ledger)
	}
	return result, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) GetLedger(ctx context.Context, customerID, productID int64) (Ledger, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, customer_id, product_id, quantity_out, quantity_returned, quantity_pending, deposit_value_total
		FROM returnable_ledgers
		WHERE customer_id = $1 AND product_id = $2
		FOR UPDATE`, customerID, productID)
	ledger, err := scanLedger(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ledger{}, ErrNoLedger
	}
	return ledger, err
}

func (t *txRepo) SaveLedger(ctx context.Context, ledger Ledger) (Ledger, error) {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO returnable_ledgers (customer_id, product_id, quantity_out, quantity_returned, quantity_pending, deposit_value_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (customer_id, product_id) DO UPDATE
		SET quantity_out = EXCLUDED.quantity_out,
		    quantity_returned = EXCLUDED.quantity_returned,
		    quantity_pending = EXCLUDED.quantity_pending,
		    deposit_value_total = EXCLUDED.deposit_value_total
		RETURNING id, customer_id, product_id, quantity_out, quantity_returned, quantity_pending, deposit_value_total`,
		ledger.CustomerID, ledger.ProductID, ledger.QuantityOut, ledger.QuantityReturned, ledger.QuantityPending, ledger.DepositValueTotal)
	return scanLedger(row)
}

func (t *txRepo) AdjustCustomerDeposit(ctx context.Context, customerID int64, delta float64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE customers
		SET outstanding_returnable_depo = outstanding_returnable_depo + $2
		WHERE id = $1`, customerID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("returnables: customer not found")
	}
	return nil
}

func (t *txRepo) ProductDepositValue(ctx context.Context, productID int64) (*float64, error) {
	var deposit pgtype.Numeric
	err := t.tx.QueryRow(ctx, `SELECT deposit_value FROM products WHERE id = $1`, productID).Scan(&deposit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New("returnables: product not found")
	}
	if err != nil {
		return nil, err
	}
	if !deposit.Valid {
		return nil, nil
	}
	v, _ := deposit.Float64Value()
	f := v.Float64
	return &f, nil
}

func scanLedger(row pgx.Row) (Ledger, error) {
	var l Ledger
	var out, returned, pending, total pgtype.Numeric
	if err := row.Scan(&l.ID, &l.CustomerID, &l.ProductID, &out, &returned, &pending, &total); err != nil {
		return Ledger{}, err
	}
	l.QuantityOut = numf(out)
	l.QuantityReturned = numf(returned)
	l.QuantityPending = numf(pending)
	l.DepositValueTotal = numf(total)
	return l, nil
}

func numf(n pgtype.Numeric) float64 {
	f, _ := n.Float64Value()
	return f.Float64
}
