package sales

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendinha-erp/vendinha-erp/internal/inventory"
	"github.com/vendinha-erp/vendinha-erp/internal/returnables"
)

// Product is the slice of the catalog a sale needs.
type Product struct {
	ID           int64
	IsReturnable bool
	DepositValue *float64
}

// TxRepository exposes the writes a sale must make atomically.
type TxRepository interface {
	CustomerExists(ctx context.Context, id int64) (bool, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ProductStock(ctx context.Context, productID int64) (float64, error)

	InsertSale(ctx context.Context, sale SaleOrder) (SaleOrder, error)
	GetSaleForUpdate(ctx context.Context, id int64) (SaleOrder, error)
	SetStatus(ctx context.Context, id int64, status string) error
	InsertMovement(ctx context.Context, m inventory.Movement) error
	CountMovements(ctx context.Context, refType inventory.RefType, refID string) (int, error)

	GetLedger(ctx context.Context, customerID, productID int64) (returnables.Ledger, error)
	SaveLedger(ctx context.Context, ledger returnables.Ledger) (returnables.Ledger, error)
	AdjustCustomerDeposit(ctx context.Context, customerID int64, delta float64) error
}

// Repository persists sales in PostgreSQL.
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

const saleColumns = `id, customer_id, sale_date, total, discount_pct, discount_value, card_fee, deposit_charged, final_total, payment_method, status`

// Get fetches one sale with items and payments.
func (r *Repository) Get(ctx context.Context, id int64) (SaleOrder, error) {
	return getSale(ctx, r.pool, id, "")
}

// ListFilter narrows sale listings.
type ListFilter struct {
	CustomerID int64
	Status     string
	From       time.Time
	To         time.Time
}

// List returns sales newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]SaleOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+saleColumns+`
		FROM sale_orders
		WHERE ($1 = 0 OR customer_id = $1)
		  AND ($2 = '' OR status = $2)
		  AND ($3::timestamptz IS NULL OR sale_date >= $3)
		  AND ($4::timestamptz IS NULL OR sale_date < $4)
		ORDER BY sale_date DESC, id DESC`,
		filter.CustomerID, filter.Status, nullTime(filter.From), nullTime(filter.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []SaleOrder
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getSale(ctx context.Context, q querier, id int64, lock string) (SaleOrder, error) {
	row := q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sale_orders WHERE id = $1`+lock, id)
	sale, err := scanSale(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return SaleOrder{}, ErrNotFound
	}
	if err != nil {
		return SaleOrder{}, err
	}

	itemRows, err := q.Query(ctx, `
		SELECT id, product_id, quantity, unit_price, subtotal, deposit_charged
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id`, id)
	if err != nil {
		return SaleOrder{}, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var item SaleItem
		var qty, price, subtotal pgtype.Numeric
		if err := itemRows.Scan(&item.ID, &item.ProductID, &qty, &price, &subtotal, &item.DepositCharged); err != nil {
			return SaleOrder{}, err
		}
		item.Quantity = numf(qty)
		item.UnitPrice = numf(price)
		item.Subtotal = numf(subtotal)
		sale.Items = append(sale.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return SaleOrder{}, err
	}

	payRows, err := q.Query(ctx, `
		SELECT id, method, amount, status, COALESCE(transaction_id, '')
		FROM payments
		WHERE sale_id = $1
		ORDER BY id`, id)
	if err != nil {
		return SaleOrder{}, err
	}
	defer payRows.Close()
	for payRows.Next() {
		var payment Payment
		var amount pgtype.Numeric
		if err := payRows.Scan(&payment.ID, &payment.Method, &amount, &payment.Status, &payment.TransactionID); err != nil {
			return SaleOrder{}, err
		}
		payment.Amount = numf(amount)
		sale.Payments = append(sale.Payments, payment)
	}
	return sale, payRows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) CustomerExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (t *txRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	var deposit pgtype.Numeric
	err := t.tx.QueryRow(ctx, `SELECT id, is_returnable, deposit_value FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.IsReturnable, &deposit)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	if deposit.Valid {
		v, _ := deposit.Float64Value()
		f := v.Float64
		p.DepositValue = &f
	}
	return p, nil
}

func (t *txRepo) ProductStock(ctx context.Context, productID int64) (float64, error) {
	var stock pgtype.Numeric
	err := t.tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM inventory_movements WHERE product_id = $1`,
		productID).Scan(&stock)
	if err != nil {
		return 0, err
	}
	return numf(stock), nil
}

func (t *txRepo) InsertSale(ctx context.Context, sale SaleOrder) (SaleOrder, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO sale_orders (customer_id, sale_date, total, discount_pct, discount_value, card_fee, deposit_charged, final_total, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		sale.CustomerID, sale.SaleDate, sale.Total, sale.DiscountPct, sale.DiscountValue,
		sale.CardFee, sale.DepositCharged, sale.FinalTotal, sale.PaymentMethod, sale.Status).
		Scan(&sale.ID)
	if err != nil {
		return SaleOrder{}, err
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		err := t.tx.QueryRow(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, subtotal, deposit_charged)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			sale.ID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal, item.DepositCharged).
			Scan(&item.ID)
		if err != nil {
			return SaleOrder{}, err
		}
	}

	for i := range sale.Payments {
		payment := &sale.Payments[i]
		err := t.tx.QueryRow(ctx, `
			INSERT INTO payments (sale_id, method, amount, status, transaction_id)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''))
			RETURNING id`,
			sale.ID, payment.Method, payment.Amount, payment.Status, payment.TransactionID).
			Scan(&payment.ID)
		if err != nil {
			return SaleOrder{}, err
		}
	}
	return sale, nil
}

func (t *txRepo) GetSaleForUpdate(ctx context.Context, id int64) (SaleOrder, error) {
	return getSale(ctx, t.tx, id, " FOR UPDATE")
}

func (t *txRepo) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE sale_orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) InsertMovement(ctx context.Context, m inventory.Movement) error {
	occurredAt := m.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO inventory_movements (product_id, quantity, reason, ref_type, ref_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ProductID, m.Quantity, m.Reason, string(m.RefType), m.RefID, occurredAt)
	return err
}

func (t *txRepo) CountMovements(ctx context.Context, refType inventory.RefType, refID string) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_movements WHERE ref_type = $1 AND ref_id = $2`,
		string(refType), refID).Scan(&count)
	return count, err
}

func (t *txRepo) GetLedger(ctx context.Context, customerID, productID int64) (returnables.Ledger, error) {
	var l returnables.Ledger
	var out, returned, pending, total pgtype.Numeric
	err := t.tx.QueryRow(ctx, `
		SELECT id, customer_id, product_id, quantity_out, quantity_returned, quantity_pending, deposit_value_total
		FROM returnable_ledgers
		WHERE customer_id = $1 AND product_id = $2
		FOR UPDATE`, customerID, productID).
		Scan(&l.ID, &l.CustomerID, &l.ProductID, &out, &returned, &pending, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return returnables.Ledger{}, returnables.ErrNoLedger
	}
	if err != nil {
		return returnables.Ledger{}, err
	}
	l.QuantityOut = numf(out)
	l.QuantityReturned = numf(returned)
	l.QuantityPending = numf(pending)
	l.DepositValueTotal = numf(total)
	return l, nil
}

func (t *txRepo) SaveLedger(ctx context.Context, ledger returnables.Ledger) (returnables.Ledger, error) {
	var out, returned, pending, total pgtype.Numeric
	err := t.tx.QueryRow(ctx, `
		INSERT INTO returnable_ledgers (customer_id, product_id, quantity_out, quantity_returned, quantity_pending, deposit_value_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (customer_id, product_id) DO UPDATE
		SET quantity_out = EXCLUDED.quantity_out,
		    quantity_returned = EXCLUDED.quantity_returned,
		    quantity_pending = EXCLUDED.quantity_pending,
		    deposit_value_total = EXCLUDED.deposit_value_total
		RETURNING id, quantity_out, quantity_returned, quantity_pending, deposit_value_total`,
		ledger.CustomerID, ledger.ProductID, ledger.QuantityOut, ledger.QuantityReturned, ledger.QuantityPending, ledger.DepositValueTotal).
		Scan(&ledger.ID, &out, &returned, &pending, &total)
	if err != nil {
		return returnables.Ledger{}, err
	}
	ledger.QuantityOut = numf(out)
	ledger.QuantityReturned = numf(returned)
	ledger.QuantityPending = numf(pending)
	ledger.DepositValueTotal = numf(total)
	return ledger, nil
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
		return ErrCustomerNotFound
	}
	return nil
}

func scanSale(row pgx.Row) (SaleOrder, error) {
	var s SaleOrder
	var total, discountPct, discountValue, cardFee, deposit, finalTotal pgtype.Numeric
	if err := row.Scan(&s.ID, &s.CustomerID, &s.SaleDate, &total, &discountPct, &discountValue, &cardFee, &deposit, &finalTotal, &s.PaymentMethod, &s.Status); err != nil {
		return SaleOrder{}, err
	}
	s.Total = numf(total)
	s.DiscountPct = numf(discountPct)
	s.DiscountValue = numf(discountValue)
	s.CardFee = numf(cardFee)
	s.DepositCharged = numf(deposit)
	s.FinalTotal = numf(finalTotal)
	return s, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func numf(n pgtype.Numeric) float64 {
	f, _ := n.Float64Value()
	return f.Float64
}
