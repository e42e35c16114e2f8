package purchasing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendinha-erp/vendinha-erp/internal/inventory"
)

// TxRepository exposes the writes a purchase lifecycle step must make
// atomically.
type TxRepository interface {
	InsertOrder(ctx context.Context, order PurchaseOrder) (PurchaseOrder, error)
	GetOrderForUpdate(ctx context.Context, id int64) (PurchaseOrder, error)
	SetStatus(ctx context.Context, id int64, status string) error
	DeleteOrder(ctx context.Context, id int64) error

	ProductStock(ctx context.Context, productID int64) (float64, error)
	ProductCost(ctx context.Context, productID int64) (float64, error)
	SetProductCost(ctx context.Context, productID int64, cost float64) error
	InsertMovement(ctx context.Context, m inventory.Movement) error
	ReversedQuantities(ctx context.Context, purchaseID int64) (map[int64]float64, error)
}

// Repository persists purchase orders in PostgreSQL.
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

// Get fetches one purchase with its items in authored order.
func (r *Repository) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	return getOrder(ctx, r.pool, id, "")
}

// List returns purchases newest first, optionally by status.
func (r *Repository) List(ctx context.Context, status string) ([]PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, supplier_name, order_date, total_cost, status, created_at
		FROM purchase_orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY order_date DESC, id DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getOrder(ctx context.Context, q querier, id int64, lock string) (PurchaseOrder, error) {
	row := q.QueryRow(ctx, `
		SELECT id, supplier_name, order_date, total_cost, status, created_at
		FROM purchase_orders
		WHERE id = $1`+lock, id)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, ErrNotFound
	}
	if err != nil {
		return PurchaseOrder{}, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, product_id, quantity, unit_cost, subtotal, line_order
		FROM purchase_items
		WHERE purchase_id = $1
		ORDER BY line_order`, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var item PurchaseItem
		var qty, cost, subtotal pgtype.Numeric
		if err := rows.Scan(&item.ID, &item.ProductID, &qty, &cost, &subtotal, &item.LineOrder); err != nil {
			return PurchaseOrder{}, err
		}
		item.Quantity = numf(qty)
		item.UnitCost = numf(cost)
		item.Subtotal = numf(subtotal)
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) InsertOrder(ctx context.Context, order PurchaseOrder) (PurchaseOrder, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (supplier_name, order_date, total_cost, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		order.SupplierName, order.OrderDate, order.TotalCost, order.Status).
		Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return PurchaseOrder{}, err
	}

	for i := range order.Items {
		item := &order.Items[i]
		err := t.tx.QueryRow(ctx, `
			INSERT INTO purchase_items (purchase_id, product_id, quantity, unit_cost, subtotal, line_order)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			order.ID, item.ProductID, item.Quantity, item.UnitCost, item.Subtotal, item.LineOrder).
			Scan(&item.ID)
		if err != nil {
			return PurchaseOrder{}, err
		}
	}
	return order, nil
}

func (t *txRepo) GetOrderForUpdate(ctx context.Context, id int64) (PurchaseOrder, error) {
	return getOrder(ctx, t.tx, id, " FOR UPDATE")
}

func (t *txRepo) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
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

func (t *txRepo) ProductCost(ctx context.Context, productID int64) (float64, error) {
	var cost pgtype.Numeric
	err := t.tx.QueryRow(ctx, `SELECT cost_unit FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&cost)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return numf(cost), nil
}

func (t *txRepo) SetProductCost(ctx context.Context, productID int64, cost float64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE products SET cost_unit = $2 WHERE id = $1`, productID, cost)
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

// ReversedQuantities sums prior reversal movements per product. Reversal
// movements store negative quantities, so the sum is negated back to a
// positive reversed magnitude.
func (t *txRepo) ReversedQuantities(ctx context.Context, purchaseID int64) (map[int64]float64, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT product_id, -SUM(quantity)
		FROM inventory_movements
		WHERE ref_type = $1 AND ref_id = $2
		GROUP BY product_id`,
		string(inventory.RefPurchaseReversal), inventory.PurchaseReversalRef(purchaseID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reversed := make(map[int64]float64)
	for rows.Next() {
		var productID int64
		var qty pgtype.Numeric
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		reversed[productID] = numf(qty)
	}
	return reversed, rows.Err()
}

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var o PurchaseOrder
	var total pgtype.Numeric
	var orderDate pgtype.Date
	if err := row.Scan(&o.ID, &o.SupplierName, &orderDate, &total, &o.Status, &o.CreatedAt); err != nil {
		return PurchaseOrder{}, err
	}
	o.OrderDate = orderDate.Time
	o.TotalCost = numf(total)
	return o, nil
}

func numf(n pgtype.Numeric) float64 {
	f, _ := n.Float64Value()
	return f.Float64
}
