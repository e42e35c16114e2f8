package inventory

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the movement ledger and derived stock from PostgreSQL.
// Writes to inventory_movements happen inside the purchasing, production and
// sales transactions, never here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Warehouse derives current stock and inventory value for every product.
func (r *Repository) Warehouse(ctx context.Context) ([]WarehouseRow, error) {
	const query = `
		SELECT p.id, p.name, p.category, p.status, p.cost_unit,
		       COALESCE(SUM(m.quantity), 0) AS current_stock
		FROM products p
		LEFT JOIN inventory_movements m ON m.product_id = p.id
		GROUP BY p.id, p.name, p.category, p.status, p.cost_unit
		ORDER BY p.name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WarehouseRow
	for rows.Next() {
		var row WarehouseRow
		var costUnit, stock pgtype.Numeric
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.Category, &row.Status, &costUnit, &stock); err != nil {
			return nil, err
		}
		row.CostUnit = numericToFloat(costUnit)
		row.CurrentStock = numericToFloat(stock)
		row.TotalInventoryValue = row.CurrentStock * row.CostUnit
		result = append(result, row)
	}
	return result, rows.Err()
}

// StockFor returns the true signed stock sum for one product.
func (r *Repository) StockFor(ctx context.Context, productID int64) (float64, error) {
	var stock pgtype.Numeric
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM inventory_movements WHERE product_id = $1`,
		productID).Scan(&stock)
	if err != nil {
		return 0, err
	}
	return numericToFloat(stock), nil
}

// ListMovements returns ledger entries, newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	query := `SELECT id, product_id, quantity, reason, ref_type, ref_id, occurred_at FROM inventory_movements`
	var args []any
	where := ""
	if filter.ProductID != 0 {
		args = append(args, filter.ProductID)
		where = " WHERE product_id = $1"
	}
	if filter.RefType != "" {
		args = append(args, string(filter.RefType))
		if where == "" {
			where = " WHERE ref_type = $1"
		} else {
			where += " AND ref_type = $2"
		}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += where + " ORDER BY occurred_at DESC, id DESC LIMIT " + strconv.Itoa(limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		var qty pgtype.Numeric
		var occurredAt pgtype.Timestamptz
		if err := rows.Scan(&m.ID, &m.ProductID, &qty, &m.Reason, &m.RefType, &m.RefID, &occurredAt); err != nil {
			return nil, err
		}
		m.Quantity = numericToFloat(qty)
		m.OccurredAt = occurredAt.Time
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func numericToFloat(n pgtype.Numeric) float64 {
	f, _ := n.Float64Value()
	return f.Float64
}
