package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs aggregate queries for reporting.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Valuation derives stock and value per active product from the ledger.
func (r *Repository) Valuation(ctx context.Context) ([]ValuationRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, COALESCE(SUM(m.quantity), 0), p.cost_unit
		FROM products p
		LEFT JOIN inventory_movements m ON m.product_id = p.id
		WHERE p.status = 'ACTIVE'
		GROUP BY p.id, p.name, p.cost_unit
		ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ValuationRow
	for rows.Next() {
		var row ValuationRow
		var stock, cost pgtype.Numeric
		if err := rows.Scan(&row.ProductID, &row.ProductName, &stock, &cost); err != nil {
			return nil, err
		}
		row.CurrentStock = numf(stock)
		row.CostUnit = numf(cost)
		row.Value = row.CurrentStock * row.CostUnit
		result = append(result, row)
	}
	return result, rows.Err()
}

// ProfitByRange totals finalized sales against cost of goods at current
// unit cost.
func (r *Repository) ProfitByRange(ctx context.Context, from, to time.Time) (revenue, costOfGoods float64, err error) {
	var rev, cogs pgtype.Numeric
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(i.subtotal), 0),
		       COALESCE(SUM(i.quantity * p.cost_unit), 0)
		FROM sale_items i
		JOIN sale_orders s ON s.id = i.sale_id
		JOIN products p ON p.id = i.product_id
		WHERE s.status = 'FINALIZADA' AND s.sale_date >= $1 AND s.sale_date < $2`,
		from, to).Scan(&rev, &cogs)
	if err != nil {
		return 0, 0, err
	}
	return numf(rev), numf(cogs), nil
}

// BestSellers ranks products by quantity sold across finalized sales.
func (r *Repository) BestSellers(ctx context.Context, from, to time.Time, limit int) ([]BestSeller, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, SUM(i.quantity), SUM(i.subtotal)
		FROM sale_items i
		JOIN sale_orders s ON s.id = i.sale_id
		JOIN products p ON p.id = i.product_id
		WHERE s.status = 'FINALIZADA' AND s.sale_date >= $1 AND s.sale_date < $2
		GROUP BY p.id, p.name
		ORDER BY SUM(i.quantity) DESC
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BestSeller
	for rows.Next() {
		var row BestSeller
		var qty, revenue pgtype.Numeric
		if err := rows.Scan(&row.ProductID, &row.ProductName, &qty, &revenue); err != nil {
			return nil, err
		}
		row.QuantitySold = numf(qty)
		row.Revenue = numf(revenue)
		result = append(result, row)
	}
	return result, rows.Err()
}

// DailySummary totals finalized sales for one calendar day.
func (r *Repository) DailySummary(ctx context.Context, day time.Time) (count int, revenue, deposits float64, err error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var rev, dep pgtype.Numeric
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(final_total), 0), COALESCE(SUM(deposit_charged), 0)
		FROM sale_orders
		WHERE status = 'FINALIZADA' AND sale_date >= $1 AND sale_date < $2`,
		start, end).Scan(&count, &rev, &dep)
	if err != nil {
		return 0, 0, 0, err
	}
	return count, numf(rev), numf(dep), nil
}

// DepositsOutstanding sums deposit money held across all ledgers.
func (r *Repository) DepositsOutstanding(ctx context.Context) (float64, error) {
	var total pgtype.Numeric
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(deposit_value_total), 0) FROM returnable_ledgers`).Scan(&total)
	if err != nil {
		return 0, err
	}
	return numf(total), nil
}

func numf(n pgtype.Numeric) float64 {
	f, _ := n.Float64Value()
	return f.Float64
}
