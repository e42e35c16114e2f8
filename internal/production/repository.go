package production

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendinha-erp/vendinha-erp/internal/inventory"
)

// TxRepository exposes the writes a batch lifecycle step must make atomically.
type TxRepository interface {
	InsertBatch(ctx context.Context, batch Batch) (Batch, error)
	UpdateBatch(ctx context.Context, batch Batch) (Batch, error)
	GetBatchForUpdate(ctx context.Context, id int64) (Batch, error)
	SetCompleted(ctx context.Context, id, productID int64) error
	DeleteBatch(ctx context.Context, id int64) error
	DeleteMovementsByRef(ctx context.Context, refType inventory.RefType, refID string) error

	ProductStock(ctx context.Context, productID int64) (float64, error)
	ProductCost(ctx context.Context, productID int64) (float64, error)
	SetProductCost(ctx context.Context, productID int64, cost float64) error
	InsertMovement(ctx context.Context, m inventory.Movement) error
}

// Repository persists production batches in PostgreSQL.
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

const batchColumns = `id, description, batch_date, total_cost, quantity_produced, cost_per_unit, status, ingredients, product_id, created_at`

// Get fetches one batch.
func (r *Repository) Get(ctx context.Context, id int64) (Batch, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM production_batches WHERE id = $1`, id)
	batch, err := scanBatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrNotFound
	}
	return batch, err
}

// List returns batches newest first, optionally by status.
func (r *Repository) List(ctx context.Context, status string) ([]Batch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+batchColumns+`
		FROM production_batches
		WHERE ($1 = '' OR status = $1)
		ORDER BY batch_date DESC, id DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) InsertBatch(ctx context.Context, batch Batch) (Batch, error) {
	var ingredients []byte
	if len(batch.Ingredients) > 0 {
		var err error
		if ingredients, err = json.Marshal(batch.Ingredients); err != nil {
			return Batch{}, err
		}
	}
	err := t.tx.QueryRow(ctx, `
		INSERT INTO production_batches (description, batch_date, total_cost, quantity_produced, cost_per_unit, status, ingredients)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		batch.Description, batch.BatchDate, batch.TotalCost, batch.QuantityProduced, batch.CostPerUnit, batch.Status, ingredients).
		Scan(&batch.ID, &batch.CreatedAt)
	if err != nil {
		return Batch{}, err
	}
	return batch, nil
}

func (t *txRepo) UpdateBatch(ctx context.Context, batch Batch) (Batch, error) {
	var ingredients []byte
	if len(batch.Ingredients) > 0 {
		var err error
		if ingredients, err = json.Marshal(batch.Ingredients); err != nil {
			return Batch{}, err
		}
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE production_batches
		SET description = $2, batch_date = $3, total_cost = $4, quantity_produced = $5, cost_per_unit = $6, ingredients = $7
		WHERE id = $1`,
		batch.ID, batch.Description, batch.BatchDate, batch.TotalCost, batch.QuantityProduced, batch.CostPerUnit, ingredients)
	if err != nil {
		return Batch{}, err
	}
	if tag.RowsAffected() == 0 {
		return Batch{}, ErrNotFound
	}
	return batch, nil
}

func (t *txRepo) GetBatchForUpdate(ctx context.Context, id int64) (Batch, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+batchColumns+` FROM production_batches WHERE id = $1 FOR UPDATE`, id)
	batch, err := scanBatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrNotFound
	}
	return batch, err
}

func (t *txRepo) SetCompleted(ctx context.Context, id, productID int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE production_batches SET status = $2, product_id = $3 WHERE id = $1`,
		id, StatusCompleted, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteBatch(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM production_batches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteMovementsByRef(ctx context.Context, refType inventory.RefType, refID string) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM inventory_movements WHERE ref_type = $1 AND ref_id = $2`,
		string(refType), refID)
	return err
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

func scanBatch(row pgx.Row) (Batch, error) {
	var b Batch
	var total, qty, unit pgtype.Numeric
	var batchDate pgtype.Date
	var ingredients []byte
	var productID *int64
	if err := row.Scan(&b.ID, &b.Description, &batchDate, &total, &qty, &unit, &b.Status, &ingredients, &productID, &b.CreatedAt); err != nil {
		return Batch{}, err
	}
	b.BatchDate = batchDate.Time
	b.TotalCost = numf(total)
	b.QuantityProduced = numf(qty)
	b.CostPerUnit = numf(unit)
	b.ProductID = productID
	if len(ingredients) > 0 {
		if err := json.Unmarshal(ingredients, &b.Ingredients); err != nil {
			return Batch{}, err
		}
	}
	return b, nil
}

func numf(n pgtype.Numeric) float64 {
	f, _ := n.Float64Value()
	return f.Float64
}
