package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendinha-erp/vendinha-erp/internal/platform/db"
)

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, name, category, is_returnable, deposit_value, cost_unit, price_unit, COALESCE(description, ''), status, created_at`

// Create inserts a new product with zero unit cost.
func (r *Repository) Create(ctx context.Context, input CreateInput) (Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, category, is_returnable, deposit_value, price_unit, description)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING `+productColumns,
		input.Name, input.Category, input.IsReturnable, input.DepositValue, input.PriceUnit, input.Description)
	product, err := scanProduct(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, ErrDuplicateName
		}
		return Product{}, err
	}
	return product, nil
}

// Get fetches one product.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return product, err
}

// List returns products filtered by status and category, empty filters match all.
func (r *Repository) List(ctx context.Context, status, category string) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR category = $2)
		ORDER BY name`, status, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// Update rewrites the mutable fields. Unit cost is untouched.
func (r *Repository) Update(ctx context.Context, id int64, input UpdateInput) (Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $2, category = $3, is_returnable = $4, deposit_value = $5,
		    price_unit = $6, description = NULLIF($7, ''), status = $8
		WHERE id = $1
		RETURNING `+productColumns,
		id, input.Name, input.Category, input.IsReturnable, input.DepositValue,
		input.PriceUnit, input.Description, input.Status)
	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, ErrDuplicateName
		}
		return Product{}, err
	}
	return product, nil
}

// Delete hard-deletes a product after verifying no purchase or sale item
// references it. Movements and returnable ledgers cascade away with the row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var refs int
		err := tx.QueryRow(ctx, `
			SELECT (SELECT COUNT(*) FROM purchase_items WHERE product_id = $1)
			     + (SELECT COUNT(*) FROM sale_items WHERE product_id = $1)`, id).Scan(&refs)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrHasDependencies
		}
		tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var deposit pgtype.Numeric
	var cost, price pgtype.Numeric
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.IsReturnable, &deposit, &cost, &price, &p.Description, &p.Status, &p.CreatedAt); err != nil {
		return Product{}, err
	}
	if deposit.Valid {
		v, _ := deposit.Float64Value()
		f := v.Float64
		p.DepositValue = &f
	}
	costV, _ := cost.Float64Value()
	priceV, _ := price.Float64Value()
	p.CostUnit = costV.Float64
	p.PriceUnit = priceV.Float64
	return p, nil
}
