package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendinha-erp/vendinha-erp/internal/platform/db"
)

// Repository persists customers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, name, type, COALESCE(phone, ''), COALESCE(address, ''), COALESCE(neighborhood, ''), status, outstanding_returnable_depo, created_at`

// Create inserts a customer with zero outstanding deposit.
func (r *Repository) Create(ctx context.Context, input Input) (Customer, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, type, phone, address, neighborhood)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
		RETURNING `+customerColumns,
		input.Name, input.Type, input.Phone, input.Address, input.Neighborhood)
	return scanCustomer(row)
}

// Get fetches one customer.
func (r *Repository) Get(ctx context.Context, id int64) (Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	customer, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return customer, err
}

// List returns customers filtered by status, empty filter matches all.
func (r *Repository) List(ctx context.Context, status string) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE ($1 = '' OR status = $1)
		ORDER BY name`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}

// Update rewrites the writable fields. The cached deposit total is untouched.
func (r *Repository) Update(ctx context.Context, id int64, input Input) (Customer, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, type = $3, phone = NULLIF($4, ''), address = NULLIF($5, ''),
		    neighborhood = NULLIF($6, ''), status = $7
		WHERE id = $1
		RETURNING `+customerColumns,
		id, input.Name, input.Type, input.Phone, input.Address, input.Neighborhood, input.Status)
	customer, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return customer, err
}

// Delete hard-deletes a customer with no sale history. Returnable ledgers
// cascade away with the row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var sales int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM sale_orders WHERE customer_id = $1`, id).Scan(&sales); err != nil {
			return err
		}
		if sales > 0 {
			return ErrHasSales
		}
		tag, err := tx.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	var deposit pgtype.Numeric
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Phone, &c.Address, &c.Neighborhood, &c.Status, &deposit, &c.CreatedAt); err != nil {
		return Customer{}, err
	}
	v, _ := deposit.Float64Value()
	c.OutstandingReturnableDepo = v.Float64
	return c, nil
}
