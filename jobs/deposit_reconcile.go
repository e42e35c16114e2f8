package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DepositReconciler repairs drift between the cached customer deposit
// balance and the sum of that customer's returnable ledgers. The cached
// column is adjusted incrementally on every sale and return, so drift
// only appears after manual data fixes or interrupted writes.
type DepositReconciler struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewDepositReconciler constructs a reconciler backed by the given pool.
func NewDepositReconciler(pool *pgxpool.Pool, logger *slog.Logger) *DepositReconciler {
	return &DepositReconciler{pool: pool, logger: logger}
}

// Handle processes TaskDepositReconcile tasks.
func (rec *DepositReconciler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload DepositReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	repaired, err := rec.Reconcile(ctx)
	if err != nil {
		return err
	}
	if repaired > 0 {
		rec.logger.Warn("repaired deposit balances",
			slog.Int64("customers", repaired),
			slog.Time("scheduled_for", payload.ScheduledFor))
	}
	return nil
}

// Reconcile resets every drifted customer balance to the ledger sum and
// returns the number of rows it touched.
func (rec *DepositReconciler) Reconcile(ctx context.Context) (int64, error) {
	const query = `
		UPDATE customers c
		SET outstanding_returnable_depo = ledger.total,
		    updated_at = NOW()
		FROM (
			SELECT cu.id, COALESCE(SUM(rl.deposit_value_total), 0) AS total
			FROM customers cu
			LEFT JOIN returnable_ledgers rl ON rl.customer_id = cu.id
			GROUP BY cu.id
		) AS ledger
		WHERE ledger.id = c.id
		  AND c.outstanding_returnable_depo <> ledger.total`
	tag, err := rec.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IdempotencyCleaner purges stale idempotency keys.
type IdempotencyCleaner struct {
	store  cleanupStore
	logger *slog.Logger
}

type cleanupStore interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// NewIdempotencyCleaner constructs a cleaner over the shared key store.
func NewIdempotencyCleaner(store cleanupStore, logger *slog.Logger) *IdempotencyCleaner {
	return &IdempotencyCleaner{store: store, logger: logger}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (cl *IdempotencyCleaner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	olderThan := payload.OlderThan
	if olderThan <= 0 {
		olderThan = 24 * time.Hour
	}
	if err := cl.store.Cleanup(ctx, olderThan); err != nil {
		return err
	}
	cl.logger.Info("idempotency keys cleaned", slog.Duration("older_than", olderThan))
	return nil
}
