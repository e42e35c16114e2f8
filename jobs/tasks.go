package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDepositReconcile recomputes cached customer deposit balances.
	TaskDepositReconcile = "deposits:reconcile"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// DepositReconcilePayload carries scheduling metadata.
type DepositReconcilePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewDepositReconcileTask constructs an Asynq task for deposit reconciliation.
func NewDepositReconcileTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(DepositReconcilePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDepositReconcile, body, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupPayload controls the retention window.
type IdempotencyCleanupPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for key cleanup.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
