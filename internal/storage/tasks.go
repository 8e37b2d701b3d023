package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNoPendingTasks is returned by ClaimDeliveryTask when the delivery queue
// has no claimable entries.
var ErrNoPendingTasks = errors.New("no pending delivery tasks")

// ClaimedTask is a delivery queue entry locked by this process. The row lock
// is held by the embedded transaction until Complete or Release is called;
// other workers skip locked rows, so a claim is mutually exclusive without
// any in-process coordination.
type ClaimedTask struct {
	Task DeliveryTask

	tx pgx.Tx
}

// ClaimDeliveryTask locks one pending delivery queue entry using
// FOR UPDATE SKIP LOCKED. The returned task must be finished with either
// Complete or Release; abandoning it (e.g. on crash) releases the lock and
// leaves the entry claimable again.
func (q *Queries) ClaimDeliveryTask(ctx context.Context) (*ClaimedTask, error) {
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim transaction: %w", err)
	}

	var task DeliveryTask
	err = tx.QueryRow(ctx, `
		SELECT newsletter_issue_id, subscriber_email
		FROM issue_delivery_queue
		FOR UPDATE
		SKIP LOCKED
		LIMIT 1`,
	).Scan(&task.IssueID, &task.Email)
	if err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoPendingTasks
		}
		return nil, fmt.Errorf("claim delivery task: %w", err)
	}

	return &ClaimedTask{Task: task, tx: tx}, nil
}

// IssueID returns the newsletter issue the task belongs to.
func (c *ClaimedTask) IssueID() uuid.UUID {
	return c.Task.IssueID
}

// Email returns the recipient address of the task.
func (c *ClaimedTask) Email() string {
	return c.Task.Email
}

// Complete deletes the queue entry and commits. Deletion is the sole signal
// of "delivered" (or permanently abandoned), so the commit retires the task
// for good.
func (c *ClaimedTask) Complete(ctx context.Context) error {
	_, err := c.tx.Exec(ctx, `
		DELETE FROM issue_delivery_queue
		WHERE newsletter_issue_id = $1 AND subscriber_email = $2`,
		c.Task.IssueID, c.Task.Email,
	)
	if err != nil {
		_ = c.tx.Rollback(ctx)
		return fmt.Errorf("delete delivery task: %w", err)
	}
	if err := c.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delivery task: %w", err)
	}
	return nil
}

// Release rolls back the claim, leaving the entry in place for a future
// poll cycle.
func (c *ClaimedTask) Release(ctx context.Context) error {
	if err := c.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("release delivery task: %w", err)
	}
	return nil
}
