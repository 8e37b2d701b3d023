package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inkpress/newsletter/internal/domain"
	"github.com/inkpress/newsletter/internal/email"
	"github.com/inkpress/newsletter/internal/storage"
)

// ClaimedTask is a delivery queue entry exclusively held by this worker.
// Exactly one of Complete or Release must be called to finish the claim.
type ClaimedTask interface {
	IssueID() uuid.UUID
	Email() string
	// Complete retires the entry for good (delivered or permanently abandoned).
	Complete(ctx context.Context) error
	// Release returns the entry to the queue for a future poll cycle.
	Release(ctx context.Context) error
}

// TaskStore is the storage surface the worker needs. The production
// implementation is backed by Postgres (see NewStore); tests use an
// in-memory store.
type TaskStore interface {
	// ClaimTask locks one pending entry, returning storage.ErrNoPendingTasks
	// when the queue has no claimable work.
	ClaimTask(ctx context.Context) (ClaimedTask, error)
	GetIssue(ctx context.Context, issueID uuid.UUID) (storage.NewsletterIssue, error)
	QueueDepth(ctx context.Context) (int64, error)
}

// Config holds worker tuning. PollInterval is also the effective retry
// interval for transient send failures.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
}

// Worker drains the issue delivery queue: claim, send, retire. It runs as a
// single background task per process; multiple processes may run workers
// concurrently because claims are mutually exclusive at the row level.
type Worker struct {
	store  TaskStore
	client email.Client
	cfg    Config
	log    zerolog.Logger
}

// NewWorker creates a Worker with injected store and transport.
func NewWorker(store TaskStore, client email.Client, cfg Config, log zerolog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Worker{
		store:  store,
		client: client,
		cfg:    cfg,
		log:    log,
	}
}

// Run polls the queue until ctx is cancelled. An empty queue or a cycle
// error suspends the worker for the poll interval before re-polling.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().
		Dur("poll_interval", w.cfg.PollInterval).
		Int("batch_size", w.cfg.BatchSize).
		Msg("delivery worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("delivery worker stopping")
			return ctx.Err()
		default:
		}

		processed, err := w.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("delivery cycle failed")
		}

		if depth, depthErr := w.store.QueueDepth(ctx); depthErr == nil {
			QueueDepth.Set(float64(depth))
		}

		if processed > 0 && err == nil {
			// More work may be waiting; poll again immediately.
			continue
		}

		select {
		case <-ctx.Done():
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

// RunOnce executes one poll cycle synchronously, processing up to BatchSize
// entries. It returns the number of entries it finished (delivered or
// discarded). A released entry ends the cycle: the claim query has no
// ordering, so continuing the batch would re-claim the same entry
// immediately instead of waiting out the poll interval.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	processed := 0
	for range w.cfg.BatchSize {
		done, err := w.deliverNext(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrNoPendingTasks) {
				return processed, nil
			}
			return processed, err
		}
		if !done {
			return processed, nil
		}
		processed++
	}
	return processed, nil
}

// deliverNext claims and handles a single queue entry. The bool result
// reports whether the entry was retired (deleted); false means it was
// released for a later retry.
func (w *Worker) deliverNext(ctx context.Context) (bool, error) {
	task, err := w.store.ClaimTask(ctx)
	if err != nil {
		return false, err
	}

	issue, err := w.store.GetIssue(ctx, task.IssueID())
	if err != nil {
		_ = task.Release(ctx)
		return false, fmt.Errorf("load issue %s: %w", task.IssueID(), err)
	}

	recipient, err := domain.ParseEmailAddress(task.Email())
	if err != nil {
		// A malformed stored address can never succeed; drop the entry so it
		// does not block the rest of the queue.
		w.log.Warn().
			Err(err).
			Stringer("issue_id", task.IssueID()).
			Msg("skipping recipient with invalid stored address")
		if err := task.Complete(ctx); err != nil {
			return false, fmt.Errorf("discard invalid recipient: %w", err)
		}
		TasksProcessedTotal.WithLabelValues("invalid_address").Inc()
		return true, nil
	}

	sendStart := time.Now()
	sendErr := w.client.SendEmail(ctx, recipient.String(), issue.Title, issue.HTMLContent, issue.TextContent)
	SendDuration.Observe(time.Since(sendStart).Seconds())

	if sendErr != nil {
		if email.IsPermanent(sendErr) {
			w.log.Error().
				Err(sendErr).
				Stringer("issue_id", task.IssueID()).
				Msg("permanent send failure, abandoning delivery")
			if err := task.Complete(ctx); err != nil {
				return false, fmt.Errorf("abandon failed delivery: %w", err)
			}
			TasksProcessedTotal.WithLabelValues("permanent_failure").Inc()
			return true, nil
		}

		// Transient failure: keep the entry; the poll interval is the
		// retry policy.
		w.log.Warn().
			Err(sendErr).
			Stringer("issue_id", task.IssueID()).
			Msg("transient send failure, delivery will be retried")
		if err := task.Release(ctx); err != nil {
			return false, fmt.Errorf("release delivery after transient failure: %w", err)
		}
		TasksProcessedTotal.WithLabelValues("transient_failure").Inc()
		return false, nil
	}

	if err := task.Complete(ctx); err != nil {
		// The email went out but the delete did not commit; the entry stays
		// claimable and the recipient may be emailed again. At-least-once is
		// the accepted tradeoff.
		return false, fmt.Errorf("retire delivered task: %w", err)
	}

	w.log.Info().
		Stringer("issue_id", task.IssueID()).
		Msg("newsletter issue delivered to recipient")
	TasksProcessedTotal.WithLabelValues("delivered").Inc()
	return true, nil
}
