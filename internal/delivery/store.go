package delivery

import (
	"context"

	"github.com/google/uuid"

	"github.com/inkpress/newsletter/internal/storage"
)

// Store adapts storage.Queries to the TaskStore interface.
type Store struct {
	queries *storage.Queries
}

// NewStore creates the Postgres-backed TaskStore.
func NewStore(queries *storage.Queries) *Store {
	return &Store{queries: queries}
}

// ClaimTask locks one pending delivery queue entry.
func (s *Store) ClaimTask(ctx context.Context) (ClaimedTask, error) {
	task, err := s.queries.ClaimDeliveryTask(ctx)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetIssue fetches the issue content for a claimed task.
func (s *Store) GetIssue(ctx context.Context, issueID uuid.UUID) (storage.NewsletterIssue, error) {
	return s.queries.GetIssue(ctx, issueID)
}

// QueueDepth reports the outstanding backlog size.
func (s *Store) QueueDepth(ctx context.Context) (int64, error) {
	return s.queries.QueueDepth(ctx)
}
