package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ErrConcurrentRequest is returned when a duplicate request raced this one
// and its outcome did not become visible within the wait budget.
var ErrConcurrentRequest = errors.New("a request with this idempotency key is still in flight")

// SavedResponse is the HTTP response recorded for a completed request, so a
// retry can be answered byte-identically to the original.
type SavedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// NextAction is the outcome of TryBeginProcessing. It is either
// StartProcessing (fresh key, caller proceeds inside the held transaction)
// or ReturnSaved (replay, caller writes the saved response).
type NextAction interface {
	nextAction()
}

// StartProcessing holds the open transaction in which the in-progress
// idempotency row was inserted. The caller must perform its writes on Tx and
// finish with SaveResponse, which commits, or roll Tx back on failure.
type StartProcessing struct {
	Tx pgx.Tx
}

// ReturnSaved carries the response recorded by a previous request with the
// same key.
type ReturnSaved struct {
	Response SavedResponse
}

func (StartProcessing) nextAction() {}
func (ReturnSaved) nextAction()     {}

// Store persists, per (user, key), the outcome of a completed request.
// Concurrency is serialized on the table's (user_id, idempotency_key)
// primary key, not by application-level locking.
type Store struct {
	pool         *pgxpool.Pool
	awaitBudget  time.Duration
	pollInterval time.Duration
	log          zerolog.Logger
}

// NewStore creates a Store on the given pool.
func NewStore(pool *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{
		pool:         pool,
		awaitBudget:  10 * time.Second,
		pollInterval: 100 * time.Millisecond,
		log:          log,
	}
}

// TryBeginProcessing claims the (user, key) pair or replays a prior outcome.
//
// A fresh key inserts the in-progress row inside a new transaction and
// returns StartProcessing holding it. A key with a recorded response returns
// ReturnSaved. A key whose peer request is still mid-flight blocks on the
// primary-key conflict until the peer commits, then replays its response;
// if the outcome does not appear within the wait budget, ErrConcurrentRequest
// is returned.
func (s *Store) TryBeginProcessing(ctx context.Context, userID uuid.UUID, key Key) (NextAction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin idempotency transaction: %w", err)
	}

	// The insert blocks if a concurrent transaction holds an uncommitted row
	// for the same key, and reports zero rows once that peer commits.
	tag, err := tx.Exec(ctx, `
		INSERT INTO idempotency (user_id, idempotency_key, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id, idempotency_key) DO NOTHING`,
		userID, key.String(),
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("insert idempotency row: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return StartProcessing{Tx: tx}, nil
	}

	_ = tx.Rollback(ctx)

	resp, err := s.awaitSavedResponse(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	return ReturnSaved{Response: *resp}, nil
}

// SaveResponse records the response on the in-progress row and commits the
// transaction. This is the single commit point: the issue row and queue
// entries written on tx become durable together with the idempotency record.
func (s *Store) SaveResponse(ctx context.Context, tx pgx.Tx, userID uuid.UUID, key Key, resp SavedResponse) error {
	headers, err := json.Marshal(resp.Headers)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("marshal response headers: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE idempotency
		SET response_status_code = $3,
		    response_headers = $4,
		    response_body = $5
		WHERE user_id = $1 AND idempotency_key = $2`,
		userID, key.String(), resp.StatusCode, headers, resp.Body,
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("save idempotency response: %w", err)
	}
	if tag.RowsAffected() != 1 {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("save idempotency response: in-progress row missing")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit idempotency transaction: %w", err)
	}
	return nil
}

// awaitSavedResponse polls for the peer's recorded response on a fixed
// interval, bounded by the wait budget.
func (s *Store) awaitSavedResponse(ctx context.Context, userID uuid.UUID, key Key) (*SavedResponse, error) {
	deadline := time.Now().Add(s.awaitBudget)

	for {
		resp, err := s.getSavedResponse(ctx, userID, key)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		if time.Now().After(deadline) {
			s.log.Warn().
				Stringer("user_id", userID).
				Str("idempotency_key", key.String()).
				Msg("gave up waiting for concurrent duplicate request")
			return nil, ErrConcurrentRequest
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// getSavedResponse reads the recorded response for (user, key). Returns
// pgx.ErrNoRows while no completed outcome is visible.
func (s *Store) getSavedResponse(ctx context.Context, userID uuid.UUID, key Key) (*SavedResponse, error) {
	var (
		statusCode  int
		headersJSON []byte
		body        []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT response_status_code, response_headers, response_body
		FROM idempotency
		WHERE user_id = $1
		  AND idempotency_key = $2
		  AND response_status_code IS NOT NULL`,
		userID, key.String(),
	).Scan(&statusCode, &headersJSON, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("read saved response: %w", err)
	}

	headers := http.Header{}
	if len(headersJSON) > 0 {
		if err := json.Unmarshal(headersJSON, &headers); err != nil {
			return nil, fmt.Errorf("unmarshal response headers: %w", err)
		}
	}

	return &SavedResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       body,
	}, nil
}
