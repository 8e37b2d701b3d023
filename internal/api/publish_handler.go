package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inkpress/newsletter/internal/auth"
	"github.com/inkpress/newsletter/internal/idempotency"
	"github.com/inkpress/newsletter/internal/logger"
	"github.com/inkpress/newsletter/internal/storage"
)

// idempotencyStore is the subset of the idempotency store used by the
// publish handler. It exists so the handler can be tested against a mock.
type idempotencyStore interface {
	TryBeginProcessing(ctx context.Context, userID uuid.UUID, key idempotency.Key) (idempotency.NextAction, error)
	SaveResponse(ctx context.Context, tx pgx.Tx, userID uuid.UUID, key idempotency.Key, resp idempotency.SavedResponse) error
}

// publishResponse is the JSON body recorded for a successful publish and
// replayed verbatim on retries.
type publishResponse struct {
	IssueID  uuid.UUID `json:"issue_id"`
	Enqueued int64     `json:"enqueued"`
}

// PublishIssueHandler handles POST /admin/newsletters.
//
// The issue insert, the delivery queue snapshot, and the idempotency record
// commit atomically. Retries carrying the same Idempotency-Key replay the
// recorded response without publishing a second time; a retry racing the
// original gets the original's response once it commits, or 409 if it does
// not commit within the wait budget.
func PublishIssueHandler(queries storage.Querier, store idempotencyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		userID := auth.UserFromContext(r.Context())

		if err := r.ParseForm(); err != nil {
			respondError(w, http.StatusBadRequest, "invalid form body")
			return
		}

		title := r.PostFormValue("title")
		textContent := r.PostFormValue("text")
		htmlContent := r.PostFormValue("html")
		rawKey := r.PostFormValue("idempotency_key")

		var errs []string
		if title == "" {
			errs = append(errs, "title is required")
		}
		if textContent == "" {
			errs = append(errs, "text is required")
		}
		if htmlContent == "" {
			errs = append(errs, "html is required")
		}
		if len(errs) > 0 {
			respondValidationErrors(w, errs)
			return
		}

		key, err := idempotency.ParseKey(rawKey)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		action, err := store.TryBeginProcessing(r.Context(), userID, key)
		if err != nil {
			if errors.Is(err, idempotency.ErrConcurrentRequest) {
				respondError(w, http.StatusConflict, "a request with this idempotency key is already being processed")
				return
			}
			log.Error().Err(err).Msg("failed to claim idempotency key")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		switch a := action.(type) {
		case idempotency.ReturnSaved:
			log.Info().
				Stringer("user_id", userID).
				Str("idempotency_key", key.String()).
				Msg("replaying saved publish response")
			writeSavedResponse(w, a.Response)

		case idempotency.StartProcessing:
			publishIssue(w, r, queries, store, a.Tx, userID, key, title, textContent, htmlContent)

		default:
			respondError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

// publishIssue performs the fresh-key path: insert the issue, snapshot
// confirmed subscribers into the delivery queue, and record the response, all
// on the transaction held by the idempotency claim.
func publishIssue(
	w http.ResponseWriter,
	r *http.Request,
	queries storage.Querier,
	store idempotencyStore,
	tx pgx.Tx,
	userID uuid.UUID,
	key idempotency.Key,
	title, textContent, htmlContent string,
) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	issueID, err := queries.InsertIssue(ctx, tx, title, textContent, htmlContent)
	if err != nil {
		_ = tx.Rollback(ctx)
		log.Error().Err(err).Msg("failed to insert newsletter issue")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	enqueued, err := queries.EnqueueDeliveryTasks(ctx, tx, issueID)
	if err != nil {
		_ = tx.Rollback(ctx)
		log.Error().Err(err).Msg("failed to enqueue delivery tasks")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	body, err := json.Marshal(publishResponse{IssueID: issueID, Enqueued: enqueued})
	if err != nil {
		_ = tx.Rollback(ctx)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	saved := seeOtherResponse("/admin/newsletters", body)

	if err := store.SaveResponse(ctx, tx, userID, key, saved); err != nil {
		log.Error().Err(err).Msg("failed to commit publish")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	log.Info().
		Stringer("issue_id", issueID).
		Int64("enqueued", enqueued).
		Msg("newsletter issue published")

	writeSavedResponse(w, saved)
}
