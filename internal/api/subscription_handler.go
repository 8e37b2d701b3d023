package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/inkpress/newsletter/internal/domain"
	"github.com/inkpress/newsletter/internal/email"
	"github.com/inkpress/newsletter/internal/logger"
	"github.com/inkpress/newsletter/internal/storage"
)

// SubscribeHandler handles POST /subscriptions.
//
// A new email address is stored in pending_confirmation status and sent a
// confirmation link. Repeating the request for a pending address re-sends the
// link with the original token; a confirmed address is a no-op. Only
// confirmed subscribers receive published issues.
func SubscribeHandler(queries storage.Querier, client email.Client, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		if err := r.ParseForm(); err != nil {
			respondError(w, http.StatusBadRequest, "invalid form body")
			return
		}

		addr, err := domain.ParseEmailAddress(r.PostFormValue("email"))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		name, err := domain.ParseSubscriberName(r.PostFormValue("name"))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		existing, err := queries.FindSubscriberByEmail(r.Context(), addr.String())
		if err != nil {
			log.Error().Err(err).Msg("failed to look up subscriber")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if existing != nil {
			if existing.Status == storage.StatusConfirmed {
				respondError(w, http.StatusConflict, "email address is already subscribed")
				return
			}

			// Pending signup repeated: re-send the original token.
			token, err := queries.GetConfirmationTokenBySubscriber(r.Context(), existing.ID)
			if err != nil {
				log.Error().Err(err).Msg("failed to fetch confirmation token")
				respondError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if err := sendConfirmationEmail(r, client, baseURL, addr.String(), token); err != nil {
				log.Error().Err(err).Str("email", addr.String()).Msg("failed to send confirmation email")
				respondError(w, http.StatusInternalServerError, "failed to send confirmation email")
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"status": "pending_confirmation"})
			return
		}

		token := domain.NewConfirmationToken()

		tx, err := queries.Begin(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to begin transaction")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		subscriberID, err := queries.InsertSubscriber(r.Context(), tx, addr.String(), name.String())
		if err != nil {
			_ = tx.Rollback(r.Context())
			log.Error().Err(err).Msg("failed to insert subscriber")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if err := queries.StoreConfirmationToken(r.Context(), tx, subscriberID, token.String()); err != nil {
			_ = tx.Rollback(r.Context())
			log.Error().Err(err).Msg("failed to store confirmation token")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if err := tx.Commit(r.Context()); err != nil {
			log.Error().Err(err).Msg("failed to commit subscription")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if err := sendConfirmationEmail(r, client, baseURL, addr.String(), token.String()); err != nil {
			log.Error().Err(err).Str("email", addr.String()).Msg("failed to send confirmation email")
			respondError(w, http.StatusInternalServerError, "failed to send confirmation email")
			return
		}

		log.Info().Str("email", addr.String()).Msg("new subscriber pending confirmation")
		respondJSON(w, http.StatusCreated, map[string]string{"status": "pending_confirmation"})
	}
}

func sendConfirmationEmail(r *http.Request, client email.Client, baseURL, recipient, token string) error {
	link := fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", baseURL, token)

	htmlBody := fmt.Sprintf(
		`Welcome to our newsletter!<br />Click <a href="%s">here</a> to confirm your subscription.`,
		link,
	)
	textBody := fmt.Sprintf(
		"Welcome to our newsletter!\nVisit %s to confirm your subscription.",
		link,
	)

	return client.SendEmail(r.Context(), recipient, "Confirm your subscription", htmlBody, textBody)
}

// ConfirmSubscriptionHandler handles GET /subscriptions/confirm.
// The subscription_token query parameter is exchanged for confirmed status.
func ConfirmSubscriptionHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		token, err := domain.ParseConfirmationToken(r.URL.Query().Get("subscription_token"))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		subscriberID, err := queries.GetSubscriberIDByToken(r.Context(), token.String())
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, "unknown subscription token")
				return
			}
			log.Error().Err(err).Msg("failed to resolve confirmation token")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if err := queries.ConfirmSubscriber(r.Context(), subscriberID); err != nil {
			log.Error().Err(err).Msg("failed to confirm subscriber")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		log.Info().Stringer("subscriber_id", subscriberID).Msg("subscription confirmed")
		respondJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
	}
}
