package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/inkpress/newsletter/internal/storage"
)

// ErrInvalidCredentials is returned for unknown usernames and wrong
// passwords alike, so callers cannot distinguish the two.
var ErrInvalidCredentials = errors.New("invalid username or password")

type contextKey string

const userIDKey contextKey = "user_id"

// UserFromContext retrieves the authenticated operator's user ID from the
// request context. Returns uuid.Nil if no user is set.
func UserFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func withUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// CredentialStore looks up stored operator credentials.
type CredentialStore interface {
	GetUserCredentials(ctx context.Context, username string) (storage.UserCredentials, error)
}

// ValidateCredentials checks a username/password pair against the store.
// Unknown usernames burn a bcrypt verification against a fallback hash so
// the response time does not leak whether the account exists.
func ValidateCredentials(ctx context.Context, store CredentialStore, username, password string) (uuid.UUID, error) {
	creds, err := store.GetUserCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = VerifyPassword(fallbackHash, password)
			return uuid.Nil, ErrInvalidCredentials
		}
		return uuid.Nil, err
	}

	if err := VerifyPassword(creds.PasswordHash, password); err != nil {
		return uuid.Nil, ErrInvalidCredentials
	}
	return creds.UserID, nil
}

// BasicAuth returns an HTTP middleware enforcing Basic authentication
// against the credential store. On success, the operator's user ID is stored
// in the request context.
func BasicAuth(store CredentialStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w)
				return
			}

			userID, err := ValidateCredentials(r.Context(), store, username, password)
			if err != nil {
				if errors.Is(err, ErrInvalidCredentials) {
					unauthorized(w)
					return
				}
				http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
				return
			}

			ctx := withUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="publish"`)
	http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
}
