// Package bootstrap provides startup-time initialization routines
// such as seeding the operator account used to publish issues.
package bootstrap

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inkpress/newsletter/internal/auth"
	"github.com/inkpress/newsletter/internal/storage"
)

// userStore is the subset of storage operations needed for seeding.
type userStore interface {
	GetUserCredentials(ctx context.Context, username string) (storage.UserCredentials, error)
	InsertUser(ctx context.Context, username, passwordHash string) (uuid.UUID, error)
	UpdateUserPassword(ctx context.Context, username, passwordHash string) error
}

// SeedOperator ensures the named operator account exists. It is idempotent:
// an existing account keeps its user ID, and its password is rotated to the
// configured value on every startup so an environment override takes effect.
func SeedOperator(ctx context.Context, store userStore, log zerolog.Logger, username, password string) error {
	if username == "" || password == "" {
		log.Debug().Msg("operator seeding skipped, no credentials configured")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = store.GetUserCredentials(ctx, username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		userID, err := store.InsertUser(ctx, username, hash)
		if err != nil {
			return err
		}
		log.Info().
			Stringer("user_id", userID).
			Str("username", username).
			Msg("operator account created")
		return nil
	}

	if err := store.UpdateUserPassword(ctx, username, hash); err != nil {
		return err
	}
	log.Info().Str("username", username).Msg("operator password updated from configuration")
	return nil
}
