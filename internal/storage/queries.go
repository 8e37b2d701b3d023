package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Querier is the set of database operations used by the HTTP handlers.
// It exists so handlers can be tested against a mock implementation.
type Querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)

	InsertIssue(ctx context.Context, tx pgx.Tx, title, textContent, htmlContent string) (uuid.UUID, error)
	EnqueueDeliveryTasks(ctx context.Context, tx pgx.Tx, issueID uuid.UUID) (int64, error)
	GetIssue(ctx context.Context, issueID uuid.UUID) (NewsletterIssue, error)

	FindSubscriberByEmail(ctx context.Context, email string) (*Subscriber, error)
	InsertSubscriber(ctx context.Context, tx pgx.Tx, email, name string) (uuid.UUID, error)
	StoreConfirmationToken(ctx context.Context, tx pgx.Tx, subscriberID uuid.UUID, token string) error
	GetConfirmationTokenBySubscriber(ctx context.Context, subscriberID uuid.UUID) (string, error)
	GetSubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, error)
	ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error

	GetUserCredentials(ctx context.Context, username string) (UserCredentials, error)
}

// Queries executes SQL against a pgx connection pool.
type Queries struct {
	pool *pgxpool.Pool
}

// New creates a Queries instance backed by the given pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// Begin opens a new transaction on the pool.
func (q *Queries) Begin(ctx context.Context) (pgx.Tx, error) {
	return q.pool.Begin(ctx)
}

// InsertIssue appends a newsletter issue inside the given transaction. The
// issue row is never updated or deleted afterwards.
func (q *Queries) InsertIssue(ctx context.Context, tx pgx.Tx, title, textContent, htmlContent string) (uuid.UUID, error) {
	issueID := uuid.New()
	_, err := tx.Exec(ctx, `
		INSERT INTO newsletter_issues (newsletter_issue_id, title, text_content, html_content, published_at)
		VALUES ($1, $2, $3, $4, now())`,
		issueID, title, textContent, htmlContent,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert newsletter issue: %w", err)
	}
	return issueID, nil
}

// EnqueueDeliveryTasks snapshots every currently confirmed subscriber into
// the delivery queue for the given issue, in the same transaction as the
// issue insert. Subscribers confirming later do not receive this issue.
func (q *Queries) EnqueueDeliveryTasks(ctx context.Context, tx pgx.Tx, issueID uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO issue_delivery_queue (newsletter_issue_id, subscriber_email)
		SELECT $1, email
		FROM subscriptions
		WHERE status = $2`,
		issueID, StatusConfirmed,
	)
	if err != nil {
		return 0, fmt.Errorf("enqueue delivery tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetIssue fetches a newsletter issue by ID.
func (q *Queries) GetIssue(ctx context.Context, issueID uuid.UUID) (NewsletterIssue, error) {
	var issue NewsletterIssue
	err := q.pool.QueryRow(ctx, `
		SELECT newsletter_issue_id, title, text_content, html_content, published_at
		FROM newsletter_issues
		WHERE newsletter_issue_id = $1`,
		issueID,
	).Scan(&issue.ID, &issue.Title, &issue.TextContent, &issue.HTMLContent, &issue.PublishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NewsletterIssue{}, ErrNotFound
		}
		return NewsletterIssue{}, fmt.Errorf("get newsletter issue: %w", err)
	}
	return issue, nil
}

// QueueDepth returns the number of outstanding delivery tasks. Deletion on
// successful send means the table size is exactly the backlog.
func (q *Queries) QueueDepth(ctx context.Context) (int64, error) {
	var depth int64
	if err := q.pool.QueryRow(ctx, `SELECT count(*) FROM issue_delivery_queue`).Scan(&depth); err != nil {
		return 0, fmt.Errorf("count delivery queue: %w", err)
	}
	return depth, nil
}

// FindSubscriberByEmail looks up a subscriber by email address.
// Returns (nil, nil) when no subscriber exists.
func (q *Queries) FindSubscriberByEmail(ctx context.Context, email string) (*Subscriber, error) {
	var sub Subscriber
	err := q.pool.QueryRow(ctx, `
		SELECT id, email, name, status, subscribed_at
		FROM subscriptions
		WHERE email = $1`,
		email,
	).Scan(&sub.ID, &sub.Email, &sub.Name, &sub.Status, &sub.SubscribedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find subscriber by email: %w", err)
	}
	return &sub, nil
}

// InsertSubscriber adds a new subscriber in pending_confirmation status
// inside the given transaction.
func (q *Queries) InsertSubscriber(ctx context.Context, tx pgx.Tx, email, name string) (uuid.UUID, error) {
	subscriberID := uuid.New()
	_, err := tx.Exec(ctx, `
		INSERT INTO subscriptions (id, email, name, status, subscribed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		subscriberID, email, name, StatusPendingConfirmation, time.Now().UTC(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert subscriber: %w", err)
	}
	return subscriberID, nil
}

// StoreConfirmationToken saves the confirmation token for a new subscriber
// inside the given transaction.
func (q *Queries) StoreConfirmationToken(ctx context.Context, tx pgx.Tx, subscriberID uuid.UUID, token string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)`,
		token, subscriberID,
	)
	if err != nil {
		return fmt.Errorf("store confirmation token: %w", err)
	}
	return nil
}

// GetConfirmationTokenBySubscriber returns the stored token for a pending
// subscriber, used to re-send the confirmation email on repeat signups.
func (q *Queries) GetConfirmationTokenBySubscriber(ctx context.Context, subscriberID uuid.UUID) (string, error) {
	var token string
	err := q.pool.QueryRow(ctx, `
		SELECT subscription_token FROM subscription_tokens WHERE subscriber_id = $1`,
		subscriberID,
	).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get confirmation token: %w", err)
	}
	return token, nil
}

// GetSubscriberIDByToken resolves a confirmation token to a subscriber ID.
// Returns ErrNotFound for unknown tokens.
func (q *Queries) GetSubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, error) {
	var subscriberID uuid.UUID
	err := q.pool.QueryRow(ctx, `
		SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1`,
		token,
	).Scan(&subscriberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("get subscriber by token: %w", err)
	}
	return subscriberID, nil
}

// ConfirmSubscriber flips a subscriber to confirmed status.
func (q *Queries) ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE subscriptions SET status = $1 WHERE id = $2`,
		StatusConfirmed, subscriberID,
	)
	if err != nil {
		return fmt.Errorf("confirm subscriber: %w", err)
	}
	return nil
}

// InsertUser creates an operator account with a pre-hashed password.
func (q *Queries) InsertUser(ctx context.Context, username, passwordHash string) (uuid.UUID, error) {
	userID := uuid.New()
	_, err := q.pool.Exec(ctx, `
		INSERT INTO users (user_id, username, password_hash)
		VALUES ($1, $2, $3)`,
		userID, username, passwordHash,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert user: %w", err)
	}
	return userID, nil
}

// UpdateUserPassword replaces the stored password hash for an operator account.
func (q *Queries) UpdateUserPassword(ctx context.Context, username, passwordHash string) error {
	tag, err := q.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2 WHERE username = $1`,
		username, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserCredentials fetches the stored credentials for an operator account.
// Returns ErrNotFound for unknown usernames.
func (q *Queries) GetUserCredentials(ctx context.Context, username string) (UserCredentials, error) {
	var creds UserCredentials
	err := q.pool.QueryRow(ctx, `
		SELECT user_id, password_hash FROM users WHERE username = $1`,
		username,
	).Scan(&creds.UserID, &creds.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserCredentials{}, ErrNotFound
		}
		return UserCredentials{}, fmt.Errorf("get user credentials: %w", err)
	}
	return creds, nil
}
