package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inkpress/newsletter/internal/storage"
)

// mockQuerier implements storage.Querier for testing.
type mockQuerier struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)

	insertIssueFn          func(ctx context.Context, tx pgx.Tx, title, textContent, htmlContent string) (uuid.UUID, error)
	enqueueDeliveryTasksFn func(ctx context.Context, tx pgx.Tx, issueID uuid.UUID) (int64, error)
	getIssueFn             func(ctx context.Context, issueID uuid.UUID) (storage.NewsletterIssue, error)

	findSubscriberByEmailFn           func(ctx context.Context, email string) (*storage.Subscriber, error)
	insertSubscriberFn                func(ctx context.Context, tx pgx.Tx, email, name string) (uuid.UUID, error)
	storeConfirmationTokenFn          func(ctx context.Context, tx pgx.Tx, subscriberID uuid.UUID, token string) error
	getConfirmationTokenBySubscriberFn func(ctx context.Context, subscriberID uuid.UUID) (string, error)
	getSubscriberIDByTokenFn          func(ctx context.Context, token string) (uuid.UUID, error)
	confirmSubscriberFn               func(ctx context.Context, subscriberID uuid.UUID) error

	getUserCredentialsFn func(ctx context.Context, username string) (storage.UserCredentials, error)
}

func (m *mockQuerier) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &fakeTx{}, nil
}

func (m *mockQuerier) InsertIssue(ctx context.Context, tx pgx.Tx, title, textContent, htmlContent string) (uuid.UUID, error) {
	if m.insertIssueFn != nil {
		return m.insertIssueFn(ctx, tx, title, textContent, htmlContent)
	}
	return uuid.New(), nil
}

func (m *mockQuerier) EnqueueDeliveryTasks(ctx context.Context, tx pgx.Tx, issueID uuid.UUID) (int64, error) {
	if m.enqueueDeliveryTasksFn != nil {
		return m.enqueueDeliveryTasksFn(ctx, tx, issueID)
	}
	return 0, nil
}

func (m *mockQuerier) GetIssue(ctx context.Context, issueID uuid.UUID) (storage.NewsletterIssue, error) {
	if m.getIssueFn != nil {
		return m.getIssueFn(ctx, issueID)
	}
	return storage.NewsletterIssue{}, storage.ErrNotFound
}

func (m *mockQuerier) FindSubscriberByEmail(ctx context.Context, email string) (*storage.Subscriber, error) {
	if m.findSubscriberByEmailFn != nil {
		return m.findSubscriberByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockQuerier) InsertSubscriber(ctx context.Context, tx pgx.Tx, email, name string) (uuid.UUID, error) {
	if m.insertSubscriberFn != nil {
		return m.insertSubscriberFn(ctx, tx, email, name)
	}
	return uuid.New(), nil
}

func (m *mockQuerier) StoreConfirmationToken(ctx context.Context, tx pgx.Tx, subscriberID uuid.UUID, token string) error {
	if m.storeConfirmationTokenFn != nil {
		return m.storeConfirmationTokenFn(ctx, tx, subscriberID, token)
	}
	return nil
}

func (m *mockQuerier) GetConfirmationTokenBySubscriber(ctx context.Context, subscriberID uuid.UUID) (string, error) {
	if m.getConfirmationTokenBySubscriberFn != nil {
		return m.getConfirmationTokenBySubscriberFn(ctx, subscriberID)
	}
	return "", storage.ErrNotFound
}

func (m *mockQuerier) GetSubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, error) {
	if m.getSubscriberIDByTokenFn != nil {
		return m.getSubscriberIDByTokenFn(ctx, token)
	}
	return uuid.Nil, storage.ErrNotFound
}

func (m *mockQuerier) ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error {
	if m.confirmSubscriberFn != nil {
		return m.confirmSubscriberFn(ctx, subscriberID)
	}
	return nil
}

func (m *mockQuerier) GetUserCredentials(ctx context.Context, username string) (storage.UserCredentials, error) {
	if m.getUserCredentialsFn != nil {
		return m.getUserCredentialsFn(ctx, username)
	}
	return storage.UserCredentials{}, storage.ErrNotFound
}

// fakeTx is a minimal pgx.Tx for exercising handler transaction flow.
type fakeTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (t *fakeTx) Conn() *pgx.Conn { return nil }
