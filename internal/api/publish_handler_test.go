package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inkpress/newsletter/internal/idempotency"
)

// mockIdemStore implements idempotencyStore for testing.
type mockIdemStore struct {
	tryFn  func(ctx context.Context, userID uuid.UUID, key idempotency.Key) (idempotency.NextAction, error)
	saveFn func(ctx context.Context, tx pgx.Tx, userID uuid.UUID, key idempotency.Key, resp idempotency.SavedResponse) error
}

func (m *mockIdemStore) TryBeginProcessing(ctx context.Context, userID uuid.UUID, key idempotency.Key) (idempotency.NextAction, error) {
	if m.tryFn != nil {
		return m.tryFn(ctx, userID, key)
	}
	return idempotency.StartProcessing{Tx: &fakeTx{}}, nil
}

func (m *mockIdemStore) SaveResponse(ctx context.Context, tx pgx.Tx, userID uuid.UUID, key idempotency.Key, resp idempotency.SavedResponse) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, tx, userID, key, resp)
	}
	return tx.Commit(ctx)
}

func publishForm(key string) url.Values {
	return url.Values{
		"title":           {"Weekly Digest"},
		"text":            {"plain body"},
		"html":            {"<p>html body</p>"},
		"idempotency_key": {key},
	}
}

func doPublish(handler http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/newsletters", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestPublishIssueHandler_FreshKey(t *testing.T) {
	issueID := uuid.New()
	tx := &fakeTx{}

	var insertedTitle string
	queries := &mockQuerier{
		insertIssueFn: func(ctx context.Context, gotTx pgx.Tx, title, textContent, htmlContent string) (uuid.UUID, error) {
			if gotTx != tx {
				t.Error("expected issue insert on the idempotency transaction")
			}
			insertedTitle = title
			return issueID, nil
		},
		enqueueDeliveryTasksFn: func(ctx context.Context, gotTx pgx.Tx, gotIssue uuid.UUID) (int64, error) {
			if gotIssue != issueID {
				t.Errorf("expected enqueue for issue %s, got %s", issueID, gotIssue)
			}
			return 3, nil
		},
	}

	var savedResp idempotency.SavedResponse
	store := &mockIdemStore{
		tryFn: func(ctx context.Context, userID uuid.UUID, key idempotency.Key) (idempotency.NextAction, error) {
			return idempotency.StartProcessing{Tx: tx}, nil
		},
		saveFn: func(ctx context.Context, gotTx pgx.Tx, userID uuid.UUID, key idempotency.Key, resp idempotency.SavedResponse) error {
			savedResp = resp
			return gotTx.Commit(ctx)
		},
	}

	rec := doPublish(PublishIssueHandler(queries, store), publishForm("issue-2026-09"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != "/admin/newsletters" {
		t.Errorf("expected Location /admin/newsletters, got %q", got)
	}
	if insertedTitle != "Weekly Digest" {
		t.Errorf("expected inserted title to match form, got %q", insertedTitle)
	}
	if !tx.committed {
		t.Error("expected transaction to be committed")
	}
	if savedResp.StatusCode != http.StatusSeeOther {
		t.Errorf("expected saved status 303, got %d", savedResp.StatusCode)
	}

	var body publishResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.IssueID != issueID {
		t.Errorf("expected issue ID %s, got %s", issueID, body.IssueID)
	}
	if body.Enqueued != 3 {
		t.Errorf("expected 3 enqueued tasks, got %d", body.Enqueued)
	}
}

func TestPublishIssueHandler_ReplaysSavedResponse(t *testing.T) {
	saved := idempotency.SavedResponse{
		StatusCode: http.StatusSeeOther,
		Headers: http.Header{
			"Content-Type": {"application/json"},
			"Location":     {"/admin/newsletters"},
		},
		Body: []byte(`{"issue_id":"11111111-2222-3333-4444-555555555555","enqueued":7}`),
	}

	inserted := false
	queries := &mockQuerier{
		insertIssueFn: func(ctx context.Context, tx pgx.Tx, title, textContent, htmlContent string) (uuid.UUID, error) {
			inserted = true
			return uuid.Nil, nil
		},
	}
	store := &mockIdemStore{
		tryFn: func(ctx context.Context, userID uuid.UUID, key idempotency.Key) (idempotency.NextAction, error) {
			return idempotency.ReturnSaved{Response: saved}, nil
		},
	}

	rec := doPublish(PublishIssueHandler(queries, store), publishForm("issue-2026-09"))

	if inserted {
		t.Error("expected no second issue insert on replay")
	}
	if rec.Code != saved.StatusCode {
		t.Errorf("expected replayed status %d, got %d", saved.StatusCode, rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/admin/newsletters" {
		t.Errorf("expected replayed Location header, got %q", got)
	}
	if rec.Body.String() != string(saved.Body) {
		t.Errorf("expected byte-identical replayed body, got %q", rec.Body.String())
	}
}

func TestPublishIssueHandler_ConcurrentDuplicate(t *testing.T) {
	store := &mockIdemStore{
		tryFn: func(ctx context.Context, userID uuid.UUID, key idempotency.Key) (idempotency.NextAction, error) {
			return nil, idempotency.ErrConcurrentRequest
		},
	}

	rec := doPublish(PublishIssueHandler(&mockQuerier{}, store), publishForm("issue-2026-09"))

	if rec.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rec.Code)
	}
}

func TestPublishIssueHandler_MissingFields(t *testing.T) {
	form := publishForm("issue-2026-09")
	form.Del("title")
	form.Del("html")

	rec := doPublish(PublishIssueHandler(&mockQuerier{}, &mockIdemStore{}), form)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "title is required") {
		t.Errorf("expected title validation detail, got %s", rec.Body.String())
	}
}

func TestPublishIssueHandler_InvalidIdempotencyKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "empty", key: ""},
		{name: "too long", key: strings.Repeat("k", 51)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doPublish(PublishIssueHandler(&mockQuerier{}, &mockIdemStore{}), publishForm(tt.key))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestPublishIssueHandler_InsertFailureRollsBack(t *testing.T) {
	tx := &fakeTx{}
	queries := &mockQuerier{
		insertIssueFn: func(ctx context.Context, gotTx pgx.Tx, title, textContent, htmlContent string) (uuid.UUID, error) {
			return uuid.Nil, context.DeadlineExceeded
		},
	}
	store := &mockIdemStore{
		tryFn: func(ctx context.Context, userID uuid.UUID, key idempotency.Key) (idempotency.NextAction, error) {
			return idempotency.StartProcessing{Tx: tx}, nil
		},
	}

	rec := doPublish(PublishIssueHandler(queries, store), publishForm("issue-2026-09"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if !tx.rolledBack {
		t.Error("expected transaction rollback on insert failure")
	}
	if tx.committed {
		t.Error("expected no commit on insert failure")
	}
}
