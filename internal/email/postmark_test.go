package email

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// mockHTTPClient captures the request and returns a canned response or error.
type mockHTTPClient struct {
	lastReq *HTTPRequest
	resp    *HTTPResponse
	err     error
}

func (m *mockHTTPClient) Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

func TestPostmark_SendEmail_Success(t *testing.T) {
	mock := &mockHTTPClient{resp: &HTTPResponse{StatusCode: 200}}
	pm := NewPostmark("https://api.postmarkapp.com", "token-123", "sender@example.com", mock)

	err := pm.SendEmail(context.Background(), "recipient@example.com", "Hi", "<p>H</p>", "H")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if mock.lastReq.URL != "https://api.postmarkapp.com/email" {
		t.Errorf("unexpected URL: %s", mock.lastReq.URL)
	}
	if mock.lastReq.Method != "POST" {
		t.Errorf("expected POST, got %s", mock.lastReq.Method)
	}
	if got := mock.lastReq.Headers["X-Postmark-Server-Token"]; got != "token-123" {
		t.Errorf("expected server token header, got %q", got)
	}

	var payload postmarkPayload
	if err := json.Unmarshal(mock.lastReq.Body, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.From != "sender@example.com" {
		t.Errorf("expected From sender@example.com, got %s", payload.From)
	}
	if payload.To != "recipient@example.com" {
		t.Errorf("expected To recipient@example.com, got %s", payload.To)
	}
	if payload.HTMLBody != "<p>H</p>" || payload.TextBody != "H" {
		t.Errorf("unexpected bodies: %q / %q", payload.HTMLBody, payload.TextBody)
	}
}

func TestPostmark_SendEmail_ClientErrorIsPermanent(t *testing.T) {
	mock := &mockHTTPClient{resp: &HTTPResponse{StatusCode: 422, Body: []byte("invalid 'To' address")}}
	pm := NewPostmark("https://api.postmarkapp.com", "token", "sender@example.com", mock)

	err := pm.SendEmail(context.Background(), "not-an-address", "Hi", "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsPermanent(err) {
		t.Error("expected a permanent error for 422")
	}
}

func TestPostmark_SendEmail_ServerErrorIsTransient(t *testing.T) {
	mock := &mockHTTPClient{resp: &HTTPResponse{StatusCode: 503, Body: []byte("down for maintenance")}}
	pm := NewPostmark("https://api.postmarkapp.com", "token", "sender@example.com", mock)

	err := pm.SendEmail(context.Background(), "recipient@example.com", "Hi", "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Error("expected a transient error for 503")
	}
}

func TestPostmark_SendEmail_NetworkErrorIsTransient(t *testing.T) {
	mock := &mockHTTPClient{err: errors.New("connection refused")}
	pm := NewPostmark("https://api.postmarkapp.com", "token", "sender@example.com", mock)

	err := pm.SendEmail(context.Background(), "recipient@example.com", "Hi", "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsPermanent(err) {
		t.Error("expected network error to be transient")
	}
}

func TestPostmark_SendEmail_RateLimitIsTransient(t *testing.T) {
	mock := &mockHTTPClient{resp: &HTTPResponse{StatusCode: 429, Body: []byte("rate limit exceeded")}}
	pm := NewPostmark("https://api.postmarkapp.com", "token", "sender@example.com", mock)

	err := pm.SendEmail(context.Background(), "recipient@example.com", "Hi", "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsPermanent(err) {
		t.Error("expected 429 to be transient")
	}
}
