package email

import (
	"context"
	"encoding/json"
	"fmt"
)

const postmarkSendPath = "/email"

// Postmark sends email through the Postmark HTTP API.
type Postmark struct {
	baseURL   string
	authToken string
	sender    string
	client    HTTPClient
}

// NewPostmark creates a Postmark client. baseURL is the API root without a
// trailing slash, sender is the From address for all outgoing mail.
func NewPostmark(baseURL, authToken, sender string, client HTTPClient) *Postmark {
	return &Postmark{
		baseURL:   baseURL,
		authToken: authToken,
		sender:    sender,
		client:    client,
	}
}

// postmarkPayload matches the Postmark single-send JSON schema.
type postmarkPayload struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HTMLBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendEmail delivers one message via the Postmark API. Non-2xx responses are
// classified into permanent or transient SendErrors; network failures are
// returned as transient.
func (p *Postmark) SendEmail(ctx context.Context, recipient, subject, htmlBody, textBody string) error {
	payload := postmarkPayload{
		From:     p.sender,
		To:       recipient,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("postmark: marshal request: %w", err)
	}

	resp, err := p.client.Do(ctx, &HTTPRequest{
		Method: "POST",
		URL:    p.baseURL + postmarkSendPath,
		Headers: map[string]string{
			"Accept":                  "application/json",
			"Content-Type":            "application/json",
			"X-Postmark-Server-Token": p.authToken,
		},
		Body: body,
	})
	if err != nil {
		return &SendError{
			Transport: "postmark",
			Message:   err.Error(),
			Permanent: false,
		}
	}

	if sendErr := classifyHTTPError("postmark", resp.StatusCode, string(resp.Body)); sendErr != nil {
		return sendErr
	}
	return nil
}
