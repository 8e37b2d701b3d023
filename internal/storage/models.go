package storage

import (
	"time"

	"github.com/google/uuid"
)

// SubscriberStatus is the confirmation state of a subscriber.
type SubscriberStatus string

const (
	StatusPendingConfirmation SubscriberStatus = "pending_confirmation"
	StatusConfirmed           SubscriberStatus = "confirmed"
)

// Subscriber is a row in the subscriptions table.
type Subscriber struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Status       SubscriberStatus
	SubscribedAt time.Time
}

// NewsletterIssue is one accepted newsletter publication. Rows are immutable
// once created and retained for audit.
type NewsletterIssue struct {
	ID          uuid.UUID
	Title       string
	TextContent string
	HTMLContent string
	PublishedAt time.Time
}

// DeliveryTask is one outstanding (issue, recipient) delivery obligation.
// Its presence in issue_delivery_queue is the sole authority for
// "still needs delivery".
type DeliveryTask struct {
	IssueID uuid.UUID
	Email   string
}

// UserCredentials holds the stored credentials of an operator account.
type UserCredentials struct {
	UserID       uuid.UUID
	PasswordHash string
}
