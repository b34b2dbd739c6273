// Package notify delivers push notifications to rider devices. Delivery is
// best effort: senders log failures and report them as a nil receipt.
package notify

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_notifier.go -package=mocks github.com/exceptionzofficial/testing-backend-akshaya/notify Notifier

// Message is one push to one device.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Receipt confirms the push provider accepted a message.
type Receipt struct {
	MessageID string
	SentAt    time.Time
}

// Notifier sends a push. It never returns an error: a nil receipt means the
// message was not delivered, and an empty token is a silent no-op.
type Notifier interface {
	Send(ctx context.Context, msg Message) *Receipt
}
