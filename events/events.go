// Package events publishes order and rider domain events for other services.
package events

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks github.com/exceptionzofficial/testing-backend-akshaya/events Publisher

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderAssigned      = "order.assigned"
	RiderStatusChanged = "rider.status_changed"
	RiderRegistered    = "rider.registered"
)

// Event is the payload published after a committed change.
type Event struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId,omitempty"`
	RiderID    string    `json:"riderId,omitempty"`
	Status     string    `json:"status,omitempty"`
	PrevStatus string    `json:"prevStatus,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher is fire-and-forget; implementations log their own failures.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}
