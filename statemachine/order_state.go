package statemachine

import (
	"fmt"
	"strings"

	"github.com/exceptionzofficial/testing-backend-akshaya/models"
)

// OrderStatuses lists every status an order may hold.
var OrderStatuses = []models.OrderStatus{
	models.OrderPlaced,
	models.OrderInProgress,
	models.OrderDelivered,
	models.OrderCancelled,
}

// Transition documents a step of the normal order lifecycle.
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor string             `json:"actor"`
}

// forwardTransitions is the expected lifecycle. It is descriptive: the ledger
// accepts any valid status, including regressions, and only logs when a
// change falls outside this table.
var forwardTransitions = []Transition{
	{From: models.OrderPlaced, To: models.OrderInProgress, Actor: "assignment"},
	{From: models.OrderPlaced, To: models.OrderCancelled, Actor: "customer or admin"},
	{From: models.OrderInProgress, To: models.OrderDelivered, Actor: "rider"},
	{From: models.OrderInProgress, To: models.OrderCancelled, Actor: "admin"},
}

type transitionKey struct {
	From models.OrderStatus
	To   models.OrderStatus
}

var forwardMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range forwardTransitions {
		m[transitionKey{t.From, t.To}] = true
	}
	return m
}()

// ParseOrderStatus validates a caller-supplied status string.
func ParseOrderStatus(s string) (models.OrderStatus, error) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q, must be one of: %s", s, joinOrderStatuses())
}

// IsForward reports whether from → to is part of the expected lifecycle.
// Re-applying the current status counts as forward.
func IsForward(from, to models.OrderStatus) bool {
	return from == to || forwardMap[transitionKey{from, to}]
}

// IsTerminalOrder reports whether the order has finished its lifecycle.
func IsTerminalOrder(s models.OrderStatus) bool {
	return s == models.OrderDelivered || s == models.OrderCancelled
}

// StampsDelivery reports whether moving to s must set deliveredAt.
func StampsDelivery(s models.OrderStatus) bool {
	return s == models.OrderDelivered
}

// GetOrderTransitions returns the lifecycle table for documentation.
func GetOrderTransitions() []Transition {
	return forwardTransitions
}

func joinOrderStatuses() string {
	parts := make([]string, len(OrderStatuses))
	for i, s := range OrderStatuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
