package models

import (
	"strings"

	"github.com/google/uuid"
)

const (
	OrderIDPrefix = "ORD"
	RiderIDPrefix = "RDR"
)

// NewOrderID returns a fresh order key. The prefix is only a readable tag;
// uniqueness comes from the random UUID.
func NewOrderID() string { return newID(OrderIDPrefix) }

// NewRiderID returns a fresh rider key.
func NewRiderID() string { return newID(RiderIDPrefix) }

func newID(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
