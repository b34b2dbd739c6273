package statemachine

import (
	"fmt"

	"github.com/exceptionzofficial/testing-backend-akshaya/models"
)

var RiderStatuses = []models.RiderStatus{
	models.RiderAvailable,
	models.RiderOnDelivery,
	models.RiderOffline,
}

// RiderEffect is the side effect a rider status change has on the record
// beyond writing the new status.
type RiderEffect int

const (
	// EffectNone only updates status.
	EffectNone RiderEffect = iota
	// EffectAttachOrder sets currentOrderId.
	EffectAttachOrder
	// EffectRelease clears currentOrderId and counts one finished delivery.
	EffectRelease
)

func (e RiderEffect) String() string {
	switch e {
	case EffectAttachOrder:
		return "attach_order"
	case EffectRelease:
		return "release"
	default:
		return "none"
	}
}

// ParseRiderStatus validates a caller-supplied status string.
func ParseRiderStatus(s string) (models.RiderStatus, error) {
	for _, st := range RiderStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid rider status %q, must be one of: available, on-delivery, offline", s)
}

// RiderEffectOf decides the effect from the stored prior status, never the
// requested one, so repeating a release after it happened is a plain update.
func RiderEffectOf(prior, next models.RiderStatus, orderID string) RiderEffect {
	switch {
	case next == models.RiderOnDelivery && orderID != "":
		return EffectAttachOrder
	case prior == models.RiderOnDelivery && next != models.RiderOnDelivery:
		return EffectRelease
	default:
		return EffectNone
	}
}
