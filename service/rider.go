package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/exceptionzofficial/testing-backend-akshaya/apperror"
	"github.com/exceptionzofficial/testing-backend-akshaya/events"
	"github.com/exceptionzofficial/testing-backend-akshaya/metrics"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"
	"github.com/exceptionzofficial/testing-backend-akshaya/statemachine"
	"github.com/exceptionzofficial/testing-backend-akshaya/store"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type CreateRiderInput struct {
	Name          string `json:"name" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	VehicleType   string `json:"vehicleType"`
	VehicleNumber string `json:"vehicleNumber"`
}

// maxStatusAttempts bounds how often a status update re-reads a rider that
// changed underneath it.
const maxStatusAttempts = 3

type RiderStatusInput struct {
	Status         string `json:"status" validate:"required"`
	CurrentOrderID string `json:"currentOrderId"`
}

// RiderPatch lists the rider profile fields callers may edit directly.
type RiderPatch struct {
	Name          *string `json:"name"`
	VehicleType   *string `json:"vehicleType"`
	VehicleNumber *string `json:"vehicleNumber"`
	IsActive      *bool   `json:"isActive"`
}

// RiderDirectory owns rider profiles and the rider status machine.
type RiderDirectory struct {
	store     *store.Store
	publisher events.Publisher
	log       *zap.Logger
	validate  *validator.Validate
	now       func() time.Time
}

func NewRiderDirectory(st *store.Store, publisher events.Publisher, log *zap.Logger) *RiderDirectory {
	return &RiderDirectory{
		store:     st,
		publisher: publisher,
		log:       log.Named("riders"),
		validate:  newValidator(),
		now:       time.Now,
	}
}

// newRider fills in the defaults every new rider starts with.
func newRider(id, name, phone, vehicleType, vehicleNumber string, now time.Time) *models.Rider {
	if vehicleType == "" {
		vehicleType = models.DefaultVehicleType
	}
	return &models.Rider{
		ID:            id,
		Name:          name,
		Phone:         phone,
		VehicleType:   vehicleType,
		VehicleNumber: vehicleNumber,
		Status:        models.RiderOffline,
		Rating:        models.DefaultRating,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (d *RiderDirectory) Create(ctx context.Context, in CreateRiderInput) (*models.Rider, error) {
	if err := validateInput(d.validate, in); err != nil {
		return nil, err
	}

	rider := newRider(models.NewRiderID(), in.Name, in.Phone, in.VehicleType, in.VehicleNumber, d.now())
	if err := d.store.CreateRider(ctx, rider); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return nil, apperror.Conflict("rider %s already exists", rider.ID)
		}
		return nil, storeErr(err, "rider")
	}

	d.log.Info("rider created", zap.String("rider_id", rider.ID), zap.String("phone", rider.Phone))
	return rider, nil
}

func (d *RiderDirectory) Get(ctx context.Context, id string) (*models.Rider, error) {
	rider, err := d.store.GetRider(ctx, id)
	if err != nil {
		return nil, storeErr(err, "rider")
	}
	return rider, nil
}

func (d *RiderDirectory) List(ctx context.Context, status string) ([]models.Rider, error) {
	filter := store.RiderFilter{}
	if status != "" {
		st, err := statemachine.ParseRiderStatus(status)
		if err != nil {
			return nil, apperror.Validation("%s", err.Error())
		}
		filter.Status = st
	}
	riders, err := d.store.ListRiders(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "riders")
	}
	return riders, nil
}

// UpdateStatus applies a rider status change. Leaving on-delivery clears the
// current order and counts one completed delivery. Each write is conditional
// on the status it was decided from, so a repeated or racing release only
// counts once and a concurrent assignment is never overwritten.
func (d *RiderDirectory) UpdateStatus(ctx context.Context, id string, in RiderStatusInput) (*models.Rider, error) {
	if err := validateInput(d.validate, in); err != nil {
		return nil, err
	}
	next, err := statemachine.ParseRiderStatus(in.Status)
	if err != nil {
		return nil, apperror.Validation("%s", err.Error())
	}

	var (
		current *models.Rider
		effect  statemachine.RiderEffect
		now     time.Time
	)
	for attempt := 1; ; attempt++ {
		current, err = d.store.GetRider(ctx, id)
		if err != nil {
			return nil, storeErr(err, "rider")
		}
		now = d.now()
		effect = statemachine.RiderEffectOf(current.Status, next, in.CurrentOrderID)
		err = d.apply(ctx, id, current.Status, next, effect, in.CurrentOrderID, now)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrConditionFailed) {
			return nil, storeErr(err, "rider")
		}
		if attempt == maxStatusAttempts {
			return nil, apperror.Conflict("rider %s changed while updating status, retry", id)
		}
		d.log.Debug("rider changed during status update, retrying",
			zap.String("rider_id", id), zap.Int("attempt", attempt))
	}

	d.log.Info("rider status updated",
		zap.String("rider_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)),
		zap.Stringer("effect", effect),
	)
	d.publisher.Publish(ctx, events.Event{
		Type:       events.RiderStatusChanged,
		RiderID:    id,
		Status:     string(next),
		PrevStatus: string(current.Status),
		OccurredAt: now,
	})
	return d.Get(ctx, id)
}

// apply writes the status change only while the rider is still in prev, so
// a concurrent assignment or release is never overwritten. A stale read
// surfaces as store.ErrConditionFailed.
func (d *RiderDirectory) apply(ctx context.Context, id string, prev, next models.RiderStatus, effect statemachine.RiderEffect, orderID string, now time.Time) error {
	updates := map[string]any{"status": next, "updated_at": now}
	switch effect {
	case statemachine.EffectAttachOrder:
		updates["current_order_id"] = orderID
	case statemachine.EffectRelease:
		updates["current_order_id"] = nil
		updates["total_deliveries"] = store.Incr("total_deliveries", 1)
	}
	if err := d.store.UpdateRider(ctx, id, updates, store.Where("status = ?", prev)); err != nil {
		return err
	}
	if effect == statemachine.EffectRelease {
		metrics.CompletedDeliveries.Inc()
	}
	return nil
}

// UpdatePushToken stores the device token used for order notifications.
func (d *RiderDirectory) UpdatePushToken(ctx context.Context, id, token string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.Validation("riderId is required")
	}
	if strings.TrimSpace(token) == "" {
		return apperror.Validation("fcmToken is required")
	}
	err := d.store.UpdateRider(ctx, id, map[string]any{"fcm_token": token, "updated_at": d.now()})
	if err != nil {
		return storeErr(err, "rider")
	}
	d.log.Debug("rider push token updated", zap.String("rider_id", id))
	return nil
}

func (d *RiderDirectory) UpdateProfile(ctx context.Context, id string, patch RiderPatch) (*models.Rider, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperror.Validation("name cannot be empty")
		}
		updates["name"] = *patch.Name
	}
	if patch.VehicleType != nil {
		updates["vehicle_type"] = *patch.VehicleType
	}
	if patch.VehicleNumber != nil {
		updates["vehicle_number"] = *patch.VehicleNumber
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if len(updates) == 0 {
		return nil, apperror.Validation("no updatable fields supplied")
	}
	updates["updated_at"] = d.now()

	if err := d.store.UpdateRider(ctx, id, updates); err != nil {
		return nil, storeErr(err, "rider")
	}
	return d.Get(ctx, id)
}
