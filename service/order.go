package service

import (
	"context"
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

type CreateOrderInput struct {
	Items         []models.OrderItem `json:"items" validate:"required,min=1"`
	Customer      *models.Customer   `json:"customer" validate:"required"`
	TotalAmount   Amount             `json:"totalAmount" validate:"gt=0"`
	PaymentMethod string             `json:"paymentMethod"`
	Notes         string             `json:"notes"`
}

// OrderPatch lists the only order fields callers may edit directly.
type OrderPatch struct {
	Notes         *string `json:"notes"`
	PaymentMethod *string `json:"paymentMethod"`
	Customer      *struct {
		Address *string `json:"address"`
	} `json:"customer"`
}

type OrderQuery struct {
	Status        string
	CustomerPhone string
}

// OrderLedger owns order records and their status machine.
type OrderLedger struct {
	store     *store.Store
	publisher events.Publisher
	log       *zap.Logger
	validate  *validator.Validate
	now       func() time.Time
}

func NewOrderLedger(st *store.Store, publisher events.Publisher, log *zap.Logger) *OrderLedger {
	return &OrderLedger{
		store:     st,
		publisher: publisher,
		log:       log.Named("orders"),
		validate:  newValidator(),
		now:       time.Now,
	}
}

// Create records a new order in the placed state with no rider.
func (l *OrderLedger) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := validateInput(l.validate, in); err != nil {
		return nil, err
	}

	now := l.now()
	order := &models.Order{
		ID:            models.NewOrderID(),
		Items:         in.Items,
		Customer:      *in.Customer,
		Status:        models.OrderPlaced,
		TotalAmount:   float64(in.TotalAmount),
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = "cash"
	}

	if err := l.store.CreateOrder(ctx, order); err != nil {
		return nil, storeErr(err, "order")
	}

	metrics.OrderTransitions.WithLabelValues(string(models.OrderPlaced)).Inc()
	l.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_phone", order.Customer.Phone),
		zap.Float64("total_amount", order.TotalAmount),
	)
	l.publisher.Publish(ctx, events.Event{
		Type:       events.OrderCreated,
		OrderID:    order.ID,
		Status:     string(order.Status),
		OccurredAt: now,
	})
	return order, nil
}

// UpdateStatus moves an order to status. Any valid status is accepted,
// including a move back from a terminal state; only delivered stamps
// deliveredAt. The previous status is returned alongside the new record.
func (l *OrderLedger) UpdateStatus(ctx context.Context, id, status string) (*models.Order, models.OrderStatus, error) {
	next, err := statemachine.ParseOrderStatus(status)
	if err != nil {
		return nil, "", apperror.Validation("%s", err.Error())
	}

	var (
		updated *models.Order
		prev    models.OrderStatus
	)
	err = l.store.Transact(ctx, func(tx *store.Store) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			return storeErr(err, "order")
		}

		now := l.now()
		updates := map[string]any{"status": next, "updated_at": now}
		if statemachine.StampsDelivery(next) {
			updates["delivered_at"] = now
			order.DeliveredAt = &now
		}
		if err := tx.UpdateOrder(ctx, id, updates); err != nil {
			return storeErr(err, "order")
		}

		prev = order.Status
		order.Status = next
		order.UpdatedAt = now
		updated = order
		return nil
	})
	if err != nil {
		return nil, "", storeErr(err, "order")
	}

	if !statemachine.IsForward(prev, next) {
		l.log.Warn("order status moved outside the normal lifecycle",
			zap.String("order_id", id),
			zap.String("from", string(prev)),
			zap.String("to", string(next)),
		)
	}
	metrics.OrderTransitions.WithLabelValues(string(next)).Inc()
	l.publisher.Publish(ctx, events.Event{
		Type:       events.OrderStatusChanged,
		OrderID:    id,
		Status:     string(next),
		PrevStatus: string(prev),
		OccurredAt: updated.UpdatedAt,
	})
	return updated, prev, nil
}

// UpdateDetails applies an allow-listed patch.
func (l *OrderLedger) UpdateDetails(ctx context.Context, id string, patch OrderPatch) (*models.Order, error) {
	updates := map[string]any{}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}
	if patch.PaymentMethod != nil {
		updates["payment_method"] = *patch.PaymentMethod
	}
	if patch.Customer != nil && patch.Customer.Address != nil {
		updates["customer_address"] = *patch.Customer.Address
	}
	if len(updates) == 0 {
		return nil, apperror.Validation("no updatable fields supplied")
	}
	updates["updated_at"] = l.now()

	if err := l.store.UpdateOrder(ctx, id, updates); err != nil {
		return nil, storeErr(err, "order")
	}
	return l.Get(ctx, id)
}

func (l *OrderLedger) Get(ctx context.Context, id string) (*models.Order, error) {
	order, err := l.store.GetOrder(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	return order, nil
}

// List returns orders newest first, optionally filtered.
func (l *OrderLedger) List(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	filter := store.OrderFilter{CustomerPhone: q.CustomerPhone}
	if q.Status != "" {
		st, err := statemachine.ParseOrderStatus(q.Status)
		if err != nil {
			return nil, apperror.Validation("%s", err.Error())
		}
		filter.Status = st
	}
	orders, err := l.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	return orders, nil
}

func (l *OrderLedger) ListByStatus(ctx context.Context, status string) ([]models.Order, error) {
	if status == "" {
		return nil, apperror.Validation("status is required")
	}
	return l.List(ctx, OrderQuery{Status: status})
}

// ListByRider returns the orders a rider has been assigned.
func (l *OrderLedger) ListByRider(ctx context.Context, riderID string) ([]models.Order, error) {
	orders, err := l.store.ListOrders(ctx, store.OrderFilter{RiderID: riderID})
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	return orders, nil
}

// Stats counts orders per status plus today's orders and today's revenue.
// Revenue only includes delivered orders created today.
func (l *OrderLedger) Stats(ctx context.Context) (*models.OrderStats, error) {
	orders, err := l.store.ListOrders(ctx, store.OrderFilter{})
	if err != nil {
		return nil, storeErr(err, "orders")
	}

	now := l.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	stats := &models.OrderStats{
		Total:    len(orders),
		ByStatus: make(map[models.OrderStatus]int, len(statemachine.OrderStatuses)),
	}
	for _, s := range statemachine.OrderStatuses {
		stats.ByStatus[s] = 0
	}
	for _, o := range orders {
		stats.ByStatus[o.Status]++
		created := o.CreatedAt.In(now.Location())
		if created.Before(dayStart) || !created.Before(dayEnd) {
			continue
		}
		stats.TodayOrders++
		if o.Status == models.OrderDelivered {
			stats.TodayRevenue += o.TotalAmount
		}
	}
	return stats, nil
}
