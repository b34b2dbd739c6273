package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/exceptionzofficial/testing-backend-akshaya/apperror"
	"github.com/exceptionzofficial/testing-backend-akshaya/events"
	"github.com/exceptionzofficial/testing-backend-akshaya/metrics"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"
	"github.com/exceptionzofficial/testing-backend-akshaya/notify"
	"github.com/exceptionzofficial/testing-backend-akshaya/store"

	"go.uber.org/zap"
)

// PlaceholderRiderName is stored on an order when neither the caller nor
// the rider record supplies a name.
const PlaceholderRiderName = "Assigned Rider"

type AssignInput struct {
	RiderID   string `json:"riderId"`
	RiderName string `json:"riderName"`
}

// Coordinator ties orders to riders and tells riders about it.
type Coordinator struct {
	store     *store.Store
	ledger    *OrderLedger
	notifier  notify.Notifier
	publisher events.Publisher
	log       *zap.Logger
	timeout   time.Duration
	now       func() time.Time

	wg sync.WaitGroup
}

func NewCoordinator(st *store.Store, ledger *OrderLedger, notifier notify.Notifier, publisher events.Publisher, timeout time.Duration, log *zap.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Coordinator{
		store:     st,
		ledger:    ledger,
		notifier:  notifier,
		publisher: publisher,
		log:       log.Named("assignment"),
		timeout:   timeout,
		now:       time.Now,
	}
}

// Assign gives a placed order to an available rider. The order and rider
// writes happen in one transaction: the order moves to inProgress with the
// rider attached and the rider moves to on-delivery holding the order.
func (c *Coordinator) Assign(ctx context.Context, orderID string, in AssignInput) (*models.Order, error) {
	if strings.TrimSpace(in.RiderID) == "" {
		return nil, apperror.Validation("riderId is required")
	}

	var (
		order *models.Order
		rider *models.Rider
	)
	err := c.store.Transact(ctx, func(tx *store.Store) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID)
		if err != nil {
			return storeErr(err, "order")
		}
		if order.Status != models.OrderPlaced {
			return apperror.Conflict("order %s is %s, only placed orders can be assigned", orderID, order.Status)
		}

		rider, err = tx.GetRider(ctx, in.RiderID)
		if err != nil {
			return storeErr(err, "rider")
		}
		if rider.Status != models.RiderAvailable || rider.CurrentOrderID != nil {
			return apperror.Conflict("rider is not available")
		}

		now := c.now()
		err = tx.UpdateRider(ctx, rider.ID, map[string]any{
			"status":           models.RiderOnDelivery,
			"current_order_id": orderID,
			"updated_at":       now,
		}, store.Where("status = ?", models.RiderAvailable), store.Where("current_order_id IS NULL"))
		if errors.Is(err, store.ErrConditionFailed) {
			return apperror.Conflict("rider is not available")
		}
		if err != nil {
			return err
		}

		name := riderDisplayName(in.RiderName, rider.Name)
		err = tx.UpdateOrder(ctx, orderID, map[string]any{
			"rider_id":   rider.ID,
			"rider_name": name,
			"status":     models.OrderInProgress,
			"updated_at": now,
		}, store.Where("status = ?", models.OrderPlaced))
		if errors.Is(err, store.ErrConditionFailed) {
			return apperror.Conflict("order %s is no longer placed", orderID)
		}
		if err != nil {
			return err
		}

		order.RiderID = strPtr(rider.ID)
		order.RiderName = strPtr(name)
		order.Status = models.OrderInProgress
		order.UpdatedAt = now
		rider.Status = models.RiderOnDelivery
		rider.CurrentOrderID = strPtr(orderID)
		return nil
	})
	if err != nil {
		if apperror.Is(err, apperror.KindConflict) {
			metrics.Assignments.WithLabelValues("conflict").Inc()
		} else {
			metrics.Assignments.WithLabelValues("failed").Inc()
		}
		return nil, storeErr(err, "assignment")
	}

	metrics.Assignments.WithLabelValues("assigned").Inc()
	metrics.OrderTransitions.WithLabelValues(string(models.OrderInProgress)).Inc()
	c.log.Info("rider assigned",
		zap.String("order_id", orderID),
		zap.String("rider_id", rider.ID),
	)
	c.publisher.Publish(ctx, events.Event{
		Type:       events.OrderAssigned,
		OrderID:    orderID,
		RiderID:    rider.ID,
		Status:     string(order.Status),
		PrevStatus: string(models.OrderPlaced),
		OccurredAt: order.UpdatedAt,
	})

	c.dispatch(ctx, notify.Message{
		Token: deref(rider.FCMToken),
		Title: "New Order Assigned",
		Body:  fmt.Sprintf("Order %s has been assigned to you", orderID),
		Data: map[string]string{
			"type":    "order_assigned",
			"orderId": orderID,
		},
	})
	return order, nil
}

// UpdateOrderStatus changes the order status through the ledger and, when
// the order has a rider, notifies that rider.
func (c *Coordinator) UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	order, _, err := c.ledger.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	if order.RiderID == nil || *order.RiderID == "" {
		return order, nil
	}

	rider, err := c.store.GetRider(ctx, *order.RiderID)
	if err != nil {
		// The order update already committed; a missing rider only means
		// nobody to notify.
		c.log.Warn("skipping status notification, rider lookup failed",
			zap.String("order_id", orderID),
			zap.String("rider_id", *order.RiderID),
			zap.Error(err),
		)
		return order, nil
	}

	c.dispatch(ctx, notify.Message{
		Token: deref(rider.FCMToken),
		Title: "Order Status Updated",
		Body:  fmt.Sprintf("Order %s is now %s", orderID, order.Status),
		Data: map[string]string{
			"type":    "order_status",
			"orderId": orderID,
			"status":  string(order.Status),
		},
	})
	return order, nil
}

// dispatch sends msg in the background. The send outlives the request that
// triggered it but is bounded by the notifier timeout.
func (c *Coordinator) dispatch(ctx context.Context, msg notify.Message) {
	if msg.Token == "" {
		c.log.Debug("rider has no push token, notification skipped", zap.String("order_id", msg.Data["orderId"]))
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		if receipt := c.notifier.Send(sendCtx, msg); receipt == nil {
			c.log.Warn("push notification not delivered",
				zap.String("order_id", msg.Data["orderId"]),
				zap.String("type", msg.Data["type"]),
			)
		}
	}()
}

// Wait blocks until every notification in flight has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func riderDisplayName(supplied, stored string) string {
	if n := strings.TrimSpace(supplied); n != "" {
		return n
	}
	if n := strings.TrimSpace(stored); n != "" {
		return n
	}
	return PlaceholderRiderName
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
