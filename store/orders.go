package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/exceptionzofficial/testing-backend-akshaya/models"
)

// OrderFilter narrows a scan of the orders collection. Zero fields match all.
type OrderFilter struct {
	Status        models.OrderStatus
	CustomerPhone string
	RiderID       string
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	return s.insert(ctx, o)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := s.first(ctx, &o, "id = ?", id); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrder sets the given columns on order id, subject to conds.
func (s *Store) UpdateOrder(ctx context.Context, id string, updates map[string]any, conds ...Cond) error {
	return s.update(ctx, &models.Order{}, Where("id = ?", id), updates, conds)
}

// ListOrders returns matching orders, newest first.
func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerPhone != "" {
		q = q.Where("customer_phone = ?", f.CustomerPhone)
	}
	if f.RiderID != "" {
		q = q.Where("rider_id = ?", f.RiderID)
	}

	orders := []models.Order{}
	if err := q.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("scan orders failed: %w", err)
	}
	// created_at is stored as text; order on the parsed value.
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}
