package store

import (
	"context"
	"fmt"

	"github.com/exceptionzofficial/testing-backend-akshaya/models"
)

type RiderFilter struct {
	Status models.RiderStatus
}

func (s *Store) CreateRider(ctx context.Context, r *models.Rider) error {
	return s.insert(ctx, r)
}

func (s *Store) GetRider(ctx context.Context, id string) (*models.Rider, error) {
	var r models.Rider
	if err := s.first(ctx, &r, "id = ?", id); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateRider sets the given columns on rider id, subject to conds.
func (s *Store) UpdateRider(ctx context.Context, id string, updates map[string]any, conds ...Cond) error {
	return s.update(ctx, &models.Rider{}, Where("id = ?", id), updates, conds)
}

func (s *Store) ListRiders(ctx context.Context, f RiderFilter) ([]models.Rider, error) {
	q := s.db.WithContext(ctx).Model(&models.Rider{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	riders := []models.Rider{}
	if err := q.Order("created_at desc").Find(&riders).Error; err != nil {
		return nil, fmt.Errorf("scan riders failed: %w", err)
	}
	return riders, nil
}
