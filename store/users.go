package store

import (
	"context"
	"fmt"

	"github.com/exceptionzofficial/testing-backend-akshaya/models"
)

type UserFilter struct {
	Role models.UserRole
}

// CreateUser inserts u unless a user with the same phone exists, in which
// case ErrConditionFailed is returned.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.insert(ctx, u)
}

func (s *Store) GetUser(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	if err := s.first(ctx, &u, "phone = ?", phone); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, phone string, updates map[string]any) error {
	return s.update(ctx, &models.User{}, Where("phone = ?", phone), updates, nil)
}

func (s *Store) ListUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	users := []models.User{}
	if err := q.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("scan users failed: %w", err)
	}
	return users, nil
}
