package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/exceptionzofficial/testing-backend-akshaya/models"
)

type CatalogFilter struct {
	Kind      models.CatalogKind
	Category  string
	Veg       *bool
	Available *bool
}

func (s *Store) CreateCatalogItem(ctx context.Context, item *models.CatalogItem) error {
	return s.insert(ctx, item)
}

func (s *Store) GetCatalogItem(ctx context.Context, kind models.CatalogKind, itemID string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := s.first(ctx, &item, "kind = ? AND item_id = ?", kind, itemID); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateCatalogItem sets the given columns. An "includes" value may be
// given as a []string; map updates skip gorm serializers, so it is encoded
// here.
func (s *Store) UpdateCatalogItem(ctx context.Context, kind models.CatalogKind, itemID string, updates map[string]any) error {
	if inc, ok := updates["includes"].([]string); ok {
		b, err := json.Marshal(inc)
		if err != nil {
			return fmt.Errorf("encode includes: %w", err)
		}
		updates["includes"] = string(b)
	}
	return s.update(ctx, &models.CatalogItem{}, Where("kind = ? AND item_id = ?", kind, itemID), updates, nil)
}

func (s *Store) DeleteCatalogItem(ctx context.Context, kind models.CatalogKind, itemID string) error {
	res := s.db.WithContext(ctx).Where("kind = ? AND item_id = ?", kind, itemID).Delete(&models.CatalogItem{})
	if res.Error != nil {
		return fmt.Errorf("delete failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListCatalogItems(ctx context.Context, f CatalogFilter) ([]models.CatalogItem, error) {
	q := s.db.WithContext(ctx).Model(&models.CatalogItem{}).Where("kind = ?", f.Kind)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Veg != nil {
		q = q.Where("is_veg = ?", *f.Veg)
	}
	if f.Available != nil {
		q = q.Where("is_available = ?", *f.Available)
	}
	items := []models.CatalogItem{}
	if err := q.Order("name asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("scan catalog failed: %w", err)
	}
	return items, nil
}
