package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/exceptionzofficial/testing-backend-akshaya/apperror"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"
	"github.com/exceptionzofficial/testing-backend-akshaya/store"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type CreateCatalogItemInput struct {
	ItemID      string   `json:"itemId" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       Amount   `json:"price" validate:"gte=0"`
	Category    string   `json:"category"`
	IsVeg       bool     `json:"isVeg"`
	IsAvailable *bool    `json:"isAvailable"`
	Includes    []string `json:"includes"`
}

// CatalogPatch lists the catalog fields callers may edit.
type CatalogPatch struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *Amount   `json:"price"`
	Category    *string   `json:"category"`
	IsVeg       *bool     `json:"isVeg"`
	IsAvailable *bool     `json:"isAvailable"`
	Includes    *[]string `json:"includes"`
}

type CatalogQuery struct {
	Category  string
	Veg       *bool
	Available *bool
}

// Catalog manages menu items, meal packages and single items.
type Catalog struct {
	store    *store.Store
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewCatalog(st *store.Store, log *zap.Logger) *Catalog {
	return &Catalog{
		store:    st,
		log:      log.Named("catalog"),
		validate: newValidator(),
		now:      time.Now,
	}
}

// ParseCatalogKind maps a path segment onto a kind.
func ParseCatalogKind(s string) (models.CatalogKind, error) {
	switch models.CatalogKind(strings.ToLower(s)) {
	case models.KindMenu:
		return models.KindMenu, nil
	case models.KindPackage:
		return models.KindPackage, nil
	case models.KindSingle:
		return models.KindSingle, nil
	}
	return "", apperror.Validation("invalid catalog kind %q, must be one of: menu, package, single", s)
}

func (c *Catalog) Create(ctx context.Context, kind models.CatalogKind, in CreateCatalogItemInput) (*models.CatalogItem, error) {
	if err := validateInput(c.validate, in); err != nil {
		return nil, err
	}
	if kind == models.KindPackage && len(in.Includes) == 0 {
		return nil, apperror.Validation("includes is required for a package")
	}

	now := c.now()
	item := &models.CatalogItem{
		Kind:        kind,
		ItemID:      in.ItemID,
		Name:        in.Name,
		Description: in.Description,
		Price:       float64(in.Price),
		Category:    in.Category,
		IsVeg:       in.IsVeg,
		IsAvailable: true,
		Includes:    in.Includes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}

	if err := c.store.CreateCatalogItem(ctx, item); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return nil, apperror.Conflict("%s item %s already exists", kind, in.ItemID)
		}
		return nil, storeErr(err, "catalog item")
	}
	c.log.Info("catalog item created", zap.String("kind", string(kind)), zap.String("item_id", item.ItemID))
	return item, nil
}

func (c *Catalog) Get(ctx context.Context, kind models.CatalogKind, itemID string) (*models.CatalogItem, error) {
	item, err := c.store.GetCatalogItem(ctx, kind, itemID)
	if err != nil {
		return nil, storeErr(err, string(kind)+" item")
	}
	return item, nil
}

func (c *Catalog) List(ctx context.Context, kind models.CatalogKind, q CatalogQuery) ([]models.CatalogItem, error) {
	items, err := c.store.ListCatalogItems(ctx, store.CatalogFilter{
		Kind:      kind,
		Category:  q.Category,
		Veg:       q.Veg,
		Available: q.Available,
	})
	if err != nil {
		return nil, storeErr(err, "catalog")
	}
	return items, nil
}

func (c *Catalog) Update(ctx context.Context, kind models.CatalogKind, itemID string, patch CatalogPatch) (*models.CatalogItem, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperror.Validation("name cannot be empty")
		}
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, apperror.Validation("price must be at least 0")
		}
		updates["price"] = float64(*patch.Price)
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.IsVeg != nil {
		updates["is_veg"] = *patch.IsVeg
	}
	if patch.IsAvailable != nil {
		updates["is_available"] = *patch.IsAvailable
	}
	if patch.Includes != nil {
		if kind == models.KindPackage && len(*patch.Includes) == 0 {
			return nil, apperror.Validation("includes cannot be empty for a package")
		}
		updates["includes"] = *patch.Includes
	}
	if len(updates) == 0 {
		return nil, apperror.Validation("no updatable fields supplied")
	}
	updates["updated_at"] = c.now()

	if err := c.store.UpdateCatalogItem(ctx, kind, itemID, updates); err != nil {
		return nil, storeErr(err, string(kind)+" item")
	}
	return c.Get(ctx, kind, itemID)
}

func (c *Catalog) Delete(ctx context.Context, kind models.CatalogKind, itemID string) error {
	if err := c.store.DeleteCatalogItem(ctx, kind, itemID); err != nil {
		return storeErr(err, string(kind)+" item")
	}
	c.log.Info("catalog item deleted", zap.String("kind", string(kind)), zap.String("item_id", itemID))
	return nil
}
