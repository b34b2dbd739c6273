package models

import "time"

// CatalogKind separates the three kinds of sellable things.
type CatalogKind string

const (
	KindMenu    CatalogKind = "menu"
	KindPackage CatalogKind = "package"
	KindSingle  CatalogKind = "single"
)

// CatalogItem covers menu items, meal packages and single items. ItemID is
// chosen by the caller and must be unique within its kind.
type CatalogItem struct {
	Kind        CatalogKind `json:"kind" gorm:"primaryKey;size:16"`
	ItemID      string      `json:"itemId" gorm:"primaryKey;size:64"`
	Name        string      `json:"name" gorm:"not null"`
	Description string      `json:"description"`
	Price       float64     `json:"price" gorm:"not null"`
	Category    string      `json:"category" gorm:"index"`
	IsVeg       bool        `json:"isVeg"`
	IsAvailable bool        `json:"isAvailable"`
	Includes    []string    `json:"includes,omitempty" gorm:"serializer:json"` // package contents
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
