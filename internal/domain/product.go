package domain

import "time"

// ProductKind discriminates the two kinds of things the shop sells.
type ProductKind string

const (
	KindBouquet    ProductKind = "bouquet"
	KindHouseplant ProductKind = "houseplant"
)

// Valid reports whether k is a known product kind.
func (k ProductKind) Valid() bool {
	return k == KindBouquet || k == KindHouseplant
}

// ProductRef identifies a product across kinds. Bouquet and houseplant ids
// live in separate namespaces.
type ProductRef struct {
	Kind ProductKind `json:"kind"`
	ID   string      `json:"id"`
}

// Product is a bouquet or houseplant as shown in the catalog. Prices are
// whole dollars.
type Product struct {
	Kind          ProductKind `json:"kind"`
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Price         int64       `json:"price"`
	Image         string      `json:"image,omitempty"`
	Available     int         `json:"available"`
	TotalCapacity int         `json:"totalCapacity,omitempty"`

	Flowers []string `json:"flowers,omitempty"`
	Colors  []string `json:"colors,omitempty"`
	Size    string   `json:"size,omitempty"`

	Care      string `json:"care,omitempty"`
	PlantType string `json:"type,omitempty"`
}

func (p Product) Ref() ProductRef {
	return ProductRef{Kind: p.Kind, ID: p.ID}
}

// InventoryItem is a raw availability row as stored by an inventory source.
type InventoryItem struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Available   int       `json:"available" db:"available"`
	Total       int       `json:"total" db:"total"`
	LastUpdated time.Time `json:"lastUpdated" db:"updated_at"`
}
