// Package catalog manages stores, their storage locations and outlets,
// and the product catalog.
package catalog

import (
	"context"
	"strings"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/core/security"
	"stockroom/internal/core/types"
)

// DefaultThresholdQuantity is the reorder level given to new products.
const DefaultThresholdQuantity int64 = 10

// Store is a retail location owned by one admin.
type Store struct {
	entity.BaseEntity
	Name          string      `db:"name" json:"name"`
	Address       string      `db:"address" json:"address"`
	Phone         string      `db:"phone" json:"phone"`
	Email         string      `db:"email" json:"email"`
	AdminID       id.ID       `db:"admin_id" json:"adminId"`
	ManagerID     *id.ID      `db:"manager_id" json:"managerId,omitempty"`
	CreditLimit   types.Money `db:"credit_limit" json:"creditLimit"`
	CurrentCredit types.Money `db:"current_credit" json:"currentCredit"`
	IsActive      bool        `db:"is_active" json:"isActive"`
}

// Owner returns the ownership columns used by access checks.
func (s *Store) Owner() security.StoreOwner {
	return security.StoreOwner{StoreID: s.ID, AdminID: s.AdminID, ManagerID: s.ManagerID}
}

func (s *Store) Validate(ctx context.Context) error {
	if strings.TrimSpace(s.Name) == "" {
		return apperror.NewValidation("store name is required").WithDetail("field", "name")
	}
	if id.IsNil(s.AdminID) {
		return apperror.NewValidation("store admin is required").WithDetail("field", "adminId")
	}
	if s.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit must not be negative").WithDetail("field", "creditLimit")
	}
	return nil
}

// OutletType distinguishes the per-store placeholder outlet from real ones.
type OutletType string

const (
	OutletDummy  OutletType = "dummy"
	OutletCustom OutletType = "custom"
)

// Outlet is a customer point of sale supplied by a store.
type Outlet struct {
	entity.BaseEntity
	Name          string      `db:"name" json:"name"`
	Type          OutletType  `db:"type" json:"type"`
	StoreID       id.ID       `db:"store_id" json:"storeId"`
	ManagerID     *id.ID      `db:"manager_id" json:"managerId,omitempty"`
	Address       string      `db:"address" json:"address"`
	ContactPerson string      `db:"contact_person" json:"contactPerson"`
	Phone         string      `db:"phone" json:"phone"`
	CreditLimit   types.Money `db:"credit_limit" json:"creditLimit"`
	CurrentCredit types.Money `db:"current_credit" json:"currentCredit"`
	IsActive      bool        `db:"is_active" json:"isActive"`
}

func (o *Outlet) Validate(ctx context.Context) error {
	if strings.TrimSpace(o.Name) == "" {
		return apperror.NewValidation("outlet name is required").WithDetail("field", "name")
	}
	if o.Type != OutletDummy && o.Type != OutletCustom {
		return apperror.NewValidation("outlet type must be dummy or custom").WithDetail("type", o.Type)
	}
	if o.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit must not be negative").WithDetail("field", "creditLimit")
	}
	return nil
}

// StorageLocation is a room, or a rack or freezer inside a room.
// Occupancy is derived from stock entries and never stored here.
type StorageLocation struct {
	entity.BaseEntity
	Kind        entity.LocationKind `db:"kind" json:"kind"`
	StoreID     id.ID               `db:"store_id" json:"storeId"`
	RoomID      *id.ID              `db:"room_id" json:"roomId,omitempty"`
	Name        string              `db:"name" json:"name"`
	Number      string              `db:"number" json:"number"`
	Capacity    int64               `db:"capacity" json:"capacity"`
	Temperature *float64            `db:"temperature" json:"temperature,omitempty"`
}

// Location returns the tagged reference used by stock entries.
func (l *StorageLocation) Location() entity.Location {
	return entity.Location{Kind: l.Kind, ID: l.ID}
}

func (l *StorageLocation) Validate(ctx context.Context) error {
	if !l.Kind.Valid() {
		return apperror.NewValidation("location kind must be room, rack or freezer").WithDetail("kind", l.Kind)
	}
	if strings.TrimSpace(l.Name) == "" {
		return apperror.NewValidation("location name is required").WithDetail("field", "name")
	}
	if l.Capacity < 0 {
		return apperror.NewValidation("capacity must not be negative").WithDetail("field", "capacity")
	}
	switch l.Kind {
	case entity.LocationRoom:
		if l.RoomID != nil {
			return apperror.NewValidation("a room cannot belong to a room")
		}
		if l.Temperature != nil {
			return apperror.NewValidation("only freezers have a temperature")
		}
	case entity.LocationRack, entity.LocationFreezer:
		if l.RoomID == nil {
			return apperror.NewValidation("room is required").WithDetail("field", "roomId")
		}
		if l.Kind == entity.LocationRack && l.Temperature != nil {
			return apperror.NewValidation("only freezers have a temperature")
		}
	}
	return nil
}

// Category groups products of one admin.
type Category struct {
	entity.BaseEntity
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	AdminID     id.ID  `db:"admin_id" json:"adminId"`
}

func (c *Category) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("category name is required").WithDetail("field", "name")
	}
	return nil
}

// Product is an item admins distribute to their stores.
type Product struct {
	entity.BaseEntity
	Name              string      `db:"name" json:"name"`
	SKU               string      `db:"sku" json:"sku"`
	Description       string      `db:"description" json:"description"`
	CategoryID        *id.ID      `db:"category_id" json:"categoryId,omitempty"`
	AdminID           id.ID       `db:"admin_id" json:"adminId"`
	UnitPrice         types.Money `db:"unit_price" json:"unitPrice"`
	CostPrice         types.Money `db:"cost_price" json:"costPrice"`
	ThresholdQuantity int64       `db:"threshold_quantity" json:"thresholdQuantity"`
	ImageURL          string      `db:"image_url" json:"imageUrl,omitempty"`
	IsActive          bool        `db:"is_active" json:"isActive"`
}

func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("product name is required").WithDetail("field", "name")
	}
	if strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidation("product sku is required").WithDetail("field", "sku")
	}
	if p.UnitPrice.IsNegative() || p.CostPrice.IsNegative() {
		return apperror.NewValidation("prices must not be negative")
	}
	if p.ThresholdQuantity < 0 {
		return apperror.NewValidation("threshold quantity must not be negative").WithDetail("field", "thresholdQuantity")
	}
	return nil
}

// StoreFilter for listing stores.
type StoreFilter struct {
	Scope    security.AccessScope
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}

// ProductFilter for listing products. Empty AdminIDs means all admins.
type ProductFilter struct {
	AdminIDs   []id.ID
	CategoryID *id.ID
	Search     string
	IsActive   *bool
	Limit      int
	Offset     int
}
