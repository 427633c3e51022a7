package dto

import (
	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/inventory"
)

// ReceiveRequest books stock into a location.
type ReceiveRequest struct {
	StoreID      id.ID           `json:"storeId"`
	ProductID    id.ID           `json:"productId"`
	Location     entity.Location `json:"location"`
	Quantity     int64           `json:"quantity" binding:"min=1"`
	ReorderLevel int64           `json:"reorderLevel" binding:"min=0"`
	Reason       string          `json:"reason"`
}

// ToDomain converts to the domain request.
func (r *ReceiveRequest) ToDomain() inventory.ReceiveRequest {
	return inventory.ReceiveRequest{
		StoreID:      r.StoreID,
		ProductID:    r.ProductID,
		Location:     r.Location,
		Quantity:     r.Quantity,
		ReorderLevel: r.ReorderLevel,
		Reason:       r.Reason,
	}
}

// AdjustRequest is an add, subtract or set on one entry.
type AdjustRequest struct {
	Action string `json:"action" binding:"required"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// MoveRequest transfers quantity to another location of the store.
type MoveRequest struct {
	Destination entity.Location `json:"destination"`
	Quantity    int64           `json:"quantity"`
	Reason      string          `json:"reason"`
}

// BulkUpdateItem is one line of a bulk adjustment.
type BulkUpdateItem struct {
	StockEntryID id.ID  `json:"stockEntryId"`
	Action       string `json:"action"`
	Amount       int64  `json:"amount"`
	Reason       string `json:"reason"`
}

// BulkRequest adjusts many entries independently.
type BulkRequest struct {
	Updates []BulkUpdateItem `json:"updates" binding:"required"`
	Reason  string           `json:"reason"`
}

// ToDomain converts the lines.
func (r *BulkRequest) ToDomain() []inventory.BulkUpdate {
	out := make([]inventory.BulkUpdate, len(r.Updates))
	for i, u := range r.Updates {
		out[i] = inventory.BulkUpdate{
			StockEntryID: u.StockEntryID,
			Action:       u.Action,
			Amount:       u.Amount,
			Reason:       u.Reason,
		}
	}
	return out
}

// AuditItem is a counted product.
type AuditItem struct {
	ProductID       id.ID  `json:"productId"`
	CountedQuantity int64  `json:"countedQuantity" binding:"min=0"`
	Notes           string `json:"notes"`
}

// AuditRequest reconciles counted stock at a location.
type AuditRequest struct {
	StoreID  id.ID           `json:"storeId"`
	Location entity.Location `json:"location"`
	Items    []AuditItem     `json:"items" binding:"required,dive"`
	Notes    string          `json:"notes"`
}

// ToDomain converts to the domain request.
func (r *AuditRequest) ToDomain() inventory.AuditRequest {
	items := make([]inventory.CountedItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = inventory.CountedItem{
			ProductID:       it.ProductID,
			CountedQuantity: it.CountedQuantity,
			Notes:           it.Notes,
		}
	}
	return inventory.AuditRequest{StoreID: r.StoreID, Location: r.Location, Items: items, Notes: r.Notes}
}

// EntryListQuery filters GET /inventory.
type EntryListQuery struct {
	PageQuery
	StoreID      string `form:"storeId"`
	ProductID    string `form:"productId"`
	CategoryID   string `form:"categoryId"`
	LocationKind string `form:"locationKind"`
	LocationID   string `form:"locationId"`
	LowStock     bool   `form:"lowStock"`
	OutOfStock   bool   `form:"outOfStock"`
}

// ToFilter converts to the domain filter.
func (q *EntryListQuery) ToFilter() (inventory.EntryFilter, error) {
	page := q.Page()
	f := inventory.EntryFilter{
		LowStock:   q.LowStock,
		OutOfStock: q.OutOfStock,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	var err error
	if f.StoreID, err = OptionalID("storeId", q.StoreID); err != nil {
		return f, err
	}
	if f.ProductID, err = OptionalID("productId", q.ProductID); err != nil {
		return f, err
	}
	if f.CategoryID, err = OptionalID("categoryId", q.CategoryID); err != nil {
		return f, err
	}
	if q.LocationKind != "" || q.LocationID != "" {
		locID, err := OptionalID("locationId", q.LocationID)
		if err != nil {
			return f, err
		}
		if locID == nil {
			locID = &id.ID{}
		}
		loc, err := entity.NewLocation(q.LocationKind, *locID)
		if err != nil {
			return f, err
		}
		f.Location = &loc
	}
	return f, nil
}

// AlertListQuery filters GET /inventory/alerts.
type AlertListQuery struct {
	PageQuery
	StoreID string `form:"storeId"`
	Status  string `form:"status"`
	Type    string `form:"type"`
}

// ToFilter converts to the domain filter.
func (q *AlertListQuery) ToFilter() (inventory.AlertFilter, error) {
	storeID, err := OptionalID("storeId", q.StoreID)
	if err != nil {
		return inventory.AlertFilter{}, err
	}
	page := q.Page()
	return inventory.AlertFilter{
		StoreID: storeID,
		Status:  inventory.AlertStatus(q.Status),
		Type:    inventory.AlertType(q.Type),
		Limit:   page.Limit,
		Offset:  page.Offset,
	}, nil
}
