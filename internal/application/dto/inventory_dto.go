package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInventoryItemRequest alta de ítem de inventario.
type CreateInventoryItemRequest struct {
	CompanyID string          `json:"company_id" validate:"omitempty,uuid"`
	SKU       string          `json:"sku" validate:"required,min=1,max=60"`
	Name      string          `json:"name" validate:"required,min=1,max=200"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       int             `json:"qty" validate:"min=0"`
}

// UpdateInventoryItemRequest ajuste de cantidad y/o precio.
type UpdateInventoryItemRequest struct {
	Name      *string          `json:"name" validate:"omitempty,min=1,max=200"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Qty       *int             `json:"qty" validate:"omitempty,min=0"`
}

// InventoryItemResponse salida de ítem.
type InventoryItemResponse struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"company_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       int             `json:"qty"`
	CreatedAt time.Time       `json:"created_at"`
}
