package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem producto en inventario de la empresa (químicos, repuestos).
type InventoryItem struct {
	ID        string
	CompanyID string
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Qty       int
	CreatedAt time.Time
}

// StockValue valor del stock disponible (precio unitario × cantidad).
func (i *InventoryItem) StockValue() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Qty)))
}
