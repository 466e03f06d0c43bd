package repository

import (
	"context"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

// InventoryRepository puerto de persistencia de inventario por empresa (ordenado por nombre).
type InventoryRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	GetByID(ctx context.Context, id string) (*entity.InventoryItem, error)
	ListByCompany(ctx context.Context, companyID string, limit int) ([]*entity.InventoryItem, error)
	// Search filtra por nombre o SKU (ILIKE).
	Search(ctx context.Context, companyID, q string, limit int) ([]*entity.InventoryItem, error)
	Update(ctx context.Context, item *entity.InventoryItem) error
}
