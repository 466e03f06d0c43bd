package postgres

import (
	"context"
	"fmt"

	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo inventario de químicos y repuestos por empresa.
type InventoryRepo struct {
	db Querier
}

// NewInventoryRepository construye el repositorio.
func NewInventoryRepository(db Querier) *InventoryRepo {
	return &InventoryRepo{db: db}
}

const inventoryColumns = `id, company_id, sku, name, unit_price, qty, created_at`

// Create persiste un ítem; un SKU repetido en la empresa devuelve domain.ErrDuplicate.
func (r *InventoryRepo) Create(ctx context.Context, i *entity.InventoryItem) error {
	_, err := r.db.Exec(ctx, `INSERT INTO inventory_items (`+inventoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		i.ID, i.CompanyID, i.SKU, i.Name, i.UnitPrice, i.Qty, i.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert inventory item: %w", err)
	}
	return nil
}

// GetByID obtiene un ítem por ID.
func (r *InventoryRepo) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	var i entity.InventoryItem
	err := r.db.QueryRow(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = $1`, id).Scan(
		&i.ID, &i.CompanyID, &i.SKU, &i.Name, &i.UnitPrice, &i.Qty, &i.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return &i, nil
}

// ListByCompany inventario por nombre.
func (r *InventoryRepo) ListByCompany(ctx context.Context, companyID string, limit int) ([]*entity.InventoryItem, error) {
	return r.list(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE company_id = $1 ORDER BY name LIMIT $2`, companyID, limit)
}

// Search filtra por nombre o SKU.
func (r *InventoryRepo) Search(ctx context.Context, companyID, q string, limit int) ([]*entity.InventoryItem, error) {
	return r.list(ctx, `
		SELECT `+inventoryColumns+` FROM inventory_items
		 WHERE company_id = $1 AND (name ILIKE '%' || $2 || '%' OR sku ILIKE '%' || $2 || '%')
		 ORDER BY name LIMIT $3`, companyID, q, limit)
}

func (r *InventoryRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	list := []*entity.InventoryItem{}
	for rows.Next() {
		var i entity.InventoryItem
		if err := rows.Scan(&i.ID, &i.CompanyID, &i.SKU, &i.Name, &i.UnitPrice, &i.Qty, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		list = append(list, &i)
	}
	return list, rows.Err()
}

// Update guarda nombre, precio y cantidad.
func (r *InventoryRepo) Update(ctx context.Context, i *entity.InventoryItem) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE inventory_items SET name = $2, unit_price = $3, qty = $4 WHERE id = $1`,
		i.ID, i.Name, i.UnitPrice, i.Qty,
	)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
