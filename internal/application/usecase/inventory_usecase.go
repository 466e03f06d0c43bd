package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// InventoryLimit máximo de ítems por listado.
const InventoryLimit = 200

// InventoryUseCase inventario de químicos y repuestos de la empresa.
type InventoryUseCase struct {
	repo repository.InventoryRepository
}

// NewInventoryUseCase construye el caso de uso.
func NewInventoryUseCase(repo repository.InventoryRepository) *InventoryUseCase {
	return &InventoryUseCase{repo: repo}
}

// List ítems por nombre; con q busca por nombre o SKU.
func (uc *InventoryUseCase) List(ctx context.Context, sess *entity.Session, companyID, q string) (*dto.ListResponse[dto.InventoryItemResponse], error) {
	companyID, err := ResolveCompany(sess, companyID)
	if err != nil {
		return nil, err
	}
	var list []*entity.InventoryItem
	if q = strings.TrimSpace(q); q != "" {
		list, err = uc.repo.Search(ctx, companyID, q, InventoryLimit)
	} else {
		list, err = uc.repo.ListByCompany(ctx, companyID, InventoryLimit)
	}
	if err != nil {
		return nil, err
	}
	items := make([]dto.InventoryItemResponse, 0, len(list))
	for _, i := range list {
		items = append(items, dto.InventoryItemFromEntity(i))
	}
	out := dto.NewList(items)
	return &out, nil
}

// Create alta de ítem. Devuelve domain.ErrDuplicate si el SKU ya existe en la empresa.
func (uc *InventoryUseCase) Create(ctx context.Context, sess *entity.Session, in dto.CreateInventoryItemRequest) (*dto.InventoryItemResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if in.UnitPrice.IsNegative() {
		return nil, domain.Invalid("unit_price no puede ser negativo")
	}
	companyID, err := ResolveCompany(sess, in.CompanyID)
	if err != nil {
		return nil, err
	}
	item := &entity.InventoryItem{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		SKU:       strings.TrimSpace(in.SKU),
		Name:      strings.TrimSpace(in.Name),
		UnitPrice: in.UnitPrice.Round(2),
		Qty:       in.Qty,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	out := dto.InventoryItemFromEntity(item)
	return &out, nil
}

// Update ajusta nombre, cantidad o precio.
func (uc *InventoryUseCase) Update(ctx context.Context, sess *entity.Session, id string, in dto.UpdateInventoryItemRequest) (*dto.InventoryItemResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFound("ítem no encontrado")
	}
	if err := CheckCompany(sess, item.CompanyID); err != nil {
		return nil, err
	}
	if in.Name != nil {
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.UnitPrice != nil {
		if in.UnitPrice.IsNegative() {
			return nil, domain.Invalid("unit_price no puede ser negativo")
		}
		item.UnitPrice = in.UnitPrice.Round(2)
	}
	if in.Qty != nil {
		item.Qty = *in.Qty
	}
	if err := uc.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	out := dto.InventoryItemFromEntity(item)
	return &out, nil
}
