package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/testutil/memstore"
)

func TestInventoryUseCase(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewInventoryUseCase(store.Inventory())
	ctx := context.Background()
	admin := session(t, store, entity.RoleAdmin, companyA)

	chlorine, err := uc.Create(ctx, admin, dto.CreateInventoryItemRequest{SKU: "CL-50", Name: "Chlorine tabs", UnitPrice: decimal.RequireFromString("89.999"), Qty: 4})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("90").Equal(chlorine.UnitPrice), "precio redondeado a 2 decimales")

	_, err = uc.Create(ctx, admin, dto.CreateInventoryItemRequest{SKU: "cl-50", Name: "Duplicado", Qty: 1})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	_, err = uc.Create(ctx, admin, dto.CreateInventoryItemRequest{SKU: "AC-1", Name: "Acid", UnitPrice: decimal.NewFromInt(-1)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = uc.Create(ctx, admin, dto.CreateInventoryItemRequest{SKU: "AC-1", Name: "Acid", UnitPrice: decimal.NewFromInt(12), Qty: 30})
	require.NoError(t, err)

	list, err := uc.List(ctx, admin, "", "")
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "Acid", list.Items[0].Name)

	found, err := uc.List(ctx, admin, "", "cl-")
	require.NoError(t, err)
	require.Equal(t, 1, found.Total)

	qty := 12
	upd, err := uc.Update(ctx, admin, chlorine.ID, dto.UpdateInventoryItemRequest{Qty: &qty})
	require.NoError(t, err)
	assert.Equal(t, 12, upd.Qty)

	_, err = uc.Update(ctx, session(t, store, entity.RoleAdmin, companyB), chlorine.ID, dto.UpdateInventoryItemRequest{Qty: &qty})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = uc.Update(ctx, admin, "no-existe", dto.UpdateInventoryItemRequest{Qty: &qty})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
