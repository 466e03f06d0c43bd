package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/testutil/memstore"
)

func TestProfileUseCase_UpdateMe(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewProfileUseCase(store.Profiles())
	ctx := context.Background()
	me := session(t, store, entity.RoleOwner, companyA)
	me.Profile.HasCompletedSetup = false
	require.NoError(t, store.Profiles().Update(ctx, me.Profile))

	name, city, done := " Olivia Owner ", "Tampa", true
	out, err := uc.UpdateMe(ctx, me, dto.UpdateProfileRequest{FullName: &name, City: &city, HasCompletedSetup: &done})
	require.NoError(t, err)
	assert.Equal(t, "Olivia Owner", out.FullName)
	assert.Equal(t, "Tampa", out.City)
	assert.True(t, out.HasCompletedSetup)
	assert.Equal(t, "owner", out.Role, "el rol no cambia")

	got, err := uc.Me(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, "Tampa", got.City)

	_, err = uc.Me(ctx, &entity.Session{IdentityID: "sin-perfil"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProfileUseCase_Listados(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewProfileUseCase(store.Profiles())
	ctx := context.Background()
	owner := session(t, store, entity.RoleOwner, companyA)
	session(t, store, entity.RoleTechnician, companyA)
	session(t, store, entity.RoleTechnician, companyB)
	root := session(t, store, entity.RolePlatformAdmin, "")

	list, err := uc.ListCompany(ctx, owner, "")
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)

	_, err = uc.ListCompany(ctx, owner, companyB)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	list, err = uc.ListCompany(ctx, root, companyB)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	all, err := uc.ListAll(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)

	_, err = uc.ListAll(ctx, owner)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
