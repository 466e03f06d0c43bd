package portal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thepoolbud/poolbud-api/internal/application/portal"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/testutil/memstore"
)

var now = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T) (*memstore.Store, *portal.UseCase) {
	t.Helper()
	store := memstore.New()
	ctx := context.Background()
	require.NoError(t, store.Customers().Create(ctx, &entity.Customer{ID: "cu-1", CompanyID: "co-1", Name: "Pat Pool", PortalUserID: "pat"}))

	jobs := []entity.Job{
		{ID: "past", CompanyID: "co-1", CustomerID: "cu-1", ScheduledAt: now.Add(-72 * time.Hour), CompletedAt: ptr(now.Add(-70 * time.Hour))},
		{ID: "older", CompanyID: "co-1", CustomerID: "cu-1", ScheduledAt: now.Add(-240 * time.Hour), CompletedAt: ptr(now.Add(-239 * time.Hour))},
		{ID: "soon", CompanyID: "co-1", CustomerID: "cu-1", ScheduledAt: now.Add(24 * time.Hour)},
		{ID: "later", CompanyID: "co-1", CustomerID: "cu-1", ScheduledAt: now.Add(14 * 24 * time.Hour)},
		{ID: "other", CompanyID: "co-1", CustomerID: "cu-2", ScheduledAt: now.Add(time.Hour)},
	}
	for _, j := range jobs {
		j := j
		require.NoError(t, store.Jobs().Create(ctx, &j))
	}
	for _, l := range []entity.ChemLog{
		{ID: "l1", JobID: "older", PH: "7.2", TakenAt: now.Add(-239 * time.Hour)},
		{ID: "l2", JobID: "past", PH: "7.6", TakenAt: now.Add(-70 * time.Hour)},
		{ID: "l3", JobID: "other", PH: "8.0", TakenAt: now},
	} {
		l := l
		require.NoError(t, store.ChemLogs().Create(ctx, &l))
	}
	return store, portal.NewUseCase(store.Customers(), store.Jobs(), store.ChemLogs()).WithClock(func() time.Time { return now })
}

func ptr(t time.Time) *time.Time { return &t }

func TestForPortalUser(t *testing.T) {
	_, uc := seed(t)
	out, err := uc.ForPortalUser(context.Background(), &entity.Session{IdentityID: "pat"})
	require.NoError(t, err)

	assert.Equal(t, "Pat Pool", out.Customer.Name)
	require.Len(t, out.Visits, 4)
	assert.Equal(t, "later", out.Visits[0].ID, "visitas en orden descendente")
	assert.Equal(t, "older", out.Visits[3].ID)

	require.Len(t, out.Readings, 2, "solo lecturas de sus visitas")
	require.NotNil(t, out.LatestReading)
	assert.Equal(t, "7.6", out.LatestReading.PH)

	require.NotNil(t, out.NextVisit)
	assert.Equal(t, "soon", out.NextVisit.ID)
}

func TestForPortalUser_SinCliente(t *testing.T) {
	_, uc := seed(t)
	_, err := uc.ForPortalUser(context.Background(), &entity.Session{IdentityID: "desconocido"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestForStaff_Alcance(t *testing.T) {
	_, uc := seed(t)
	ctx := context.Background()
	own := &entity.Session{IdentityID: "d", Profile: &entity.Profile{ID: "d", Role: entity.RoleDispatcher, CompanyID: "co-1"}}
	foreign := &entity.Session{IdentityID: "x", Profile: &entity.Profile{ID: "x", Role: entity.RoleOwner, CompanyID: "co-2"}}

	out, err := uc.ForStaff(ctx, own, "cu-1")
	require.NoError(t, err)
	assert.Len(t, out.Visits, 4)

	_, err = uc.ForStaff(ctx, foreign, "cu-1")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = uc.ForStaff(ctx, own, "cu-404")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestForPortalUser_SinVisitas(t *testing.T) {
	store, uc := seed(t)
	require.NoError(t, store.Customers().Create(context.Background(), &entity.Customer{ID: "cu-3", CompanyID: "co-1", Name: "Nuevo", PortalUserID: "nuevo"}))
	out, err := uc.ForPortalUser(context.Background(), &entity.Session{IdentityID: "nuevo"})
	require.NoError(t, err)
	assert.Empty(t, out.Visits)
	assert.Empty(t, out.Readings)
	assert.Nil(t, out.LatestReading)
	assert.Nil(t, out.NextVisit)
}
