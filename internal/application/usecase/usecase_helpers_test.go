package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/testutil/memstore"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	companyA = uuid.NewString()
	companyB = uuid.NewString()
)

func seedCompanies(t *testing.T, store *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: companyA, Name: "Blue Lagoon Pools", CreatedAt: time.Now()}))
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: companyB, Name: "Crystal Clear", CreatedAt: time.Now().Add(time.Second)}))
}

func session(t *testing.T, store *memstore.Store, role entity.Role, companyID string) *entity.Session {
	t.Helper()
	p := &entity.Profile{ID: uuid.NewString(), Role: role, CompanyID: companyID, HasCompletedSetup: true}
	require.NoError(t, store.Profiles().Upsert(context.Background(), p))
	return &entity.Session{IdentityID: p.ID, Email: string(role) + "@test", Profile: p}
}
