package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/thepoolbud/poolbud-api/internal/application/auth"
	"github.com/thepoolbud/poolbud-api/internal/application/dashboard"
	"github.com/thepoolbud/poolbud-api/internal/application/invitation"
	"github.com/thepoolbud/poolbud-api/internal/application/portal"
	"github.com/thepoolbud/poolbud-api/internal/application/report"
	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/infrastructure/authz"
	"github.com/thepoolbud/poolbud-api/internal/infrastructure/pdf"
	"github.com/thepoolbud/poolbud-api/internal/infrastructure/storage"
	"github.com/thepoolbud/poolbud-api/internal/infrastructure/xlsx"
	apphttp "github.com/thepoolbud/poolbud-api/internal/interfaces/http"
	"github.com/thepoolbud/poolbud-api/internal/testutil/memstore"
	pkgjwt "github.com/thepoolbud/poolbud-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Servidor de test: router completo sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "poolbud-test"
	testSiteURL   = "https://app.poolbud.test"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []*entity.ActionLink
	err  error
}

func (m *recordingMailer) SendActionLink(_ context.Context, link *entity.ActionLink, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, link)
	return nil
}

type testServer struct {
	app    *fiber.App
	store  *memstore.Store
	mailer *recordingMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	mailer := &recordingMailer{}
	enforcer := authz.MustNew()

	photos, err := storage.NewLocalPhotoStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	authUC := auth.NewAuthUseCase(store.Identities(), store.Tokens(), store.RefreshTokens(), store.Profiles(), auth.JWTConfig{
		Secret: testJWTSecret, ExpMinutes: 60, RefreshHours: 24, Issuer: testIssuer,
	})
	invitationUC := invitation.NewUseCase(store, enforcer, mailer, invitation.Config{
		SiteURL: testSiteURL, InviteTTL: 24 * time.Hour, RecoveryTTL: time.Hour,
	}, zerolog.Nop())
	portalUC := portal.NewUseCase(store.Customers(), store.Jobs(), store.ChemLogs())

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:       authUC,
		InvitationUC: invitationUC,
		CompanyUC:    usecase.NewCompanyUseCase(store.Companies()),
		ProfileUC:    usecase.NewProfileUseCase(store.Profiles()),
		CustomerUC:   usecase.NewCustomerUseCase(store.Customers(), invitationUC, zerolog.Nop()),
		JobUC:        usecase.NewJobUseCase(store.Jobs(), store.ChemLogs(), store.Customers(), store.Profiles(), photos),
		InventoryUC:  usecase.NewInventoryUseCase(store.Inventory()),
		DashboardUC:  dashboard.NewUseCase(store.Jobs(), store.Profiles(), store.Inventory()),
		PortalUC:     portalUC,
		ReportUC: report.NewUseCase(report.Repos{
			Companies: store.Companies(),
			Customers: store.Customers(),
			Jobs:      store.Jobs(),
			ChemLogs:  store.ChemLogs(),
			Profiles:  store.Profiles(),
		}, pdf.NewMarotoPDFGenerator(), xlsx.NewExcelizeJobsSheet(), testSiteURL),
		Permissions: enforcer,
		JWTSecret:   testJWTSecret,
	})
	return &testServer{app: app, store: store, mailer: mailer}
}

func (s *testServer) company(t *testing.T, name string) string {
	t.Helper()
	c := &entity.Company{ID: uuid.NewString(), Name: name, CreatedAt: time.Now()}
	require.NoError(t, s.store.Companies().Create(context.Background(), c))
	return c.ID
}

// member crea identidad y, si role no es vacío, su perfil. Devuelve el header Authorization.
func (s *testServer) member(t *testing.T, email string, role entity.Role, companyID string, setup bool) (string, string) {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, s.store.Identities().Create(ctx, &entity.Identity{ID: id, Email: email, CreatedAt: time.Now()}))
	if role != "" {
		require.NoError(t, s.store.Profiles().Upsert(ctx, &entity.Profile{
			ID: id, Role: role, CompanyID: companyID, Email: email, FullName: email, HasCompletedSetup: setup,
		}))
	}
	return id, bearer(t, id, email)
}

func bearer(t *testing.T, identityID, email string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Subject{UserID: identityID, Email: email, SessionID: uuid.NewString()}, testIssuer, 60)
	require.NoError(t, err)
	return "Bearer " + tok
}

// do lanza la petición y devuelve la respuesta con el cuerpo ya leído.
func (s *testServer) do(t *testing.T, method, path, authHeader string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m), string(body))
	return m
}

var errSMTP = errors.New("smtp caído")

func jsonDecode(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
