package invitation_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/invitation"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/infrastructure/authz"
	"github.com/thepoolbud/poolbud-api/internal/testutil/memstore"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const siteURL = "https://app.thepoolbud.test"

type sentMail struct {
	link *entity.ActionLink
	name string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendActionLink(_ context.Context, link *entity.ActionLink, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{link: link, name: name})
	return nil
}

func (m *fakeMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type fixture struct {
	store  *memstore.Store
	mailer *fakeMailer
	uc     *invitation.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	mailer := &fakeMailer{}
	uc := invitation.NewUseCase(store, authz.MustNew(), mailer, invitation.Config{
		SiteURL:     siteURL + "/",
		InviteTTL:   24 * time.Hour,
		RecoveryTTL: time.Hour,
	}, zerolog.Nop())
	return &fixture{store: store, mailer: mailer, uc: uc}
}

func (f *fixture) company(t *testing.T, name string) string {
	t.Helper()
	c := &entity.Company{ID: "co-" + name, Name: name, CreatedAt: time.Now()}
	require.NoError(t, f.store.Companies().Create(context.Background(), c))
	return c.ID
}

// member crea identidad + perfil y devuelve la sesión correspondiente.
func (f *fixture) member(t *testing.T, email string, role entity.Role, companyID string, setup bool) *entity.Session {
	t.Helper()
	ctx := context.Background()
	id := "id-" + email
	require.NoError(t, f.store.Identities().Create(ctx, &entity.Identity{ID: id, Email: email}))
	p := &entity.Profile{ID: id, Role: role, CompanyID: companyID, Email: email, HasCompletedSetup: setup}
	require.NoError(t, f.store.Profiles().Upsert(ctx, p))
	return &entity.Session{IdentityID: id, Email: email, Profile: p}
}

func (f *fixture) ownersOf(companyID string) []entity.Profile {
	var out []entity.Profile
	for _, p := range f.store.AllProfiles() {
		if p.CompanyID == companyID && p.Role == entity.RoleOwner {
			out = append(out, p)
		}
	}
	return out
}

func platformAdmin(f *fixture, t *testing.T) *entity.Session {
	return f.member(t, "root@thepoolbud.test", entity.RolePlatformAdmin, "", true)
}

// ──────────────────────────────────────────────────────────────────────────────
// Permisos de invitación de equipo
// ──────────────────────────────────────────────────────────────────────────────

// Para todo rol R invitando a S: éxito sii R está en el conjunto permitido para S.
func TestInviteTeamMember_TablaDePermisos(t *testing.T) {
	allowed := map[entity.Role]map[entity.Role]bool{
		entity.RolePlatformAdmin: {entity.RoleAdmin: true, entity.RoleDispatcher: true, entity.RoleTechnician: true},
		entity.RoleOwner:         {entity.RoleAdmin: true, entity.RoleDispatcher: true, entity.RoleTechnician: true},
		entity.RoleAdmin:         {entity.RoleDispatcher: true, entity.RoleTechnician: true},
	}
	inviters := []entity.Role{entity.RolePlatformAdmin, entity.RoleOwner, entity.RoleAdmin, entity.RoleDispatcher, entity.RoleTechnician}

	for _, inviter := range inviters {
		for _, target := range entity.TeamRoles {
			t.Run(fmt.Sprintf("%s_invita_%s", inviter, target), func(t *testing.T) {
				f := newFixture(t)
				companyID := f.company(t, "acme")
				companyRef := ""
				if inviter == entity.RolePlatformAdmin {
					companyRef = companyID
				}
				sess := f.member(t, "inviter@acme.test", inviter, companyIDFor(inviter, companyID), true)

				_, err := f.uc.InviteTeamMember(context.Background(), sess, dto.InviteTeamMemberRequest{
					CompanyID: companyRef,
					Role:      string(target),
					Email:     "new@acme.test",
					FullName:  "New Member",
				})

				if allowed[inviter][target] {
					require.NoError(t, err)
					p, _ := f.store.Profiles().GetByID(context.Background(), f.identityID(t, "new@acme.test"))
					require.NotNil(t, p)
					assert.Equal(t, target, p.Role)
					assert.Equal(t, companyID, p.CompanyID)
					assert.False(t, p.HasCompletedSetup)
				} else {
					require.Error(t, err)
					assert.True(t, errors.Is(err, domain.ErrForbidden), "debe ser 403: %v", err)
					assert.Len(t, f.store.AllIdentities(), 1, "no debe crearse ninguna identidad")
				}
			})
		}
	}
}

func companyIDFor(role entity.Role, companyID string) string {
	if role == entity.RolePlatformAdmin {
		return ""
	}
	return companyID
}

func (f *fixture) identityID(t *testing.T, email string) string {
	t.Helper()
	ident, err := f.store.Identities().FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, ident, "identidad %s", email)
	return ident.ID
}

func TestInviteTeamMember_PlatformAdminSinCompanyId_Retorna400(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.InviteTeamMember(context.Background(), platformAdmin(f, t), dto.InviteTeamMemberRequest{
		Role: "tech", Email: "t@x.test", FullName: "T",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "companyId")
}

func TestInviteTeamMember_RolInvalido_Retorna400(t *testing.T) {
	f := newFixture(t)
	sess := f.member(t, "o@acme.test", entity.RoleOwner, f.company(t, "acme"), true)
	for _, role := range []string{"owner", "platform_admin", "janitor", ""} {
		_, err := f.uc.InviteTeamMember(context.Background(), sess, dto.InviteTeamMemberRequest{
			Role: role, Email: "t@x.test", FullName: "T",
		})
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "rol %q", role)
	}
}

func TestInviteTeamMember_AliasTechnician(t *testing.T) {
	f := newFixture(t)
	companyID := f.company(t, "acme")
	sess := f.member(t, "o@acme.test", entity.RoleOwner, companyID, true)
	_, err := f.uc.InviteTeamMember(context.Background(), sess, dto.InviteTeamMemberRequest{
		Role: "technician", Email: "t@acme.test", FullName: "T",
	})
	require.NoError(t, err)
	p, _ := f.store.Profiles().GetByID(context.Background(), f.identityID(t, "t@acme.test"))
	assert.Equal(t, entity.RoleTechnician, p.Role)
}

func TestInviteTeamMember_CamposRequeridos_NoMuta(t *testing.T) {
	f := newFixture(t)
	sess := f.member(t, "o@acme.test", entity.RoleOwner, f.company(t, "acme"), true)
	_, err := f.uc.InviteTeamMember(context.Background(), sess, dto.InviteTeamMemberRequest{Role: "admin", Email: "a@acme.test"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Len(t, f.store.AllIdentities(), 1)
	assert.Empty(t, f.mailer.sent)
}

func TestInviteTeamMember_SolicitanteSinEmpresa_Retorna403(t *testing.T) {
	f := newFixture(t)
	sess := f.member(t, "lonely@x.test", entity.RoleOwner, "", true)
	_, err := f.uc.InviteTeamMember(context.Background(), sess, dto.InviteTeamMemberRequest{Role: "tech", Email: "t@x.test", FullName: "T"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestInviteTeamMember_SinPerfil_Retorna403(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.InviteTeamMember(context.Background(), &entity.Session{IdentityID: "x"}, dto.InviteTeamMemberRequest{Role: "tech", Email: "t@x.test", FullName: "T"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

// Un owner invita a un segundo admin: ambos admins coexisten.
func TestInviteTeamMember_SegundoAdminCoexiste(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	companyID := f.company(t, "acme")
	owner := f.member(t, "owner@acme.test", entity.RoleOwner, companyID, true)
	f.member(t, "admin1@acme.test", entity.RoleAdmin, companyID, true)

	_, err := f.uc.InviteTeamMember(ctx, owner, dto.InviteTeamMemberRequest{Role: "admin", Email: "admin2@acme.test", FullName: "Admin Dos"})
	require.NoError(t, err)

	profiles, err := f.store.Profiles().ListByCompany(ctx, companyID)
	require.NoError(t, err)
	admins := 0
	for _, p := range profiles {
		if p.Role == entity.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 2, admins)
	assert.Len(t, f.ownersOf(companyID), 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Re-invitación e identidad
// ──────────────────────────────────────────────────────────────────────────────

// Reinvitar un email existente no duplica la identidad y deja un único perfil con el nuevo rol/empresa.
func TestInviteTeamMember_Reinvitacion_NoDuplicaIdentidad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.company(t, "acme")
	blue := f.company(t, "blue")
	admin := platformAdmin(f, t)

	first, err := f.uc.InviteTeamMember(ctx, admin, dto.InviteTeamMemberRequest{CompanyID: acme, Role: "tech", Email: "Sam@Example.com", FullName: "Sam"})
	require.NoError(t, err)
	assert.True(t, first.Invited)
	assert.Equal(t, "invited", first.Outcome)

	second, err := f.uc.InviteTeamMember(ctx, admin, dto.InviteTeamMemberRequest{CompanyID: blue, Role: "dispatcher", Email: "sam@example.com ", FullName: "Sam R"})
	require.NoError(t, err)
	assert.False(t, second.Invited)
	assert.Equal(t, "relinked", second.Outcome)
	assert.Equal(t, first.UserID, second.UserID)

	count := 0
	for _, i := range f.store.AllIdentities() {
		if i.Email == "sam@example.com" {
			count++
			assert.Equal(t, "Sam R", i.Metadata.FullName)
		}
	}
	assert.Equal(t, 1, count)

	var samProfiles []entity.Profile
	for _, p := range f.store.AllProfiles() {
		if p.ID == first.UserID {
			samProfiles = append(samProfiles, p)
		}
	}
	require.Len(t, samProfiles, 1)
	assert.Equal(t, entity.RoleDispatcher, samProfiles[0].Role)
	assert.Equal(t, blue, samProfiles[0].CompanyID)

	// La re-vinculación emite un enlace de recuperación, no una invitación.
	assert.Equal(t, entity.TokenRecovery, f.mailer.last().link.Kind)
}

// Re-invitar a alguien de rango igual o superior, o de otra empresa, no toca su perfil.
func TestInviteTeamMember_ReinvitarSuperiorOAjeno_Retorna403(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.company(t, "a")
	b := f.company(t, "b")
	admin := f.member(t, "admin@a.test", entity.RoleAdmin, a, true)
	f.member(t, "boss@a.test", entity.RoleOwner, a, true)
	f.member(t, "peer@a.test", entity.RoleAdmin, a, true)
	f.member(t, "root@plat.test", entity.RolePlatformAdmin, "", true)
	f.member(t, "ownerb@b.test", entity.RoleOwner, b, true)
	f.member(t, "techb@b.test", entity.RoleTechnician, b, true)

	cases := map[string]entity.Role{
		"boss@a.test":    entity.RoleOwner,
		"peer@a.test":    entity.RoleAdmin,
		"root@plat.test": entity.RolePlatformAdmin,
		"ownerb@b.test":  entity.RoleOwner,
		"techb@b.test":   entity.RoleTechnician,
	}
	for email, role := range cases {
		t.Run(email, func(t *testing.T) {
			before := len(f.store.AllTokens())
			_, err := f.uc.InviteTeamMember(ctx, admin, dto.InviteTeamMemberRequest{Role: "tech", Email: email, FullName: "X"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrForbidden), "debe ser 403: %v", err)

			p, err := f.store.Profiles().GetByID(ctx, "id-"+email)
			require.NoError(t, err)
			assert.Equal(t, role, p.Role)
			assert.Len(t, f.store.AllTokens(), before, "no debe emitirse enlace")
		})
	}
	assert.Len(t, f.ownersOf(a), 1)
	assert.Len(t, f.ownersOf(b), 1)
}

// Un subordinado de la misma empresa sí puede re-asignarse.
func TestInviteTeamMember_ReinvitarSubordinado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.company(t, "a")
	admin := f.member(t, "admin@a.test", entity.RoleAdmin, a, true)
	f.member(t, "dora@a.test", entity.RoleDispatcher, a, true)

	res, err := f.uc.InviteTeamMember(ctx, admin, dto.InviteTeamMemberRequest{Role: "tech", Email: "dora@a.test", FullName: "Dora"})
	require.NoError(t, err)
	assert.Equal(t, "relinked", res.Outcome)

	p, err := f.store.Profiles().GetByID(ctx, "id-dora@a.test")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleTechnician, p.Role)
	assert.Equal(t, a, p.CompanyID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Owner
// ──────────────────────────────────────────────────────────────────────────────

func TestInviteOwner_SoloPlatformAdmin(t *testing.T) {
	f := newFixture(t)
	companyID := f.company(t, "acme")
	for _, role := range []entity.Role{entity.RoleOwner, entity.RoleAdmin, entity.RoleDispatcher, entity.RoleTechnician} {
		sess := f.member(t, string(role)+"@acme.test", role, companyID, true)
		_, err := f.uc.InviteOwner(context.Background(), sess, dto.InviteOwnerRequest{
			CompanyID: companyID, Owner: dto.ContactInput{Email: "o@acme.test", FullName: "O"},
		})
		assert.True(t, errors.Is(err, domain.ErrForbidden), "rol %s", role)
	}
	assert.Empty(t, f.ownersOf(companyID))
}

func TestInviteOwner_Validaciones(t *testing.T) {
	f := newFixture(t)
	admin := platformAdmin(f, t)

	_, err := f.uc.InviteOwner(context.Background(), admin, dto.InviteOwnerRequest{CompanyName: "X", Owner: dto.ContactInput{Email: "o@x.test"}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.uc.InviteOwner(context.Background(), admin, dto.InviteOwnerRequest{Owner: dto.ContactInput{Email: "o@x.test", FullName: "O"}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "companyName")

	_, err = f.uc.InviteOwner(context.Background(), admin, dto.InviteOwnerRequest{CompanyID: "nope", Owner: dto.ContactInput{Email: "o@x.test", FullName: "O"}})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	assert.Empty(t, f.store.AllCompanies())
	assert.Len(t, f.store.AllIdentities(), 1)
}

// Escenario: platform_admin invita al owner de la nueva empresa "Blue Lagoon Pools".
func TestInviteOwner_EmpresaNuevaBlueLagoon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.uc.InviteOwner(ctx, platformAdmin(f, t), dto.InviteOwnerRequest{
		CompanyName: "Blue Lagoon Pools",
		Owner:       dto.ContactInput{Email: "owner@example.com", FullName: "Olivia Owner", Phone: "555-0100"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.CompanyID)
	require.NotEmpty(t, res.UserID)
	assert.True(t, res.Invited)

	company, err := f.store.Companies().GetByID(ctx, res.CompanyID)
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "Blue Lagoon Pools", company.Name)

	profiles, err := f.store.Profiles().ListByCompany(ctx, res.CompanyID)
	require.NoError(t, err)
	owners := 0
	for _, p := range profiles {
		if p.Role == entity.RoleOwner {
			owners++
			assert.Equal(t, "owner@example.com", p.Email)
			assert.Equal(t, res.UserID, p.ID)
			assert.False(t, p.HasCompletedSetup)
		}
	}
	assert.Equal(t, 1, owners)

	mail := f.mailer.last()
	assert.Equal(t, entity.TokenInvite, mail.link.Kind)
	assert.Equal(t, siteURL+"/welcome", mail.link.RedirectTo)
	u, err := url.Parse(mail.link.URL)
	require.NoError(t, err)
	assert.Equal(t, "invite", u.Query().Get("type"))
	assert.NotEmpty(t, u.Query().Get("token"))
}

// Asignar owner deja exactamente un owner; el anterior pasa a admin. Estados previos con 0 y 1 owners.
func TestInviteOwner_UnicidadDeOwner(t *testing.T) {
	for _, prior := range []int{0, 1} {
		t.Run(fmt.Sprintf("owners_previos_%d", prior), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			companyID := f.company(t, "acme")
			var previous *entity.Session
			if prior == 1 {
				previous = f.member(t, "old@acme.test", entity.RoleOwner, companyID, true)
			}

			res, err := f.uc.InviteOwner(ctx, platformAdmin(f, t), dto.InviteOwnerRequest{
				CompanyID: companyID, Owner: dto.ContactInput{Email: "new@acme.test", FullName: "New Owner"},
			})
			require.NoError(t, err)

			owners := f.ownersOf(companyID)
			require.Len(t, owners, 1)
			assert.Equal(t, res.UserID, owners[0].ID)
			if previous != nil {
				p, _ := f.store.Profiles().GetByID(ctx, previous.IdentityID)
				assert.Equal(t, entity.RoleAdmin, p.Role)
				assert.Equal(t, companyID, p.CompanyID)
			}
		})
	}
}

func TestInviteOwner_PlatformAdminComoOwner_Retorna403(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	companyID := f.company(t, "acme")
	root := platformAdmin(f, t)
	f.member(t, "ops@thepoolbud.test", entity.RolePlatformAdmin, "", true)

	_, err := f.uc.InviteOwner(ctx, root, dto.InviteOwnerRequest{
		CompanyID: companyID, Owner: dto.ContactInput{Email: "ops@thepoolbud.test", FullName: "Ops"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	p, err := f.store.Profiles().GetByID(ctx, "id-ops@thepoolbud.test")
	require.NoError(t, err)
	assert.Equal(t, entity.RolePlatformAdmin, p.Role)
	assert.Empty(t, p.CompanyID)
	assert.Empty(t, f.ownersOf(companyID))
}

func TestInviteOwner_ReinvitarOwnerActual_SigueSiendoUnico(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	companyID := f.company(t, "acme")
	current := f.member(t, "owner@acme.test", entity.RoleOwner, companyID, true)

	res, err := f.uc.InviteOwner(ctx, platformAdmin(f, t), dto.InviteOwnerRequest{
		CompanyID: companyID, Owner: dto.ContactInput{Email: "owner@acme.test", FullName: "Same Owner"},
	})
	require.NoError(t, err)
	assert.Equal(t, current.IdentityID, res.UserID)
	assert.Equal(t, "relinked", res.Outcome)
	assert.Len(t, f.ownersOf(companyID), 1)
}

func TestInviteOwner_Concurrente_UnSoloOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	companyID := f.company(t, "acme")
	admin := platformAdmin(f, t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.uc.InviteOwner(ctx, admin, dto.InviteOwnerRequest{
				CompanyID: companyID,
				Owner:     dto.ContactInput{Email: fmt.Sprintf("owner%d@acme.test", i), FullName: "Owner"},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.ownersOf(companyID), 1)
	admins := 0
	for _, p := range f.store.AllProfiles() {
		if p.CompanyID == companyID && p.Role == entity.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 7, admins)
}

// Si el upsert del perfil falla no queda ni empresa ni identidad creadas.
func TestInviteOwner_FalloEnUpsert_RevierteTodo(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn["profiles.Upsert"] = errors.New("db caída")

	_, err := f.uc.InviteOwner(context.Background(), platformAdmin(f, t), dto.InviteOwnerRequest{
		CompanyName: "Blue Lagoon Pools",
		Owner:       dto.ContactInput{Email: "owner@example.com", FullName: "Olivia"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db caída")
	assert.Empty(t, f.store.AllCompanies())
	assert.Len(t, f.store.AllIdentities(), 1)
	assert.Empty(t, f.mailer.sent)
}

// Un fallo de email no revierte el estado y se informa como error externo.
func TestInviteOwner_FalloDeEmail_EstadoPersistido(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("ses throttled")

	_, err := f.uc.InviteOwner(context.Background(), platformAdmin(f, t), dto.InviteOwnerRequest{
		CompanyName: "Blue Lagoon Pools",
		Owner:       dto.ContactInput{Email: "owner@example.com", FullName: "Olivia"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.Len(t, f.store.AllCompanies(), 1)
	assert.Len(t, f.store.AllIdentities(), 2)
}

func TestInviteOwner_RedirectPersonalizado(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.InviteOwner(context.Background(), platformAdmin(f, t), dto.InviteOwnerRequest{
		CompanyName:       "Acme",
		Owner:             dto.ContactInput{Email: "o@acme.test", FullName: "O"},
		InviteRedirectURL: "https://staging.thepoolbud.test/welcome",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://staging.thepoolbud.test/welcome", f.mailer.last().link.RedirectTo)
}

func TestAssignOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	companyID := f.company(t, "acme")
	old := f.member(t, "old@acme.test", entity.RoleOwner, companyID, true)
	root := platformAdmin(f, t)

	dispatcherID := uuid.New().String()
	require.NoError(t, f.store.Profiles().Upsert(ctx, &entity.Profile{
		ID: dispatcherID, Role: entity.RoleDispatcher, CompanyID: companyID, HasCompletedSetup: true,
	}))

	_, err := f.uc.AssignOwner(ctx, old, companyID, dto.AssignOwnerRequest{ProfileID: dispatcherID})
	assert.True(t, errors.Is(err, domain.ErrForbidden), "solo platform_admin")

	_, err = f.uc.AssignOwner(ctx, root, companyID, dto.AssignOwnerRequest{ProfileID: "no-es-uuid"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.uc.AssignOwner(ctx, root, companyID, dto.AssignOwnerRequest{ProfileID: uuid.New().String()})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "perfil inexistente")

	_, err = f.uc.AssignOwner(ctx, root, "co-missing", dto.AssignOwnerRequest{ProfileID: dispatcherID})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "empresa inexistente")

	out, err := f.uc.AssignOwner(ctx, root, companyID, dto.AssignOwnerRequest{ProfileID: dispatcherID})
	require.NoError(t, err)
	assert.Equal(t, "owner", out.Role)

	owners := f.ownersOf(companyID)
	require.Len(t, owners, 1)
	assert.Equal(t, dispatcherID, owners[0].ID)
	prev, _ := f.store.Profiles().GetByID(ctx, old.IdentityID)
	assert.Equal(t, entity.RoleAdmin, prev.Role)
}

func TestAssignOwner_PlatformAdminNoPuedeSerOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	companyID := f.company(t, "acme")
	rootID := uuid.New().String()
	root := &entity.Profile{ID: rootID, Role: entity.RolePlatformAdmin, HasCompletedSetup: true}
	require.NoError(t, f.store.Profiles().Upsert(ctx, root))

	_, err := f.uc.AssignOwner(ctx, &entity.Session{IdentityID: rootID, Profile: root}, companyID, dto.AssignOwnerRequest{ProfileID: rootID})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Empty(t, f.ownersOf(companyID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Portal de clientes
// ──────────────────────────────────────────────────────────────────────────────

func (f *fixture) customer(t *testing.T, companyID, name, portalUserID string) *entity.Customer {
	t.Helper()
	c := &entity.Customer{ID: "cu-" + name, CompanyID: companyID, Name: name, PortalUserID: portalUserID}
	require.NoError(t, f.store.Customers().Create(context.Background(), c))
	return c
}

func TestInviteCustomer_Nuevo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	companyID := f.company(t, "acme")
	staff := f.member(t, "d@acme.test", entity.RoleDispatcher, companyID, true)
	cust := f.customer(t, companyID, "Pat Pool", "")

	res, err := f.uc.InviteCustomerPortalAccess(ctx, staff, dto.InviteCustomerRequest{CustomerID: cust.ID, Email: " PAT@Example.com "})
	require.NoError(t, err)
	assert.True(t, res.Invited)
	assert.Equal(t, cust.ID, res.CustomerID)
	require.NotEmpty(t, res.PortalUserID)

	stored, _ := f.store.Customers().GetByID(ctx, cust.ID)
	assert.Equal(t, res.PortalUserID, stored.PortalUserID)
	assert.Equal(t, "pat@example.com", stored.Email)

	ident, _ := f.store.Identities().GetByID(ctx, res.PortalUserID)
	assert.Equal(t, cust.ID, ident.Metadata.CustomerID)
	assert.Equal(t, "Pat Pool", ident.Metadata.CustomerName)

	mail := f.mailer.last()
	assert.Equal(t, siteURL+"/customer-setup?customerId="+cust.ID, mail.link.RedirectTo)
	assert.Equal(t, entity.TokenInvite, mail.link.Kind)
}

func TestInviteCustomer_IdentidadExistente_SeRevincula(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	companyID := f.company(t, "acme")
	staff := f.member(t, "a@acme.test", entity.RoleAdmin, companyID, true)
	require.NoError(t, f.store.Identities().Create(ctx, &entity.Identity{ID: "pat", Email: "pat@example.com"}))
	cust := f.customer(t, companyID, "Pat Pool", "")

	res, err := f.uc.InviteCustomerPortalAccess(ctx, staff, dto.InviteCustomerRequest{CustomerID: cust.ID, Email: "pat@example.com", FullName: "Patricia"})
	require.NoError(t, err)
	assert.False(t, res.Invited)
	assert.Equal(t, "pat", res.PortalUserID)

	ident, _ := f.store.Identities().GetByID(ctx, "pat")
	assert.Equal(t, cust.ID, ident.Metadata.CustomerID)
	assert.Equal(t, "Patricia", ident.Metadata.CustomerName)
	assert.Equal(t, entity.TokenRecovery, f.mailer.last().link.Kind)
}

func TestInviteCustomer_YaEnlazado_EnviaRecuperacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	companyID := f.company(t, "acme")
	staff := f.member(t, "o@acme.test", entity.RoleOwner, companyID, true)
	require.NoError(t, f.store.Identities().Create(ctx, &entity.Identity{ID: "pat", Email: "pat@example.com"}))
	cust := f.customer(t, companyID, "Pat Pool", "pat")

	res, err := f.uc.InviteCustomerPortalAccess(ctx, staff, dto.InviteCustomerRequest{CustomerID: cust.ID, Email: "pat@example.com"})
	require.NoError(t, err)
	assert.False(t, res.Invited)
	assert.Equal(t, "pat", res.PortalUserID)
	assert.Equal(t, entity.TokenRecovery, f.mailer.last().link.Kind)
	assert.Len(t, f.store.AllIdentities(), 2)
}

func TestInviteCustomer_Errores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.company(t, "acme")
	other := f.company(t, "other")
	staff := f.member(t, "o@acme.test", entity.RoleOwner, acme, true)
	tech := f.member(t, "t@acme.test", entity.RoleTechnician, acme, true)
	foreign := f.customer(t, other, "Foreign", "")
	own := f.customer(t, acme, "Own", "")

	_, err := f.uc.InviteCustomerPortalAccess(ctx, staff, dto.InviteCustomerRequest{Email: "x@x.test"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.uc.InviteCustomerPortalAccess(ctx, staff, dto.InviteCustomerRequest{CustomerID: own.ID})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.uc.InviteCustomerPortalAccess(ctx, staff, dto.InviteCustomerRequest{CustomerID: "missing", Email: "x@x.test"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.uc.InviteCustomerPortalAccess(ctx, staff, dto.InviteCustomerRequest{CustomerID: foreign.ID, Email: "x@x.test"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.uc.InviteCustomerPortalAccess(ctx, tech, dto.InviteCustomerRequest{CustomerID: own.ID, Email: "x@x.test"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	assert.Len(t, f.store.AllIdentities(), 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Enlace de recuperación
// ──────────────────────────────────────────────────────────────────────────────

// Email desconocido: status not_found sin error, igual forma que el éxito.
func TestSendResetLink_EmailDesconocido(t *testing.T) {
	f := newFixture(t)
	res, err := f.uc.SendResetLink(context.Background(), dto.ResetLinkRequest{Email: "ghost@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "not_found", res.Status)
	assert.Empty(t, res.RedirectTo)
	assert.Empty(t, f.mailer.sent)
	assert.Empty(t, f.store.AllTokens())
}

func TestSendResetLink_EmailVacio(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.SendResetLink(context.Background(), dto.ResetLinkRequest{Email: "  "})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSendResetLink_Destinos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	companyID := f.company(t, "acme")
	f.member(t, "done@acme.test", entity.RoleAdmin, companyID, true)
	f.member(t, "pending@acme.test", entity.RoleTechnician, companyID, false)
	require.NoError(t, f.store.Identities().Create(ctx, &entity.Identity{ID: "bare", Email: "bare@example.com"}))
	require.NoError(t, f.store.Identities().Create(ctx, &entity.Identity{
		ID: "portal", Email: "portal@example.com", Metadata: entity.IdentityMetadata{CustomerID: "cu-1"},
	}))

	cases := map[string]string{
		"done@acme.test":     siteURL + "/reset-password",
		"pending@acme.test":  siteURL + "/welcome",
		"bare@example.com":   siteURL + "/welcome",
		"portal@example.com": siteURL + "/customer-setup?customerId=cu-1",
	}
	for email, want := range cases {
		res, err := f.uc.SendResetLink(ctx, dto.ResetLinkRequest{Email: email})
		require.NoError(t, err, email)
		assert.Equal(t, "sent", res.Status, email)
		assert.Equal(t, want, res.RedirectTo, email)
		assert.Equal(t, entity.TokenRecovery, f.mailer.last().link.Kind)
	}
}

// Emitir un enlace nuevo invalida los anteriores de la misma identidad.
func TestSendResetLink_InvalidaEnlacesPrevios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.member(t, "done@acme.test", entity.RoleAdmin, f.company(t, "acme"), true)

	_, err := f.uc.SendResetLink(ctx, dto.ResetLinkRequest{Email: "done@acme.test"})
	require.NoError(t, err)
	_, err = f.uc.SendResetLink(ctx, dto.ResetLinkRequest{Email: "done@acme.test"})
	require.NoError(t, err)

	open := 0
	for _, tok := range f.store.AllTokens() {
		if tok.UsedAt == nil {
			open++
		}
	}
	assert.Equal(t, 1, open)
}
