package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thepoolbud/poolbud-api/internal/application/auth"
	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/identity"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
	"github.com/thepoolbud/poolbud-api/internal/testutil/memstore"
	"github.com/thepoolbud/poolbud-api/pkg/jwt"
)

const secret = "test-secret-key-for-unit-tests"

func newAuth(store *memstore.Store) *auth.AuthUseCase {
	return auth.NewAuthUseCase(store.Identities(), store.Tokens(), store.RefreshTokens(), store.Profiles(), auth.JWTConfig{
		Secret:     secret,
		ExpMinutes: 15,
		Issuer:     "poolbud-test",
	})
}

func TestSignUpYSignIn(t *testing.T) {
	store := memstore.New()
	uc := newAuth(store)
	ctx := context.Background()

	out, err := uc.SignUp(ctx, dto.SignUpRequest{Email: "Ana@Example.com", Password: "supersecreta", FullName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", out.Identity.Email)
	assert.Nil(t, out.Profile, "sin perfil hasta la invitación")
	assert.Equal(t, 15*60, out.ExpiresIn)

	claims, err := jwt.Parse(secret, out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, out.Identity.ID, claims.UserID)
	assert.Empty(t, claims.Role)

	_, err = uc.SignUp(ctx, dto.SignUpRequest{Email: "ana@example.com", Password: "otraclave1"})
	assert.True(t, errors.Is(err, domain.ErrIdentityExists))

	_, err = uc.SignIn(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "incorrecta"})
	assert.True(t, errors.Is(err, domain.ErrInvalidCredential))

	in, err := uc.SignIn(ctx, dto.LoginRequest{Email: "ANA@example.com", Password: "supersecreta"})
	require.NoError(t, err)
	assert.NotEqual(t, out.RefreshToken, in.RefreshToken)
}

func TestSignUp_Validacion(t *testing.T) {
	uc := newAuth(memstore.New())
	_, err := uc.SignUp(context.Background(), dto.SignUpRequest{Email: "no-es-email", Password: "supersecreta"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	_, err = uc.SignUp(context.Background(), dto.SignUpRequest{Email: "a@b.test", Password: "corta"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// Una identidad invitada sin contraseña no puede iniciar sesión.
func TestSignIn_InvitacionPendiente(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.Identities().Create(context.Background(), &entity.Identity{ID: "i1", Email: "pending@example.com"}))
	_, err := newAuth(store).SignIn(context.Background(), dto.LoginRequest{Email: "pending@example.com", Password: "loquesea"})
	assert.True(t, errors.Is(err, domain.ErrInvalidCredential))
}

func TestSignIn_IncluyeRolYEmpresaEnElToken(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	uc := newAuth(store)
	out, err := uc.SignUp(ctx, dto.SignUpRequest{Email: "tech@acme.test", Password: "supersecreta"})
	require.NoError(t, err)
	require.NoError(t, store.Profiles().Upsert(ctx, &entity.Profile{ID: out.Identity.ID, Role: entity.RoleTechnician, CompanyID: "co-1"}))

	in, err := uc.SignIn(ctx, dto.LoginRequest{Email: "tech@acme.test", Password: "supersecreta"})
	require.NoError(t, err)
	require.NotNil(t, in.Profile)
	assert.Equal(t, "tech", in.Profile.Role)

	claims, err := jwt.Parse(secret, in.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tech", claims.Role)
	assert.Equal(t, "co-1", claims.CompanyID)
}

func TestRefresh_RotaElToken(t *testing.T) {
	store := memstore.New()
	uc := newAuth(store)
	ctx := context.Background()
	out, err := uc.SignUp(ctx, dto.SignUpRequest{Email: "ana@example.com", Password: "supersecreta"})
	require.NoError(t, err)

	next, err := uc.Refresh(ctx, dto.RefreshRequest{RefreshToken: out.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, out.RefreshToken, next.RefreshToken)

	_, err = uc.Refresh(ctx, dto.RefreshRequest{RefreshToken: out.RefreshToken})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized), "el token rotado queda revocado")

	require.NoError(t, uc.SignOut(ctx, dto.RefreshRequest{RefreshToken: next.RefreshToken}))
	_, err = uc.Refresh(ctx, dto.RefreshRequest{RefreshToken: next.RefreshToken})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	assert.NoError(t, uc.SignOut(ctx, dto.RefreshRequest{RefreshToken: "desconocido"}))
}

func TestRefresh_Expirado(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	uc := newAuth(store).WithClock(func() time.Time { return now })
	out, err := uc.SignUp(ctx, dto.SignUpRequest{Email: "ana@example.com", Password: "supersecreta"})
	require.NoError(t, err)

	now = now.Add(31 * 24 * time.Hour)
	_, err = uc.Refresh(ctx, dto.RefreshRequest{RefreshToken: out.RefreshToken})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// ─── canje de enlaces ────────────────────────────────────────────────────────

func issueLink(t *testing.T, store *memstore.Store, kind entity.TokenKind, now func() time.Time) (*entity.Identity, *entity.ActionLink) {
	t.Helper()
	ctx := context.Background()
	p := identity.NewProvider(store.Identities(), store.Tokens(), identity.LinkConfig{InviteTTL: 24 * time.Hour, RecoveryTTL: time.Hour}).WithClock(now)
	if kind == entity.TokenInvite {
		ident, link, err := p.Invite(ctx, "new@example.com", entity.IdentityMetadata{FullName: "New"}, "https://app.test/welcome")
		require.NoError(t, err)
		return ident, link
	}
	ident := &entity.Identity{ID: "existing", Email: "old@example.com"}
	require.NoError(t, store.Identities().Create(ctx, ident))
	link, err := p.RecoveryLink(ctx, ident, "https://app.test/reset-password")
	require.NoError(t, err)
	return ident, link
}

func TestRecover_AceptaInvitacion(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	ident, link := issueLink(t, store, entity.TokenInvite, time.Now)
	uc := newAuth(store)

	out, err := uc.Recover(ctx, dto.RecoverRequest{Token: link.Token, Password: "nuevaclave1"})
	require.NoError(t, err)
	assert.Equal(t, ident.ID, out.Identity.ID)
	assert.NotNil(t, out.Identity.EmailConfirmedAt)

	_, err = uc.Recover(ctx, dto.RecoverRequest{Token: link.Token, Password: "otraclave22"})
	assert.True(t, errors.Is(err, domain.ErrInvalidToken), "el enlace es de un solo uso")

	_, err = uc.SignIn(ctx, dto.LoginRequest{Email: "new@example.com", Password: "nuevaclave1"})
	assert.NoError(t, err)
}

func TestRecover_RecuperacionRevocaSesiones(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	uc := newAuth(store)
	_, link := issueLink(t, store, entity.TokenRecovery, time.Now)

	first, err := uc.Recover(ctx, dto.RecoverRequest{Token: link.Token, Password: "clave-uno-1"})
	require.NoError(t, err)

	p := identity.NewProvider(store.Identities(), store.Tokens(), identity.LinkConfig{})
	ident, err := store.Identities().GetByID(ctx, "existing")
	require.NoError(t, err)
	second, err := p.RecoveryLink(ctx, ident, "https://app.test/reset-password")
	require.NoError(t, err)

	_, err = uc.Recover(ctx, dto.RecoverRequest{Token: second.Token, Password: "clave-dos-2"})
	require.NoError(t, err)

	_, err = uc.Refresh(ctx, dto.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized), "la recuperación cierra sesiones previas")
}

func TestRecover_EnlaceExpiradoOInvalido(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	_, link := issueLink(t, store, entity.TokenRecovery, clock)
	uc := newAuth(store).WithClock(clock)

	_, err := uc.Recover(ctx, dto.RecoverRequest{Token: "no-existe", Password: "nuevaclave1"})
	assert.True(t, errors.Is(err, domain.ErrInvalidToken))

	now = now.Add(2 * time.Hour)
	_, err = uc.Recover(ctx, dto.RecoverRequest{Token: link.Token, Password: "nuevaclave1"})
	assert.True(t, errors.Is(err, domain.ErrInvalidToken))
}

// 40 × "ñ" son 40 caracteres pero 80 bytes: bcrypt no los admite.
func TestRecover_PasswordMultibyte_NoConsumeElEnlace(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	_, link := issueLink(t, store, entity.TokenInvite, time.Now)
	uc := newAuth(store)

	_, err := uc.Recover(ctx, dto.RecoverRequest{Token: link.Token, Password: strings.Repeat("ñ", 40)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	tok, err := store.Tokens().GetByHash(ctx, identity.HashToken(link.Token))
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Nil(t, tok.UsedAt, "el enlace sigue vigente tras el rechazo")

	_, err = uc.Recover(ctx, dto.RecoverRequest{Token: link.Token, Password: "nuevaclave1"})
	require.NoError(t, err)
}

func TestPasswordMultibyte_SignUpYUpdate(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	uc := newAuth(store)

	_, err := uc.SignUp(ctx, dto.SignUpRequest{Email: "ana@example.com", Password: strings.Repeat("ñ", 40)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	out, err := uc.SignUp(ctx, dto.SignUpRequest{Email: "ana@example.com", Password: strings.Repeat("ñ", 36)})
	require.NoError(t, err, "72 bytes exactos se aceptan")

	err = uc.UpdatePassword(ctx, out.Identity.ID, dto.UpdatePasswordRequest{Password: strings.Repeat("ñ", 37)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// staleTokens devuelve siempre el enlace como abierto, igual que una lectura previa al canje de otra petición.
type staleTokens struct{ repository.AuthTokenRepository }

func (s staleTokens) GetByHash(ctx context.Context, hash string) (*entity.AuthToken, error) {
	tok, err := s.AuthTokenRepository.GetByHash(ctx, hash)
	if tok != nil {
		tok.UsedAt = nil
	}
	return tok, err
}

// staleRefresh devuelve siempre la sesión como activa.
type staleRefresh struct{ repository.RefreshTokenRepository }

func (s staleRefresh) GetByHash(ctx context.Context, hash string) (*entity.RefreshToken, error) {
	rt, err := s.RefreshTokenRepository.GetByHash(ctx, hash)
	if rt != nil {
		rt.Revoked = false
	}
	return rt, err
}

func newStaleAuth(store *memstore.Store) *auth.AuthUseCase {
	return auth.NewAuthUseCase(store.Identities(), staleTokens{store.Tokens()}, staleRefresh{store.RefreshTokens()}, store.Profiles(), auth.JWTConfig{
		Secret:     secret,
		ExpMinutes: 15,
		Issuer:     "poolbud-test",
	})
}

func TestRecover_CanjesSimultaneos_SoloUnoGana(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	_, link := issueLink(t, store, entity.TokenInvite, time.Now)
	uc := newStaleAuth(store)

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Recover(ctx, dto.RecoverRequest{Token: link.Token, Password: "nuevaclave1"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrInvalidToken), "error inesperado: %v", err)
	}
	assert.Equal(t, 1, ok)
}

func TestRefresh_TokenYaRotado_NoEmiteOtraSesion(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	uc := newStaleAuth(store)
	out, err := uc.SignUp(ctx, dto.SignUpRequest{Email: "ana@example.com", Password: "supersecreta"})
	require.NoError(t, err)

	_, err = uc.Refresh(ctx, dto.RefreshRequest{RefreshToken: out.RefreshToken})
	require.NoError(t, err)
	_, err = uc.Refresh(ctx, dto.RefreshRequest{RefreshToken: out.RefreshToken})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	assert.NoError(t, uc.SignOut(ctx, dto.RefreshRequest{RefreshToken: out.RefreshToken}), "cerrar una sesión ya revocada no es error")
}

func TestUpdatePassword(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	uc := newAuth(store)
	out, err := uc.SignUp(ctx, dto.SignUpRequest{Email: "ana@example.com", Password: "supersecreta"})
	require.NoError(t, err)

	require.NoError(t, uc.UpdatePassword(ctx, out.Identity.ID, dto.UpdatePasswordRequest{Password: "otra-clave-9"}))
	_, err = uc.SignIn(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "supersecreta"})
	assert.True(t, errors.Is(err, domain.ErrInvalidCredential))
	_, err = uc.SignIn(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "otra-clave-9"})
	assert.NoError(t, err)

	assert.True(t, errors.Is(uc.UpdatePassword(ctx, "nadie", dto.UpdatePasswordRequest{Password: "otra-clave-9"}), domain.ErrUnauthorized))
}

func TestLoadSessionYDescribe(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	uc := newAuth(store)
	out, err := uc.SignUp(ctx, dto.SignUpRequest{Email: "ana@example.com", Password: "supersecreta", FullName: "Ana"})
	require.NoError(t, err)

	sess, err := uc.LoadSession(ctx, out.Identity.ID)
	require.NoError(t, err)
	assert.Nil(t, sess.Profile)
	assert.Equal(t, entity.Role(""), sess.Role())

	require.NoError(t, store.Profiles().Upsert(ctx, &entity.Profile{ID: out.Identity.ID, Role: entity.RoleOwner, CompanyID: "co-1"}))
	sess, err = uc.LoadSession(ctx, out.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleOwner, sess.Role())

	desc, err := uc.Describe(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "Ana", desc.Identity.FullName)
	require.NotNil(t, desc.Profile)
	require.NotNil(t, desc.Profile.CompanyID)
	assert.Equal(t, "co-1", *desc.Profile.CompanyID)

	_, err = uc.LoadSession(ctx, "fantasma")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
