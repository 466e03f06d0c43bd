package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/identity"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
	"github.com/thepoolbud/poolbud-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret       string
	ExpMinutes   int
	RefreshHours int
	Issuer       string
}

// AuthUseCase sesiones sobre identidades propias: registro, login, refresh, logout y canje de enlaces.
type AuthUseCase struct {
	identities repository.IdentityRepository
	tokens     repository.AuthTokenRepository
	refresh    repository.RefreshTokenRepository
	profiles   repository.ProfileRepository
	jwtCfg     JWTConfig
	now        func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(
	identities repository.IdentityRepository,
	tokens repository.AuthTokenRepository,
	refresh repository.RefreshTokenRepository,
	profiles repository.ProfileRepository,
	jwtCfg JWTConfig,
) *AuthUseCase {
	if jwtCfg.ExpMinutes <= 0 {
		jwtCfg.ExpMinutes = 60
	}
	if jwtCfg.RefreshHours <= 0 {
		jwtCfg.RefreshHours = 24 * 30
	}
	return &AuthUseCase{
		identities: identities,
		tokens:     tokens,
		refresh:    refresh,
		profiles:   profiles,
		jwtCfg:     jwtCfg,
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *AuthUseCase) WithClock(now func() time.Time) *AuthUseCase {
	uc.now = now
	return uc
}

// SignUp registra una identidad con contraseña y abre sesión. El perfil llega después por invitación.
func (uc *AuthUseCase) SignUp(ctx context.Context, in dto.SignUpRequest) (*dto.TokenResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	ident := &entity.Identity{
		ID:           uuid.New().String(),
		Email:        entity.NormalizeEmail(in.Email),
		PasswordHash: hash,
		Metadata:     entity.IdentityMetadata{FullName: in.FullName},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.identities.Create(ctx, ident); err != nil {
		return nil, err
	}
	return uc.startSession(ctx, ident)
}

// SignIn verifica email/password y emite access + refresh token.
func (uc *AuthUseCase) SignIn(ctx context.Context, in dto.LoginRequest) (*dto.TokenResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	ident, err := uc.identities.FindByEmail(ctx, entity.NormalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	// Sin contraseña = invitación pendiente; se responde igual que credenciales inválidas.
	if ident == nil || ident.PasswordHash == "" {
		return nil, domain.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrInvalidCredential
	}
	return uc.startSession(ctx, ident)
}

// Refresh rota el refresh token: revoca el recibido y emite uno nuevo.
func (uc *AuthUseCase) Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.TokenResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	rt, err := uc.refresh.GetByHash(ctx, identity.HashToken(in.RefreshToken))
	if err != nil {
		return nil, err
	}
	if rt == nil || rt.Revoked || !rt.ExpiresAt.After(uc.now()) {
		return nil, domain.ErrUnauthorized
	}
	if err := uc.refresh.Revoke(ctx, rt.ID); err != nil {
		return nil, err
	}
	ident, err := uc.identities.GetByID(ctx, rt.IdentityID)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, domain.ErrUnauthorized
	}
	return uc.startSession(ctx, ident)
}

// SignOut revoca el refresh token. Un token desconocido no es error.
func (uc *AuthUseCase) SignOut(ctx context.Context, in dto.RefreshRequest) error {
	if err := dto.Validate(in); err != nil {
		return err
	}
	rt, err := uc.refresh.GetByHash(ctx, identity.HashToken(in.RefreshToken))
	if err != nil || rt == nil {
		return err
	}
	// Revocado en paralelo por otra petición: el resultado es el mismo.
	if err := uc.refresh.Revoke(ctx, rt.ID); err != nil && !errors.Is(err, domain.ErrUnauthorized) {
		return err
	}
	return nil
}

// Recover canjea un enlace de invitación o recuperación: fija la contraseña, confirma el email y abre sesión.
func (uc *AuthUseCase) Recover(ctx context.Context, in dto.RecoverRequest) (*dto.TokenResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	now := uc.now()
	tok, err := uc.tokens.GetByHash(ctx, identity.HashToken(in.Token))
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.UsedAt != nil || !tok.ExpiresAt.After(now) {
		return nil, domain.ErrInvalidToken
	}
	ident, err := uc.identities.GetByID(ctx, tok.IdentityID)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, domain.ErrInvalidToken
	}
	// El hash se calcula antes de consumir el enlace: si falla, el enlace sigue vigente.
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	// MarkUsed es condicional: de dos canjes simultáneos solo uno gana.
	if err := uc.tokens.MarkUsed(ctx, tok.ID, now); err != nil {
		return nil, err
	}
	if err := uc.storePassword(ctx, ident, hash, now); err != nil {
		return nil, err
	}
	// Una recuperación cierra las sesiones previas.
	if tok.Kind == entity.TokenRecovery {
		if err := uc.refresh.RevokeAllForIdentity(ctx, ident.ID); err != nil {
			return nil, err
		}
	}
	return uc.startSession(ctx, ident)
}

// UpdatePassword cambia la contraseña del usuario autenticado.
func (uc *AuthUseCase) UpdatePassword(ctx context.Context, identityID string, in dto.UpdatePasswordRequest) error {
	if err := dto.Validate(in); err != nil {
		return err
	}
	ident, err := uc.identities.GetByID(ctx, identityID)
	if err != nil {
		return err
	}
	if ident == nil {
		return domain.ErrUnauthorized
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return err
	}
	return uc.storePassword(ctx, ident, hash, uc.now())
}

// LoadSession arma el contexto de sesión (identidad + perfil) para una identidad autenticada.
func (uc *AuthUseCase) LoadSession(ctx context.Context, identityID string) (*entity.Session, error) {
	ident, err := uc.identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, domain.ErrUnauthorized
	}
	profile, err := uc.profiles.GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return &entity.Session{IdentityID: ident.ID, Email: ident.Email, Profile: profile}, nil
}

// Describe GET /api/session.
func (uc *AuthUseCase) Describe(ctx context.Context, sess *entity.Session) (*dto.SessionResponse, error) {
	ident, err := uc.identities.GetByID(ctx, sess.IdentityID)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, domain.ErrUnauthorized
	}
	return &dto.SessionResponse{
		Identity: dto.IdentityFromEntity(ident),
		Profile:  dto.ProfileFromEntity(sess.Profile),
	}, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.Invalid("password excede el máximo de 72 bytes")
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (uc *AuthUseCase) storePassword(ctx context.Context, ident *entity.Identity, hash string, now time.Time) error {
	if err := uc.identities.SetPassword(ctx, ident.ID, hash, now); err != nil {
		return fmt.Errorf("guardar contraseña: %w", err)
	}
	ident.PasswordHash = hash
	if ident.EmailConfirmedAt == nil {
		ident.EmailConfirmedAt = &now
	}
	return nil
}

func (uc *AuthUseCase) startSession(ctx context.Context, ident *entity.Identity) (*dto.TokenResponse, error) {
	now := uc.now()
	profile, err := uc.profiles.GetByID(ctx, ident.ID)
	if err != nil {
		return nil, err
	}

	plain, err := identity.NewToken()
	if err != nil {
		return nil, err
	}
	rt := &entity.RefreshToken{
		ID:         uuid.New().String(),
		IdentityID: ident.ID,
		TokenHash:  identity.HashToken(plain),
		ExpiresAt:  now.Add(time.Duration(uc.jwtCfg.RefreshHours) * time.Hour),
		CreatedAt:  now,
	}
	if err := uc.refresh.Create(ctx, rt); err != nil {
		return nil, err
	}

	sub := jwt.Subject{UserID: ident.ID, Email: ident.Email, SessionID: rt.ID}
	if profile != nil {
		sub.Role = string(profile.Role)
		sub.CompanyID = profile.CompanyID
	}
	access, err := jwt.Generate(uc.jwtCfg.Secret, sub, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	if err := uc.identities.TouchSignIn(ctx, ident.ID, now); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	ident.LastSignInAt = &now

	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: plain,
		TokenType:    "bearer",
		ExpiresIn:    uc.jwtCfg.ExpMinutes * 60,
		Identity:     dto.IdentityFromEntity(ident),
		Profile:      dto.ProfileFromEntity(profile),
	}, nil
}
