package repository

import (
	"context"
	"time"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

// IdentityRepository puerto de persistencia de identidades de autenticación.
// Create devuelve domain.ErrIdentityExists si el email ya está registrado.
type IdentityRepository interface {
	Create(ctx context.Context, identity *entity.Identity) error
	GetByID(ctx context.Context, id string) (*entity.Identity, error)
	FindByEmail(ctx context.Context, email string) (*entity.Identity, error)
	UpdateMetadata(ctx context.Context, id string, meta entity.IdentityMetadata) error
	SetPassword(ctx context.Context, id, passwordHash string, confirmedAt time.Time) error
	TouchSignIn(ctx context.Context, id string, at time.Time) error
}

// AuthTokenRepository enlaces de invitación y recuperación (solo hashes).
type AuthTokenRepository interface {
	Create(ctx context.Context, token *entity.AuthToken) error
	GetByHash(ctx context.Context, hash string) (*entity.AuthToken, error)
	// MarkUsed consume el enlace solo si sigue abierto; si ya estaba usado devuelve domain.ErrInvalidToken.
	MarkUsed(ctx context.Context, id string, at time.Time) error
	// InvalidateOpen marca como usados los enlaces abiertos de la identidad (al emitir uno nuevo).
	InvalidateOpen(ctx context.Context, identityID string, at time.Time) error
}

// RefreshTokenRepository sesiones persistentes.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*entity.RefreshToken, error)
	// Revoke revoca la sesión solo si sigue activa; si no, devuelve domain.ErrUnauthorized.
	Revoke(ctx context.Context, id string) error
	RevokeAllForIdentity(ctx context.Context, identityID string) error
}
