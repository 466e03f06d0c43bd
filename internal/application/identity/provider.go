// Package identity emite identidades y enlaces de acción (invitación y recuperación)
// sobre los repositorios que reciba, de modo que puede operar dentro de una transacción.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// LinkConfig vigencia de los enlaces.
type LinkConfig struct {
	InviteTTL   time.Duration
	RecoveryTTL time.Duration
}

// Outcome distingue una invitación nueva de una identidad existente re-vinculada.
type Outcome string

const (
	OutcomeInvited  Outcome = "invited"
	OutcomeRelinked Outcome = "relinked"
)

// Resolution resultado de InviteOrRelink.
type Resolution struct {
	Identity *entity.Identity
	Link     *entity.ActionLink
	Outcome  Outcome
}

// Invited compatibilidad con el flag booleano de la API.
func (r *Resolution) Invited() bool {
	return r.Outcome == OutcomeInvited
}

// Provider proveedor de identidad sobre PostgreSQL.
type Provider struct {
	identities repository.IdentityRepository
	tokens     repository.AuthTokenRepository
	cfg        LinkConfig
	now        func() time.Time
}

// NewProvider construye el proveedor con los repos dados (pool o tx).
func NewProvider(identities repository.IdentityRepository, tokens repository.AuthTokenRepository, cfg LinkConfig) *Provider {
	if cfg.InviteTTL <= 0 {
		cfg.InviteTTL = 7 * 24 * time.Hour
	}
	if cfg.RecoveryTTL <= 0 {
		cfg.RecoveryTTL = time.Hour
	}
	return &Provider{identities: identities, tokens: tokens, cfg: cfg, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

// Invite crea una identidad sin contraseña y su enlace de invitación.
// Devuelve domain.ErrIdentityExists si el email ya está registrado.
func (p *Provider) Invite(ctx context.Context, email string, meta entity.IdentityMetadata, redirectTo string) (*entity.Identity, *entity.ActionLink, error) {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return nil, nil, domain.Invalid("email es requerido")
	}
	now := p.now()
	ident := &entity.Identity{
		ID:        uuid.New().String(),
		Email:     email,
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.identities.Create(ctx, ident); err != nil {
		return nil, nil, err
	}
	link, err := p.issue(ctx, ident, entity.TokenInvite, redirectTo, p.cfg.InviteTTL)
	if err != nil {
		return nil, nil, err
	}
	return ident, link, nil
}

// FindByEmail búsqueda directa (sin distinguir mayúsculas). nil si no existe.
func (p *Provider) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	return p.identities.FindByEmail(ctx, entity.NormalizeEmail(email))
}

// GetByID identidad por ID. nil si no existe.
func (p *Provider) GetByID(ctx context.Context, id string) (*entity.Identity, error) {
	return p.identities.GetByID(ctx, id)
}

// UpdateMetadata fusiona meta sobre los metadatos actuales.
func (p *Provider) UpdateMetadata(ctx context.Context, ident *entity.Identity, meta entity.IdentityMetadata) error {
	merged := ident.Metadata.Merge(meta)
	if err := p.identities.UpdateMetadata(ctx, ident.ID, merged); err != nil {
		return err
	}
	ident.Metadata = merged
	return nil
}

// RecoveryLink emite un enlace de recuperación para la identidad.
func (p *Provider) RecoveryLink(ctx context.Context, ident *entity.Identity, redirectTo string) (*entity.ActionLink, error) {
	return p.issue(ctx, ident, entity.TokenRecovery, redirectTo, p.cfg.RecoveryTTL)
}

// InviteOrRelink intenta invitar; si la identidad ya existe la busca por email,
// actualiza sus metadatos y emite un enlace de recuperación en lugar de la invitación.
func (p *Provider) InviteOrRelink(ctx context.Context, email string, meta entity.IdentityMetadata, redirectTo string) (*Resolution, error) {
	ident, link, err := p.Invite(ctx, email, meta, redirectTo)
	if err == nil {
		return &Resolution{Identity: ident, Link: link, Outcome: OutcomeInvited}, nil
	}
	if !errors.Is(err, domain.ErrIdentityExists) {
		return nil, fmt.Errorf("invitar identidad: %w", err)
	}

	existing, err := p.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("buscar identidad: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: la identidad existe pero no se encontró por email", domain.ErrConflict)
	}
	if err := p.UpdateMetadata(ctx, existing, meta); err != nil {
		return nil, fmt.Errorf("actualizar metadatos: %w", err)
	}
	link, err = p.RecoveryLink(ctx, existing, redirectTo)
	if err != nil {
		return nil, err
	}
	return &Resolution{Identity: existing, Link: link, Outcome: OutcomeRelinked}, nil
}

func (p *Provider) issue(ctx context.Context, ident *entity.Identity, kind entity.TokenKind, redirectTo string, ttl time.Duration) (*entity.ActionLink, error) {
	plain, err := NewToken()
	if err != nil {
		return nil, err
	}
	now := p.now()
	if err := p.tokens.InvalidateOpen(ctx, ident.ID, now); err != nil {
		return nil, fmt.Errorf("invalidar enlaces previos: %w", err)
	}
	tok := &entity.AuthToken{
		ID:         uuid.New().String(),
		IdentityID: ident.ID,
		Kind:       kind,
		TokenHash:  HashToken(plain),
		RedirectTo: redirectTo,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	if err := p.tokens.Create(ctx, tok); err != nil {
		return nil, fmt.Errorf("guardar enlace: %w", err)
	}
	return &entity.ActionLink{
		Kind:       kind,
		IdentityID: ident.ID,
		Email:      ident.Email,
		Token:      plain,
		RedirectTo: redirectTo,
		URL:        ActionURL(redirectTo, plain, kind),
		ExpiresAt:  tok.ExpiresAt,
	}, nil
}

// ActionURL agrega token y tipo a la URL de redirección conservando su query.
func ActionURL(redirectTo, token string, kind entity.TokenKind) string {
	u, err := url.Parse(redirectTo)
	if err != nil {
		return redirectTo
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("type", string(kind))
	u.RawQuery = q.Encode()
	return u.String()
}
