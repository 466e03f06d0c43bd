package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

var (
	_ repository.IdentityRepository     = (*IdentityRepo)(nil)
	_ repository.AuthTokenRepository    = (*AuthTokenRepo)(nil)
	_ repository.RefreshTokenRepository = (*RefreshTokenRepo)(nil)
)

// ─── identities ──────────────────────────────────────────────────────────────

// IdentityRepo identidades de autenticación. El email es único sin distinguir mayúsculas.
type IdentityRepo struct {
	db Querier
}

// NewIdentityRepository construye el repositorio.
func NewIdentityRepository(db Querier) *IdentityRepo {
	return &IdentityRepo{db: db}
}

const identityColumns = `id, email, password_hash, metadata, email_confirmed_at, last_sign_in_at, created_at, updated_at`

// Create inserta la identidad; un email repetido devuelve domain.ErrIdentityExists.
func (r *IdentityRepo) Create(ctx context.Context, i *entity.Identity) error {
	query := `INSERT INTO identities (` + identityColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		i.ID, entity.NormalizeEmail(i.Email), nullable(i.PasswordHash), i.Metadata,
		i.EmailConfirmedAt, i.LastSignInAt, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdentityExists
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// GetByID obtiene una identidad por ID.
func (r *IdentityRepo) GetByID(ctx context.Context, id string) (*entity.Identity, error) {
	return r.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
}

// FindByEmail búsqueda directa por el índice lower(email).
func (r *IdentityRepo) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	return r.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE lower(email) = lower($1)`, entity.NormalizeEmail(email))
}

func (r *IdentityRepo) getOne(ctx context.Context, query string, arg any) (*entity.Identity, error) {
	var i entity.Identity
	var hash *string
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&i.ID, &i.Email, &hash, &i.Metadata, &i.EmailConfirmedAt, &i.LastSignInAt, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	i.PasswordHash = deref(hash)
	return &i, nil
}

// UpdateMetadata reemplaza los metadatos.
func (r *IdentityRepo) UpdateMetadata(ctx context.Context, id string, meta entity.IdentityMetadata) error {
	return r.exec(ctx, "update identity metadata",
		`UPDATE identities SET metadata = $2, updated_at = now() WHERE id = $1`, id, meta)
}

// SetPassword guarda el hash y confirma el email si aún no lo estaba.
func (r *IdentityRepo) SetPassword(ctx context.Context, id, passwordHash string, confirmedAt time.Time) error {
	return r.exec(ctx, "set password", `
		UPDATE identities
		   SET password_hash = $2,
		       email_confirmed_at = COALESCE(email_confirmed_at, $3),
		       updated_at = now()
		 WHERE id = $1`, id, passwordHash, confirmedAt)
}

// TouchSignIn registra el último inicio de sesión.
func (r *IdentityRepo) TouchSignIn(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, "touch sign in", `UPDATE identities SET last_sign_in_at = $2 WHERE id = $1`, id, at)
}

func (r *IdentityRepo) exec(ctx context.Context, op, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ─── auth tokens ─────────────────────────────────────────────────────────────

// AuthTokenRepo enlaces de invitación y recuperación.
type AuthTokenRepo struct {
	db Querier
}

// NewAuthTokenRepository construye el repositorio.
func NewAuthTokenRepository(db Querier) *AuthTokenRepo {
	return &AuthTokenRepo{db: db}
}

// Create guarda el enlace (solo el hash del token).
func (r *AuthTokenRepo) Create(ctx context.Context, t *entity.AuthToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO auth_tokens (id, identity_id, kind, token_hash, redirect_to, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.IdentityID, string(t.Kind), t.TokenHash, t.RedirectTo, t.ExpiresAt, t.UsedAt, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert auth token: %w", err)
	}
	return nil
}

// GetByHash busca un enlace por el hash del token.
func (r *AuthTokenRepo) GetByHash(ctx context.Context, hash string) (*entity.AuthToken, error) {
	var t entity.AuthToken
	var kind string
	err := r.db.QueryRow(ctx, `
		SELECT id, identity_id, kind, token_hash, redirect_to, expires_at, used_at, created_at
		  FROM auth_tokens WHERE token_hash = $1`, hash,
	).Scan(&t.ID, &t.IdentityID, &kind, &t.TokenHash, &t.RedirectTo, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auth token: %w", err)
	}
	t.Kind = entity.TokenKind(kind)
	return &t, nil
}

// MarkUsed consume el enlace si sigue abierto. Con canjes simultáneos solo uno afecta la fila.
func (r *AuthTokenRepo) MarkUsed(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE auth_tokens SET used_at = $2 WHERE id = $1 AND used_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("mark auth token used: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInvalidToken
	}
	return nil
}

// InvalidateOpen marca como usados los enlaces pendientes de la identidad.
func (r *AuthTokenRepo) InvalidateOpen(ctx context.Context, identityID string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE auth_tokens SET used_at = $2 WHERE identity_id = $1 AND used_at IS NULL`, identityID, at)
	if err != nil {
		return fmt.Errorf("invalidate auth tokens: %w", err)
	}
	return nil
}

// ─── refresh tokens ──────────────────────────────────────────────────────────

// RefreshTokenRepo sesiones persistentes.
type RefreshTokenRepo struct {
	db Querier
}

// NewRefreshTokenRepository construye el repositorio.
func NewRefreshTokenRepository(db Querier) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

// Create guarda la sesión (solo el hash del token).
func (r *RefreshTokenRepo) Create(ctx context.Context, t *entity.RefreshToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, identity_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.IdentityID, t.TokenHash, t.ExpiresAt, t.Revoked, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetByHash busca una sesión por el hash del token.
func (r *RefreshTokenRepo) GetByHash(ctx context.Context, hash string) (*entity.RefreshToken, error) {
	var t entity.RefreshToken
	err := r.db.QueryRow(ctx, `
		SELECT id, identity_id, token_hash, expires_at, revoked, created_at
		  FROM refresh_tokens WHERE token_hash = $1`, hash,
	).Scan(&t.ID, &t.IdentityID, &t.TokenHash, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return &t, nil
}

// Revoke invalida una sesión activa. Si ya estaba revocada devuelve domain.ErrUnauthorized.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE refresh_tokens SET revoked = true WHERE id = $1 AND NOT revoked`, id)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUnauthorized
	}
	return nil
}

// RevokeAllForIdentity cierra todas las sesiones de la identidad.
func (r *RefreshTokenRepo) RevokeAllForIdentity(ctx context.Context, identityID string) error {
	if _, err := r.db.Exec(ctx, `UPDATE refresh_tokens SET revoked = true WHERE identity_id = $1 AND NOT revoked`, identityID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
