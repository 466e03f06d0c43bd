package postgres

import (
	"context"
	"fmt"

	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// ProfileRepo perfiles (rol + empresa) sobre PostgreSQL.
type ProfileRepo struct {
	db Querier
}

// NewProfileRepository construye el repositorio.
func NewProfileRepository(db Querier) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = `id, role, company_id, full_name, email, phone, address_line1, address_line2,
	city, state, postal_code, country, has_completed_setup, created_at, updated_at`

// GetByID obtiene un perfil por ID (el mismo de la identidad).
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Upsert inserta o reemplaza rol, empresa, contacto y has_completed_setup.
// La dirección postal y created_at del perfil existente se conservan.
func (r *ProfileRepo) Upsert(ctx context.Context, p *entity.Profile) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (id, role, company_id, full_name, email, phone, has_completed_setup, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		   SET role                = EXCLUDED.role,
		       company_id          = EXCLUDED.company_id,
		       full_name           = EXCLUDED.full_name,
		       email               = EXCLUDED.email,
		       phone               = EXCLUDED.phone,
		       has_completed_setup = EXCLUDED.has_completed_setup,
		       updated_at          = EXCLUDED.updated_at`,
		p.ID, string(p.Role), nullable(p.CompanyID), p.FullName, p.Email, p.Phone,
		p.HasCompletedSetup, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: la empresa ya tiene owner", domain.ErrConflict)
		}
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Update guarda los datos de contacto y el estado de onboarding.
func (r *ProfileRepo) Update(ctx context.Context, p *entity.Profile) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE profiles
		   SET full_name = $2, phone = $3, address_line1 = $4, address_line2 = $5, city = $6,
		       state = $7, postal_code = $8, country = $9, has_completed_setup = $10, updated_at = $11
		 WHERE id = $1`,
		p.ID, p.FullName, p.Phone, p.AddressLine1, p.AddressLine2, p.City,
		p.State, p.PostalCode, p.Country, p.HasCompletedSetup, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByCompany perfiles de una empresa.
func (r *ProfileRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Profile, error) {
	return r.list(ctx, `SELECT `+profileColumns+` FROM profiles WHERE company_id = $1 ORDER BY role, full_name`, companyID)
}

// ListAll todos los perfiles de la plataforma.
func (r *ProfileRepo) ListAll(ctx context.Context) ([]*entity.Profile, error) {
	return r.list(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY role, full_name`)
}

func (r *ProfileRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Profile, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	list := []*entity.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// DemoteOwners pasa a admin a los owners de la empresa distintos de keepID.
func (r *ProfileRepo) DemoteOwners(ctx context.Context, companyID, keepID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE profiles SET role = 'admin', updated_at = now()
		 WHERE company_id = $1 AND role = 'owner' AND id <> $2`, companyID, keepID)
	if err != nil {
		return 0, fmt.Errorf("demote owners: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// LockCompany toma un advisory lock de transacción por empresa; se libera en el commit o rollback.
func (r *ProfileRepo) LockCompany(ctx context.Context, companyID string) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, companyID); err != nil {
		return fmt.Errorf("lock company: %w", err)
	}
	return nil
}

func scanProfile(row rowScanner) (*entity.Profile, error) {
	var p entity.Profile
	var role string
	var companyID *string
	if err := row.Scan(
		&p.ID, &role, &companyID, &p.FullName, &p.Email, &p.Phone, &p.AddressLine1, &p.AddressLine2,
		&p.City, &p.State, &p.PostalCode, &p.Country, &p.HasCompletedSetup, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Role = entity.Role(role)
	p.CompanyID = deref(companyID)
	return &p, nil
}
