package repository

import (
	"context"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

// ProfileRepository puerto de persistencia de perfiles (rol + empresa).
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
	// Upsert inserta o reemplaza rol, empresa, contacto y has_completed_setup por ID.
	Upsert(ctx context.Context, profile *entity.Profile) error
	Update(ctx context.Context, profile *entity.Profile) error
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Profile, error)
	ListAll(ctx context.Context) ([]*entity.Profile, error)
	// DemoteOwners pasa a admin a todo owner de la empresa distinto de keepID. Devuelve cuántos.
	DemoteOwners(ctx context.Context, companyID, keepID string) (int64, error)
	// LockCompany serializa la asignación de owner por empresa hasta el fin de la transacción.
	LockCompany(ctx context.Context, companyID string) error
}
