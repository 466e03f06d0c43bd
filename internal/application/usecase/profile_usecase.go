package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// ProfileUseCase perfiles de aplicación: el propio y los del equipo.
type ProfileUseCase struct {
	repo repository.ProfileRepository
}

// NewProfileUseCase construye el caso de uso.
func NewProfileUseCase(repo repository.ProfileRepository) *ProfileUseCase {
	return &ProfileUseCase{repo: repo}
}

// Me perfil de la sesión.
func (uc *ProfileUseCase) Me(ctx context.Context, sess *entity.Session) (*dto.ProfileResponse, error) {
	p, err := uc.repo.GetByID(ctx, sess.IdentityID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound("perfil no encontrado")
	}
	return dto.ProfileFromEntity(p), nil
}

// UpdateMe actualiza datos de contacto y el flag de onboarding. Rol y empresa no se editan aquí.
func (uc *ProfileUseCase) UpdateMe(ctx context.Context, sess *entity.Session, in dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	p, err := uc.repo.GetByID(ctx, sess.IdentityID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound("perfil no encontrado")
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&p.FullName, in.FullName)
	set(&p.Phone, in.Phone)
	set(&p.AddressLine1, in.AddressLine1)
	set(&p.AddressLine2, in.AddressLine2)
	set(&p.City, in.City)
	set(&p.State, in.State)
	set(&p.PostalCode, in.PostalCode)
	set(&p.Country, in.Country)
	if in.HasCompletedSetup != nil {
		p.HasCompletedSetup = *in.HasCompletedSetup
	}
	p.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return dto.ProfileFromEntity(p), nil
}

// ListCompany perfiles de la empresa resuelta para la sesión.
func (uc *ProfileUseCase) ListCompany(ctx context.Context, sess *entity.Session, companyID string) (*dto.ListResponse[dto.ProfileResponse], error) {
	companyID, err := ResolveCompany(sess, companyID)
	if err != nil {
		return nil, err
	}
	list, err := uc.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return profileList(list), nil
}

// ListAll todos los perfiles (platform_admin).
func (uc *ProfileUseCase) ListAll(ctx context.Context, sess *entity.Session) (*dto.ListResponse[dto.ProfileResponse], error) {
	if !sess.IsPlatformAdmin() {
		return nil, domain.Denied("solo los administradores de la plataforma pueden listar todos los perfiles")
	}
	list, err := uc.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return profileList(list), nil
}

func profileList(list []*entity.Profile) *dto.ListResponse[dto.ProfileResponse] {
	items := make([]dto.ProfileResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *dto.ProfileFromEntity(p))
	}
	out := dto.NewList(items)
	return &out
}
