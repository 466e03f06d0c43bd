package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// CompanyUseCase aplica reglas de negocio para empresas (casos de uso).
type CompanyUseCase struct {
	repo repository.CompanyRepository
}

// NewCompanyUseCase construye el caso de uso con el puerto de persistencia.
func NewCompanyUseCase(repo repository.CompanyRepository) *CompanyUseCase {
	return &CompanyUseCase{repo: repo}
}

// Create crea una nueva empresa (platform_admin).
func (uc *CompanyUseCase) Create(ctx context.Context, sess *entity.Session, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if !sess.IsPlatformAdmin() {
		return nil, domain.Denied("solo los administradores de la plataforma pueden crear empresas")
	}
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	company := &entity.Company{
		ID:                uuid.New().String(),
		Name:              strings.TrimSpace(in.Name),
		BillingAccountRef: strings.TrimSpace(in.BillingAccountRef),
		CreatedAt:         time.Now(),
	}
	if err := uc.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	out := dto.CompanyFromEntity(company)
	return &out, nil
}

// GetByID obtiene una empresa visible para la sesión.
func (uc *CompanyUseCase) GetByID(ctx context.Context, sess *entity.Session, id string) (*dto.CompanyResponse, error) {
	if err := CheckCompany(sess, id); err != nil {
		return nil, err
	}
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.NotFound("empresa no encontrada")
	}
	out := dto.CompanyFromEntity(company)
	return &out, nil
}

// GetOwn empresa del perfil autenticado.
func (uc *CompanyUseCase) GetOwn(ctx context.Context, sess *entity.Session) (*dto.CompanyResponse, error) {
	if sess.CompanyID() == "" {
		return nil, domain.NotFound("el usuario no pertenece a ninguna empresa")
	}
	return uc.GetByID(ctx, sess, sess.CompanyID())
}

// List lista todas las empresas (platform_admin).
func (uc *CompanyUseCase) List(ctx context.Context, sess *entity.Session) (*dto.ListResponse[dto.CompanyResponse], error) {
	if !sess.IsPlatformAdmin() {
		return nil, domain.Denied("solo los administradores de la plataforma pueden listar empresas")
	}
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, dto.CompanyFromEntity(c))
	}
	out := dto.NewList(items)
	return &out, nil
}

// Update edita nombre o cuenta de facturación (platform_admin).
func (uc *CompanyUseCase) Update(ctx context.Context, sess *entity.Session, id string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	if !sess.IsPlatformAdmin() {
		return nil, domain.Denied("solo los administradores de la plataforma pueden editar empresas")
	}
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.NotFound("empresa no encontrada")
	}
	if in.Name != nil {
		company.Name = strings.TrimSpace(*in.Name)
	}
	if in.BillingAccountRef != nil {
		company.BillingAccountRef = strings.TrimSpace(*in.BillingAccountRef)
	}
	if err := uc.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	out := dto.CompanyFromEntity(company)
	return &out, nil
}
