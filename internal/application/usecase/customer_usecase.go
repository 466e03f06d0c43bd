package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// PortalInviter envía la invitación al portal de un cliente recién creado.
type PortalInviter interface {
	InviteCustomerPortalAccess(ctx context.Context, sess *entity.Session, in dto.InviteCustomerRequest) (*dto.InviteCustomerResponse, error)
}

// CustomerUseCase casos de uso de clientes de la empresa.
type CustomerUseCase struct {
	repo    repository.CustomerRepository
	inviter PortalInviter
	log     zerolog.Logger
}

// NewCustomerUseCase construye el caso de uso. inviter puede ser nil (sin invitación automática).
func NewCustomerUseCase(repo repository.CustomerRepository, inviter PortalInviter, log zerolog.Logger) *CustomerUseCase {
	return &CustomerUseCase{repo: repo, inviter: inviter, log: log}
}

// List clientes de la empresa; con q filtra por nombre, dirección o email.
func (uc *CustomerUseCase) List(ctx context.Context, sess *entity.Session, companyID, q string) (*dto.ListResponse[dto.CustomerResponse], error) {
	companyID, err := ResolveCompany(sess, companyID)
	if err != nil {
		return nil, err
	}
	var list []*entity.Customer
	if q = strings.TrimSpace(q); q != "" {
		list, err = uc.repo.Search(ctx, companyID, q)
	} else {
		list, err = uc.repo.ListByCompany(ctx, companyID)
	}
	if err != nil {
		return nil, err
	}
	items := make([]dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		items = append(items, dto.CustomerFromEntity(c))
	}
	out := dto.NewList(items)
	return &out, nil
}

// Get cliente visible para la sesión.
func (uc *CustomerUseCase) Get(ctx context.Context, sess *entity.Session, id string) (*dto.CustomerResponse, error) {
	c, err := uc.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	out := dto.CustomerFromEntity(c)
	return &out, nil
}

// Create da de alta un cliente. Si trae email se le invita al portal; un fallo
// de la invitación se registra pero no impide el alta.
func (uc *CustomerUseCase) Create(ctx context.Context, sess *entity.Session, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	companyID, err := ResolveCompany(sess, in.CompanyID)
	if err != nil {
		return nil, err
	}
	c := &entity.Customer{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		Name:       strings.TrimSpace(in.Name),
		Address:    strings.TrimSpace(in.Address),
		Phone:      strings.TrimSpace(in.Phone),
		Email:      entity.NormalizeEmail(in.Email),
		BalanceDue: decimal.Zero,
		CreatedAt:  time.Now(),
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if c.Email != "" && uc.inviter != nil {
		res, err := uc.inviter.InviteCustomerPortalAccess(ctx, sess, dto.InviteCustomerRequest{
			CustomerID: c.ID,
			Email:      c.Email,
			FullName:   c.Name,
		})
		if err != nil {
			uc.log.Warn().Err(err).Str("customer_id", c.ID).Msg("invitación automática al portal fallida")
		} else {
			c.PortalUserID = res.PortalUserID
		}
	}
	out := dto.CustomerFromEntity(c)
	return &out, nil
}

// Update edición parcial.
func (uc *CustomerUseCase) Update(ctx context.Context, sess *entity.Session, id string, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	c, err := uc.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		c.Address = strings.TrimSpace(*in.Address)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		c.Email = entity.NormalizeEmail(*in.Email)
	}
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	out := dto.CustomerFromEntity(c)
	return &out, nil
}

func (uc *CustomerUseCase) load(ctx context.Context, sess *entity.Session, id string) (*entity.Customer, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.NotFound("cliente no encontrado")
	}
	if err := CheckCompany(sess, c.CompanyID); err != nil {
		return nil, err
	}
	return c, nil
}
