package repository

import (
	"context"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	GetByPortalUser(ctx context.Context, identityID string) (*entity.Customer, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Customer, error)
	// Search filtra por nombre, dirección o email (ILIKE).
	Search(ctx context.Context, companyID, q string) ([]*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	LinkPortalUser(ctx context.Context, customerID, identityID, email string) error
}
