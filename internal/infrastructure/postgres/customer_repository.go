package postgres

import (
	"context"
	"fmt"

	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo clientes de cada empresa.
type CustomerRepo struct {
	db Querier
}

// NewCustomerRepository construye el repositorio.
func NewCustomerRepository(db Querier) *CustomerRepo {
	return &CustomerRepo{db: db}
}

const customerColumns = `id, company_id, customer_name, address, phone, email, balance_due, portal_user_id, created_at`

// Create persiste un cliente.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	_, err := r.db.Exec(ctx, `INSERT INTO customers (`+customerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.CompanyID, c.Name, c.Address, c.Phone, c.Email, c.BalanceDue, nullable(c.PortalUserID), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

// GetByPortalUser cliente enlazado a la identidad del portal.
func (r *CustomerRepo) GetByPortalUser(ctx context.Context, identityID string) (*entity.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE portal_user_id = $1 LIMIT 1`, identityID)
}

func (r *CustomerRepo) getOne(ctx context.Context, query string, arg any) (*entity.Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// ListByCompany clientes de la empresa por nombre.
func (r *CustomerRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Customer, error) {
	return r.list(ctx, `SELECT `+customerColumns+` FROM customers WHERE company_id = $1 ORDER BY customer_name`, companyID)
}

// Search filtra por nombre, dirección o email.
func (r *CustomerRepo) Search(ctx context.Context, companyID, q string) ([]*entity.Customer, error) {
	return r.list(ctx, `
		SELECT `+customerColumns+` FROM customers
		 WHERE company_id = $1
		   AND (customer_name ILIKE '%' || $2 || '%' OR address ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
		 ORDER BY customer_name`, companyID, q)
}

func (r *CustomerRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Customer, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	list := []*entity.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Update guarda los datos editables del cliente.
func (r *CustomerRepo) Update(ctx context.Context, c *entity.Customer) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE customers SET customer_name = $2, address = $3, phone = $4, email = $5, balance_due = $6
		 WHERE id = $1`,
		c.ID, c.Name, c.Address, c.Phone, c.Email, c.BalanceDue,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LinkPortalUser enlaza la identidad del portal y fija el email del cliente.
func (r *CustomerRepo) LinkPortalUser(ctx context.Context, customerID, identityID, email string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE customers SET portal_user_id = $2, email = $3 WHERE id = $1`, customerID, identityID, email)
	if err != nil {
		return fmt.Errorf("link portal user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCustomer(row rowScanner) (*entity.Customer, error) {
	var c entity.Customer
	var portalUser *string
	if err := row.Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.BalanceDue, &portalUser, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.PortalUserID = deref(portalUser)
	return &c, nil
}
