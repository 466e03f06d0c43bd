package postgres

import (
	"context"
	"fmt"

	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	db Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(db Querier) *CompanyRepo {
	return &CompanyRepo{db: db}
}

const companyColumns = `id, name, billing_account_ref, created_at`

// Create persiste una nueva empresa.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	query := `INSERT INTO companies (` + companyColumns + `) VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, query,
		company.ID, company.Name, nullable(company.BillingAccountRef), company.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	c, err := scanCompany(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// Update actualiza nombre y cuenta de facturación.
func (r *CompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	query := `UPDATE companies SET name = $2, billing_account_ref = $3 WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, company.ID, company.Name, nullable(company.BillingAccountRef))
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve todas las empresas por fecha de alta.
func (r *CompanyRepo) List(ctx context.Context) ([]*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var list []*entity.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*entity.Company, error) {
	var c entity.Company
	var billing *string
	if err := row.Scan(&c.ID, &c.Name, &billing, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.BillingAccountRef = deref(billing)
	return &c, nil
}
