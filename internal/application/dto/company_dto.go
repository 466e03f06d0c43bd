package dto

import "time"

// CreateCompanyRequest entrada para crear una empresa.
type CreateCompanyRequest struct {
	Name              string `json:"name" validate:"required,min=1,max=200"`
	BillingAccountRef string `json:"stripe_account_id" validate:"omitempty,max=100"`
}

// UpdateCompanyRequest entrada para actualizar una empresa (campos opcionales).
type UpdateCompanyRequest struct {
	Name              *string `json:"name" validate:"omitempty,min=1,max=200"`
	BillingAccountRef *string `json:"stripe_account_id" validate:"omitempty,max=100"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	BillingAccountRef *string   `json:"stripe_account_id"`
	CreatedAt         time.Time `json:"created_at"`
}
