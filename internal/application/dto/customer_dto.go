package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCustomerRequest alta de cliente. Si trae email se envía invitación al portal.
type CreateCustomerRequest struct {
	CompanyID string `json:"company_id" validate:"omitempty,uuid"`
	Name      string `json:"customer_name" validate:"required,min=1,max=200"`
	Address   string `json:"address" validate:"required,min=1,max=300"`
	Phone     string `json:"phone" validate:"omitempty,max=40"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// UpdateCustomerRequest edición parcial de cliente.
type UpdateCustomerRequest struct {
	Name    *string `json:"customer_name" validate:"omitempty,min=1,max=200"`
	Address *string `json:"address" validate:"omitempty,min=1,max=300"`
	Phone   *string `json:"phone" validate:"omitempty,max=40"`
	Email   *string `json:"email" validate:"omitempty,email"`
}

// CustomerResponse salida de cliente.
type CustomerResponse struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"company_id"`
	Name         string          `json:"customer_name"`
	Address      string          `json:"address"`
	Phone        string          `json:"phone,omitempty"`
	Email        string          `json:"email,omitempty"`
	BalanceDue   decimal.Decimal `json:"balance_due"`
	PortalUserID *string         `json:"portal_user_id"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CustomerViewResponse vista del portal de clientes.
type CustomerViewResponse struct {
	Customer      CustomerResponse `json:"customer"`
	Visits        []JobResponse    `json:"visits"`
	Readings      []ChemLogDTO     `json:"readings"`
	LatestReading *ChemLogDTO      `json:"latest_reading"`
	NextVisit     *JobResponse     `json:"next_visit"`
}
