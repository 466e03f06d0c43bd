package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer cliente de una empresa (dueño de la piscina).
// PortalUserID se asigna tras la primera invitación al portal.
type Customer struct {
	ID           string
	CompanyID    string
	Name         string
	Address      string
	Phone        string
	Email        string
	BalanceDue   decimal.Decimal
	PortalUserID string
	CreatedAt    time.Time
}
