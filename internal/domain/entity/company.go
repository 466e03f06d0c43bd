package entity

import "time"

// Company representa una empresa de mantenimiento de piscinas (tenant del sistema).
// Todos los trabajos, clientes e inventario pertenecen exactamente a una Company.
type Company struct {
	ID                string
	Name              string
	BillingAccountRef string // cuenta de facturación externa (opcional, ej. Stripe)
	CreatedAt         time.Time
}
