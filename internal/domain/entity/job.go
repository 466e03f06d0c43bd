package entity

import "time"

// Job visita de servicio programada.
type Job struct {
	ID           string
	CompanyID    string
	CustomerID   string
	CustomerName string
	Address      string
	ScheduledAt  time.Time
	CompletedAt  *time.Time
	TechnicianID string
	BeforeURL    string
	AfterURL     string
	CreatedAt    time.Time
	ChemLogs     []ChemLog
}

// IsCompleted informa si la visita está cerrada.
func (j *Job) IsCompleted() bool {
	return j.CompletedAt != nil
}

// IsOverdue visita abierta con fecha programada en el pasado.
func (j *Job) IsOverdue(now time.Time) bool {
	return !j.IsCompleted() && j.ScheduledAt.Before(now)
}

// PhotoKind tipo de foto de una visita.
type PhotoKind string

const (
	PhotoBefore PhotoKind = "before"
	PhotoAfter  PhotoKind = "after"
)
