package dto

import "time"

// CreateJobRequest alta de visita.
type CreateJobRequest struct {
	CompanyID    string    `json:"company_id" validate:"omitempty,uuid"`
	CustomerID   string    `json:"customer_id" validate:"omitempty,uuid"`
	CustomerName string    `json:"customer_name" validate:"required,min=1,max=200"`
	Address      string    `json:"address" validate:"required,min=1,max=300"`
	ScheduledAt  time.Time `json:"scheduled_at" validate:"required"`
	TechnicianID string    `json:"technician_id" validate:"omitempty,uuid"`
}

// UpdateAssignmentRequest reasignación de técnico y/o fecha.
type UpdateAssignmentRequest struct {
	TechnicianID *string    `json:"technician_id" validate:"omitempty"`
	ScheduledAt  *time.Time `json:"scheduled_at"`
}

// ChemReadingRequest lectura química capturada en campo (valores como texto).
type ChemReadingRequest struct {
	PH          string `json:"ph" validate:"required,max=20"`
	ChlorinePPM string `json:"chlorine" validate:"required,max=20"`
	Alkalinity  string `json:"alkalinity" validate:"required,max=20"`
}

// ChemLogDTO lectura química.
type ChemLogDTO struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	PH          string    `json:"ph"`
	ChlorinePPM string    `json:"chlorine_ppm"`
	Alkalinity  string    `json:"alkalinity"`
	TakenAt     time.Time `json:"taken_at"`
}

// JobResponse visita con sus lecturas (chem_logs vacío en listados).
type JobResponse struct {
	ID           string       `json:"id"`
	CompanyID    string       `json:"company_id"`
	CustomerID   *string      `json:"customer_id"`
	CustomerName string       `json:"customer_name"`
	Address      string       `json:"address"`
	ScheduledAt  time.Time    `json:"scheduled_at"`
	CompletedAt  *time.Time   `json:"completed_at"`
	TechnicianID *string      `json:"technician_id"`
	BeforeURL    string       `json:"before_url,omitempty"`
	AfterURL     string       `json:"after_url,omitempty"`
	ChemLogs     []ChemLogDTO `json:"chem_logs,omitempty"`
}

// PhotoResponse URL pública de la foto subida.
type PhotoResponse struct {
	JobID string `json:"job_id"`
	Kind  string `json:"kind"`
	URL   string `json:"url"`
}
