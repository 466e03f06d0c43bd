package repository

import (
	"context"
	"time"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

// JobRepository puerto de persistencia de visitas. Los listados van ordenados por scheduled_at ascendente.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	GetByID(ctx context.Context, id string) (*entity.Job, error)
	ListByCompany(ctx context.Context, companyID string, limit int) ([]*entity.Job, error)
	ListByTechnician(ctx context.Context, technicianID string, limit int) ([]*entity.Job, error)
	// ListByCustomer ordena por scheduled_at descendente.
	ListByCustomer(ctx context.Context, customerID string) ([]*entity.Job, error)
	UpdateAssignment(ctx context.Context, id, technicianID string, scheduledAt time.Time) error
	Complete(ctx context.Context, id string, at time.Time) error
	SetPhoto(ctx context.Context, id string, kind entity.PhotoKind, url string) error
}

// ChemLogRepository lecturas químicas.
type ChemLogRepository interface {
	Create(ctx context.Context, log *entity.ChemLog) error
	ListByJob(ctx context.Context, jobID string) ([]entity.ChemLog, error)
	ListByJobs(ctx context.Context, jobIDs []string) ([]entity.ChemLog, error)
}
