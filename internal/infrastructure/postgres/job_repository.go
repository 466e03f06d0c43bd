package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

var (
	_ repository.JobRepository     = (*JobRepo)(nil)
	_ repository.ChemLogRepository = (*ChemLogRepo)(nil)
)

// JobRepo visitas de servicio.
type JobRepo struct {
	db Querier
}

// NewJobRepository construye el repositorio.
func NewJobRepository(db Querier) *JobRepo {
	return &JobRepo{db: db}
}

const jobColumns = `id, company_id, customer_id, customer_name, address, scheduled_at, completed_at,
	technician_id, before_url, after_url, created_at`

// Create persiste una visita.
func (r *JobRepo) Create(ctx context.Context, j *entity.Job) error {
	_, err := r.db.Exec(ctx, `INSERT INTO jobs (`+jobColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		j.ID, j.CompanyID, nullable(j.CustomerID), j.CustomerName, j.Address, j.ScheduledAt, j.CompletedAt,
		nullable(j.TechnicianID), j.BeforeURL, j.AfterURL, j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetByID obtiene una visita (sin lecturas).
func (r *JobRepo) GetByID(ctx context.Context, id string) (*entity.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// ListByCompany visitas de la empresa por fecha programada.
func (r *JobRepo) ListByCompany(ctx context.Context, companyID string, limit int) ([]*entity.Job, error) {
	return r.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE company_id = $1 ORDER BY scheduled_at ASC LIMIT $2`, companyID, limit)
}

// ListByTechnician visitas asignadas a un técnico por fecha programada.
func (r *JobRepo) ListByTechnician(ctx context.Context, technicianID string, limit int) ([]*entity.Job, error) {
	return r.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE technician_id = $1 ORDER BY scheduled_at ASC LIMIT $2`, technicianID, limit)
}

// ListByCustomer historial de un cliente, la más reciente primero.
func (r *JobRepo) ListByCustomer(ctx context.Context, customerID string) ([]*entity.Job, error) {
	return r.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE customer_id = $1 ORDER BY scheduled_at DESC`, customerID)
}

func (r *JobRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Job, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	list := []*entity.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

// UpdateAssignment cambia técnico (vacío = sin asignar) y fecha programada.
func (r *JobRepo) UpdateAssignment(ctx context.Context, id, technicianID string, scheduledAt time.Time) error {
	return r.exec(ctx, "update job assignment",
		`UPDATE jobs SET technician_id = $2, scheduled_at = $3 WHERE id = $1`, id, nullable(technicianID), scheduledAt)
}

// Complete fija la fecha de cierre.
func (r *JobRepo) Complete(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, "complete job", `UPDATE jobs SET completed_at = $2 WHERE id = $1`, id, at)
}

// SetPhoto guarda la URL de la foto de antes o después.
func (r *JobRepo) SetPhoto(ctx context.Context, id string, kind entity.PhotoKind, url string) error {
	switch kind {
	case entity.PhotoBefore:
		return r.exec(ctx, "set job photo", `UPDATE jobs SET before_url = $2 WHERE id = $1`, id, url)
	case entity.PhotoAfter:
		return r.exec(ctx, "set job photo", `UPDATE jobs SET after_url = $2 WHERE id = $1`, id, url)
	}
	return domain.Invalid("tipo de foto desconocido")
}

func (r *JobRepo) exec(ctx context.Context, op, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanJob(row rowScanner) (*entity.Job, error) {
	var j entity.Job
	var customerID, technicianID *string
	if err := row.Scan(
		&j.ID, &j.CompanyID, &customerID, &j.CustomerName, &j.Address, &j.ScheduledAt, &j.CompletedAt,
		&technicianID, &j.BeforeURL, &j.AfterURL, &j.CreatedAt,
	); err != nil {
		return nil, err
	}
	j.CustomerID = deref(customerID)
	j.TechnicianID = deref(technicianID)
	return &j, nil
}

// ─── chem logs ───────────────────────────────────────────────────────────────

// ChemLogRepo lecturas químicas.
type ChemLogRepo struct {
	db Querier
}

// NewChemLogRepository construye el repositorio.
func NewChemLogRepository(db Querier) *ChemLogRepo {
	return &ChemLogRepo{db: db}
}

// Create guarda una lectura.
func (r *ChemLogRepo) Create(ctx context.Context, l *entity.ChemLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO chem_logs (id, job_id, ph, chlorine_ppm, alkalinity, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.JobID, l.PH, l.ChlorinePPM, l.Alkalinity, l.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("insert chem log: %w", err)
	}
	return nil
}

// ListByJob lecturas de una visita, la más reciente primero.
func (r *ChemLogRepo) ListByJob(ctx context.Context, jobID string) ([]entity.ChemLog, error) {
	return r.ListByJobs(ctx, []string{jobID})
}

// ListByJobs lecturas de varias visitas en una sola consulta.
func (r *ChemLogRepo) ListByJobs(ctx context.Context, jobIDs []string) ([]entity.ChemLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, job_id, ph, chlorine_ppm, alkalinity, taken_at
		  FROM chem_logs WHERE job_id = ANY($1::uuid[])
		 ORDER BY taken_at DESC`, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("list chem logs: %w", err)
	}
	defer rows.Close()

	list := []entity.ChemLog{}
	for rows.Next() {
		var l entity.ChemLog
		if err := rows.Scan(&l.ID, &l.JobID, &l.PH, &l.ChlorinePPM, &l.Alkalinity, &l.TakenAt); err != nil {
			return nil, fmt.Errorf("scan chem log: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
