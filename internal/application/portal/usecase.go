// Package portal arma la vista del cliente: visitas, lecturas químicas y próxima visita.
package portal

import (
	"context"
	"sort"
	"time"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// UseCase vista del portal de clientes.
type UseCase struct {
	customers repository.CustomerRepository
	jobs      repository.JobRepository
	chemLogs  repository.ChemLogRepository
	now       func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(customers repository.CustomerRepository, jobs repository.JobRepository, chemLogs repository.ChemLogRepository) *UseCase {
	return &UseCase{customers: customers, jobs: jobs, chemLogs: chemLogs, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// ForPortalUser vista del cliente enlazado a la identidad de la sesión.
func (uc *UseCase) ForPortalUser(ctx context.Context, sess *entity.Session) (*dto.CustomerViewResponse, error) {
	c, err := uc.customers.GetByPortalUser(ctx, sess.IdentityID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.NotFound("no hay un cliente vinculado a esta cuenta")
	}
	return uc.view(ctx, c)
}

// ForStaff vista de un cliente para el personal de su empresa.
func (uc *UseCase) ForStaff(ctx context.Context, sess *entity.Session, customerID string) (*dto.CustomerViewResponse, error) {
	c, err := uc.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.NotFound("cliente no encontrado")
	}
	if err := usecase.CheckCompany(sess, c.CompanyID); err != nil {
		return nil, err
	}
	return uc.view(ctx, c)
}

func (uc *UseCase) view(ctx context.Context, c *entity.Customer) (*dto.CustomerViewResponse, error) {
	jobs, err := uc.jobs.ListByCustomer(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	var logs []entity.ChemLog
	if len(ids) > 0 {
		if logs, err = uc.chemLogs.ListByJobs(ctx, ids); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].TakenAt.After(logs[j].TakenAt) })

	out := &dto.CustomerViewResponse{
		Customer: dto.CustomerFromEntity(c),
		Visits:   make([]dto.JobResponse, 0, len(jobs)),
		Readings: make([]dto.ChemLogDTO, 0, len(logs)),
	}
	byJob := map[string][]entity.ChemLog{}
	for _, l := range logs {
		byJob[l.JobID] = append(byJob[l.JobID], l)
		out.Readings = append(out.Readings, dto.ChemLogFromEntity(l))
	}
	if len(out.Readings) > 0 {
		latest := out.Readings[0]
		out.LatestReading = &latest
	}

	// Visitas en orden descendente; la próxima es la abierta más cercana a partir de ahora.
	now := uc.now()
	var next *entity.Job
	for _, j := range jobs {
		j.ChemLogs = byJob[j.ID]
		out.Visits = append(out.Visits, dto.JobFromEntity(j))
		if !j.IsCompleted() && !j.ScheduledAt.Before(now) && (next == nil || j.ScheduledAt.Before(next.ScheduledAt)) {
			next = j
		}
	}
	if next != nil {
		v := dto.JobFromEntity(next)
		out.NextVisit = &v
	}
	return out, nil
}
