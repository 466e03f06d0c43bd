// Package report genera el reporte PDF de una visita y la exportación XLSX de visitas.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// ExportJobsLimit máximo de visitas por exportación.
const ExportJobsLimit = 1000

// Repos repositorios que consulta el caso de uso.
type Repos struct {
	Companies repository.CompanyRepository
	Customers repository.CustomerRepository
	Jobs      repository.JobRepository
	ChemLogs  repository.ChemLogRepository
	Profiles  repository.ProfileRepository
}

// UseCase reportes de visitas.
type UseCase struct {
	repos   Repos
	pdf     VisitPDFGenerator
	sheet   JobsSheetGenerator
	siteURL string
	now     func() time.Time
}

// NewUseCase construye el caso de uso. siteURL se usa para el enlace al portal del cliente.
func NewUseCase(repos Repos, pdf VisitPDFGenerator, sheet JobsSheetGenerator, siteURL string) *UseCase {
	return &UseCase{
		repos:   repos,
		pdf:     pdf,
		sheet:   sheet,
		siteURL: strings.TrimRight(siteURL, "/"),
		now:     time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// VisitPDF reporte de una visita. Lo pueden descargar el personal de la empresa
// y el cliente dueño de la visita desde el portal.
//
// Retorna:
//   - (pdfBytes, filename, nil) si todo sale bien.
//   - domain.ErrNotFound si la visita no existe.
//   - domain.ErrForbidden si la sesión no tiene acceso a la visita.
func (uc *UseCase) VisitPDF(ctx context.Context, sess *entity.Session, jobID string) ([]byte, string, error) {
	job, err := uc.repos.Jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: obtener visita: %w", err)
	}
	if job == nil {
		return nil, "", domain.NotFound("visita no encontrada")
	}

	var customer *entity.Customer
	if job.CustomerID != "" {
		if customer, err = uc.repos.Customers.GetByID(ctx, job.CustomerID); err != nil {
			return nil, "", fmt.Errorf("reporte: obtener cliente: %w", err)
		}
	}
	if err := canSeeVisit(sess, job, customer); err != nil {
		return nil, "", err
	}

	company, err := uc.repos.Companies.GetByID(ctx, job.CompanyID)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: obtener empresa: %w", err)
	}
	if company == nil {
		return nil, "", domain.NotFound("empresa no encontrada")
	}
	if job.ChemLogs, err = uc.repos.ChemLogs.ListByJob(ctx, job.ID); err != nil {
		return nil, "", fmt.Errorf("reporte: obtener lecturas: %w", err)
	}

	r := &VisitReport{
		Company:     company,
		Customer:    customer,
		Job:         job,
		PortalURL:   uc.siteURL + "/portal",
		GeneratedAt: uc.now(),
	}
	if job.TechnicianID != "" {
		tech, err := uc.repos.Profiles.GetByID(ctx, job.TechnicianID)
		if err != nil {
			return nil, "", fmt.Errorf("reporte: obtener técnico: %w", err)
		}
		if tech != nil {
			r.TechnicianName = displayName(tech)
		}
	}

	out, err := uc.pdf.GenerateVisitPDF(ctx, r)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: generación fallida: %w", err)
	}
	return out, fmt.Sprintf("visita_%s_%s.pdf", job.ScheduledAt.Format("20060102"), shortID(job.ID)), nil
}

// JobsSheet exportación de visitas y lecturas químicas de la empresa (owner/admin).
func (uc *UseCase) JobsSheet(ctx context.Context, sess *entity.Session, companyID string) ([]byte, string, error) {
	switch sess.Role() {
	case entity.RolePlatformAdmin, entity.RoleOwner, entity.RoleAdmin:
	default:
		return nil, "", domain.Denied("solo owner o admin pueden exportar visitas")
	}
	companyID, err := usecase.ResolveCompany(sess, companyID)
	if err != nil {
		return nil, "", err
	}
	company, err := uc.repos.Companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: obtener empresa: %w", err)
	}
	if company == nil {
		return nil, "", domain.NotFound("empresa no encontrada")
	}

	jobs, err := uc.repos.Jobs.ListByCompany(ctx, companyID, ExportJobsLimit)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: listar visitas: %w", err)
	}
	if len(jobs) > 0 {
		ids := make([]string, 0, len(jobs))
		for _, j := range jobs {
			ids = append(ids, j.ID)
		}
		logs, err := uc.repos.ChemLogs.ListByJobs(ctx, ids)
		if err != nil {
			return nil, "", fmt.Errorf("reporte: obtener lecturas: %w", err)
		}
		byJob := make(map[string][]entity.ChemLog, len(jobs))
		for _, l := range logs {
			byJob[l.JobID] = append(byJob[l.JobID], l)
		}
		for _, j := range jobs {
			j.ChemLogs = byJob[j.ID]
		}
	}

	team, err := uc.repos.Profiles.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: listar equipo: %w", err)
	}
	names := make(map[string]string, len(team))
	for _, p := range team {
		names[p.ID] = displayName(p)
	}

	now := uc.now()
	out, err := uc.sheet.GenerateJobsSheet(ctx, &JobsExport{
		Company:     company,
		Jobs:        jobs,
		Technicians: names,
		GeneratedAt: now,
	})
	if err != nil {
		return nil, "", fmt.Errorf("reporte: generación fallida: %w", err)
	}
	return out, fmt.Sprintf("visitas_%s.xlsx", now.Format("20060102")), nil
}

// canSeeVisit personal de la empresa o el usuario del portal enlazado al cliente de la visita.
func canSeeVisit(sess *entity.Session, job *entity.Job, customer *entity.Customer) error {
	if sess.Profile != nil {
		return usecase.CheckCompany(sess, job.CompanyID)
	}
	if customer != nil && customer.PortalUserID != "" && customer.PortalUserID == sess.IdentityID {
		return nil
	}
	return domain.Denied("no tienes acceso a esta visita")
}

func displayName(p *entity.Profile) string {
	if n := strings.TrimSpace(p.FullName); n != "" {
		return n
	}
	return p.Email
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
