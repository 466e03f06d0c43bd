package report

import (
	"context"
	"time"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

// VisitReport datos de una visita listos para imprimir.
// Customer es nil cuando la visita no está ligada a un cliente registrado.
type VisitReport struct {
	Company        *entity.Company
	Customer       *entity.Customer
	Job            *entity.Job
	TechnicianName string
	PortalURL      string
	GeneratedAt    time.Time
}

// JobsExport visitas de una empresa con sus lecturas, para la hoja de cálculo.
type JobsExport struct {
	Company     *entity.Company
	Jobs        []*entity.Job
	Technicians map[string]string // profile ID → nombre
	GeneratedAt time.Time
}

// VisitPDFGenerator genera el PDF del reporte de visita.
type VisitPDFGenerator interface {
	GenerateVisitPDF(ctx context.Context, r *VisitReport) ([]byte, error)
}

// JobsSheetGenerator genera el XLSX de visitas.
type JobsSheetGenerator interface {
	GenerateJobsSheet(ctx context.Context, e *JobsExport) ([]byte, error)
}
