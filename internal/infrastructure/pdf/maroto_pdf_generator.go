// Package pdf genera el reporte de visita de servicio que recibe el cliente.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa             │  REPORTE DE VISITA + Fecha   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENTE: Nombre + dirección + contacto                     │
//	│  VISITA: Programada / Completada / Técnico                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | pH | Cloro (ppm) | Alcalinidad              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOTOS: enlaces antes / después                             │
//	│  FOOTER: QR al portal del cliente                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/thepoolbud/poolbud-api/internal/application/report"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

const dateTimeLayout = "02/01/2006 15:04"

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 105, Blue: 148}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa report.VisitPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

var _ report.VisitPDFGenerator = (*MarotoPDFGenerator)(nil)

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateVisitPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateVisitPDF(_ context.Context, r *report.VisitReport) ([]byte, error) {
	if r == nil || r.Job == nil || r.Company == nil {
		return nil, fmt.Errorf("pdf: reporte incompleto")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de visita", true).
		WithAuthor(r.Company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(r.Job, r.Customer))
	m.AddRows(visitRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(readingsTitleRow())
	if len(r.Job.ChemLogs) == 0 {
		m.AddRows(row.New(7).Add(col.New(12).Add(
			text.New("Sin lecturas químicas registradas.", props.Text{Size: 8, Top: 1, Color: colorGray}),
		)))
	} else {
		m.AddRows(tableHeaderRow())
		m.AddRows(tableReadingRows(r.Job.ChemLogs)...)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(photoRows(r.Job)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(r)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: empresa (izq) y título + fecha de emisión (der).
func headerRow(r *report.VisitReport) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(r.Company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Mantenimiento de piscinas", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("REPORTE DE VISITA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("N° "+shortRef(r.Job.ID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Emitido: "+r.GeneratedAt.Format(dateTimeLayout), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func customerRow(job *entity.Job, customer *entity.Customer) core.Row {
	name, address, contact := job.CustomerName, job.Address, "—"
	if customer != nil {
		name = nonEmpty(customer.Name, name)
		contact = fmt.Sprintf("Tel: %s   |   Email: %s",
			nonEmpty(customer.Phone, "—"),
			nonEmpty(customer.Email, "—"),
		)
	}
	return row.New(20).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(name, "—"), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New("Dirección: "+nonEmpty(address, "—"), props.Text{Size: 8, Top: 12, Color: colorGray}),
			text.New(contact, props.Text{Size: 8, Top: 16, Color: colorGray}),
		),
	)
}

func visitRow(r *report.VisitReport) core.Row {
	completed := "Pendiente"
	if r.Job.CompletedAt != nil {
		completed = r.Job.CompletedAt.Format(dateTimeLayout)
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("VISITA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Programada: %s   |   Completada: %s   |   Técnico: %s",
				r.Job.ScheduledAt.Format(dateTimeLayout),
				completed,
				nonEmpty(r.TechnicianName, "Sin asignar"),
			), props.Text{Size: 8, Top: 7}),
		),
	)
}

func readingsTitleRow() core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New("LECTURAS QUÍMICAS", props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
		}),
	))
}

// tableHeaderRow: cabecera de la tabla de lecturas con fondo de color.
func tableHeaderRow() core.Row {
	h := func(label string, size int) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Center,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("Fecha", 3),
		h("pH", 3),
		h("Cloro (ppm)", 3),
		h("Alcalinidad", 3),
	)
}

// tableReadingRows: una fila por lectura.
func tableReadingRows(logs []entity.ChemLog) []core.Row {
	result := make([]core.Row, 0, len(logs))
	cell := func(s string) core.Col {
		return col.New(3).Add(text.New(nonEmpty(s, "—"), props.Text{Size: 8, Align: align.Center, Top: 1}))
	}
	for _, l := range logs {
		result = append(result, row.New(7).Add(
			cell(l.TakenAt.Format(dateTimeLayout)),
			cell(l.PH),
			cell(l.ChlorinePPM),
			cell(l.Alkalinity),
		))
	}
	return result
}

// photoRows: enlaces a las fotos; las URLs largas se parten para que no se corten.
func photoRows(job *entity.Job) []core.Row {
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(
			text.New("FOTOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}
	add := func(label, url string) {
		if url == "" {
			rows = append(rows, row.New(5).Add(col.New(12).Add(
				text.New(label+": no disponible", props.Text{Size: 8, Top: 0.5, Color: colorGray}),
			)))
			return
		}
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(label+":", props.Text{Style: fontstyle.Bold, Size: 8, Top: 0.5}),
		)))
		for _, chunk := range splitEvery(url, 90) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 7, Color: colorGray, Top: 0.5, Left: 2, Hyperlink: &url}),
			)))
		}
	}
	add("Antes", job.BeforeURL)
	add("Después", job.AfterURL)
	return rows
}

// footerRows: QR al portal del cliente + leyenda.
func footerRows(r *report.VisitReport) []core.Row {
	if r.PortalURL == "" {
		return []core.Row{footerLegend()}
	}
	return []core.Row{
		row.New(40).Add(
			col.New(3).Add(code.NewQr(r.PortalURL, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(9).Add(
				text.New("Escanea el código QR para ver el historial\nde tu piscina en el portal de clientes.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New(r.PortalURL, props.Text{
					Style: fontstyle.Bold, Size: 9, Top: 18, Left: 3, Color: colorPrimary,
				}),
			),
		),
		footerLegend(),
	}
}

func footerLegend() core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New("Reporte generado por The Pool Bud. Conserve este documento como constancia del servicio.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func shortRef(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
