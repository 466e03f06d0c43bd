// Package xlsx exporta visitas y lecturas químicas a Excel con excelize.
package xlsx

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/thepoolbud/poolbud-api/internal/application/report"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

const (
	jobsSheet     = "Visitas"
	readingsSheet = "Lecturas"
	headerRow     = 4
	dateLayout    = "2006-01-02 15:04"
)

var (
	jobHeaders     = []string{"ID", "Cliente", "Dirección", "Programada", "Completada", "Estado", "Técnico", "Foto antes", "Foto después", "Lecturas"}
	readingHeaders = []string{"Visita", "Cliente", "Fecha", "pH", "Cloro (ppm)", "Alcalinidad"}
)

// ExcelizeJobsSheet implementa report.JobsSheetGenerator.
type ExcelizeJobsSheet struct{}

var _ report.JobsSheetGenerator = (*ExcelizeJobsSheet)(nil)

// NewExcelizeJobsSheet construye el generador.
func NewExcelizeJobsSheet() *ExcelizeJobsSheet { return &ExcelizeJobsSheet{} }

type styles struct {
	title, header, data int
}

// GenerateJobsSheet arma el libro con una hoja de visitas y otra de lecturas.
func (g *ExcelizeJobsSheet) GenerateJobsSheet(_ context.Context, e *report.JobsExport) ([]byte, error) {
	if e == nil || e.Company == nil {
		return nil, fmt.Errorf("xlsx: exportación incompleta")
	}
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	// La hoja por defecto pasa a ser la de visitas.
	if err := f.SetSheetName("Sheet1", jobsSheet); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}
	if _, err := f.NewSheet(readingsSheet); err != nil {
		return nil, fmt.Errorf("xlsx: crear hoja: %w", err)
	}

	subtitle := fmt.Sprintf("Generado: %s", e.GeneratedAt.Format(dateLayout))
	if err := writeTable(f, st, jobsSheet, e.Company.Name+" - Visitas", subtitle, jobHeaders, jobRows(e)); err != nil {
		return nil, err
	}
	if err := writeTable(f, st, readingsSheet, e.Company.Name+" - Lecturas químicas", subtitle, readingHeaders, readingRows(e)); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	st.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return st, fmt.Errorf("xlsx: estilo título: %w", err)
	}
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#006994"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border("000000"),
	})
	if err != nil {
		return st, fmt.Errorf("xlsx: estilo cabecera: %w", err)
	}
	st.data, err = f.NewStyle(&excelize.Style{Border: border("CCCCCC")})
	if err != nil {
		return st, fmt.Errorf("xlsx: estilo datos: %w", err)
	}
	return st, nil
}

func border(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
	}
}

// writeTable título en A1, subtítulo en A2, cabecera en la fila 4 y datos debajo.
func writeTable(f *excelize.File, st styles, sheet, title, subtitle string, headers []string, rows [][]any) error {
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return fmt.Errorf("xlsx: %s: %w", sheet, err)
	}
	_ = f.SetCellStyle(sheet, "A1", "A1", st.title)
	_ = f.SetRowHeight(sheet, 1, 30)
	_ = f.SetCellValue(sheet, "A2", subtitle)

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return fmt.Errorf("xlsx: %s: %w", sheet, err)
		}
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, st.header)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, colName, colName, 20)
	}

	for r, values := range rows {
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, headerRow+1+r)
			if err != nil {
				return fmt.Errorf("xlsx: %s: %w", sheet, err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("xlsx: %s: %w", sheet, err)
			}
			_ = f.SetCellStyle(sheet, cell, cell, st.data)
		}
	}
	return nil
}

func jobRows(e *report.JobsExport) [][]any {
	rows := make([][]any, 0, len(e.Jobs))
	for _, j := range e.Jobs {
		completed, status := "", "Pendiente"
		if j.CompletedAt != nil {
			completed, status = j.CompletedAt.Format(dateLayout), "Completada"
		} else if j.IsOverdue(e.GeneratedAt) {
			status = "Atrasada"
		}
		rows = append(rows, []any{
			j.ID,
			j.CustomerName,
			j.Address,
			j.ScheduledAt.Format(dateLayout),
			completed,
			status,
			technician(e, j),
			j.BeforeURL,
			j.AfterURL,
			len(j.ChemLogs),
		})
	}
	return rows
}

func readingRows(e *report.JobsExport) [][]any {
	var rows [][]any
	for _, j := range e.Jobs {
		for _, l := range j.ChemLogs {
			rows = append(rows, []any{j.ID, j.CustomerName, l.TakenAt.Format(dateLayout), l.PH, l.ChlorinePPM, l.Alkalinity})
		}
	}
	return rows
}

func technician(e *report.JobsExport, j *entity.Job) string {
	if j.TechnicianID == "" {
		return "Sin asignar"
	}
	if name, ok := e.Technicians[j.TechnicianID]; ok {
		return name
	}
	return j.TechnicianID
}
