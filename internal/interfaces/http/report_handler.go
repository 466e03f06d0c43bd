package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/thepoolbud/poolbud-api/internal/application/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler documentos descargables.
type ReportHandler struct {
	uc *report.UseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *report.UseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// VisitPDF godoc
// @Summary      Reporte PDF de la visita
// @Description  Personal de la empresa o el cliente dueño de la visita (portal).
// @Tags         reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la visita"
// @Success      200  {file}    file
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/jobs/{id}/report.pdf [get]
func (h *ReportHandler) VisitPDF(c *fiber.Ctx) error {
	pdf, filename, err := h.uc.VisitPDF(c.UserContext(), GetSession(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}

// JobsSheet godoc
// @Summary      Exportar visitas y lecturas a Excel
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        company_id  query  string  false  "Empresa (platform_admin)"
// @Success      200  {file}    file
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reports/jobs.xlsx [get]
func (h *ReportHandler) JobsSheet(c *fiber.Ctx) error {
	xlsx, filename, err := h.uc.JobsSheet(c.UserContext(), GetSession(c), c.Query("company_id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(xlsx)
}
