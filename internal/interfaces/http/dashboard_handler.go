package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/thepoolbud/poolbud-api/internal/application/dashboard"
	"github.com/thepoolbud/poolbud-api/internal/application/portal"
)

// DashboardHandler tablero por rol y vista del portal de clientes.
type DashboardHandler struct {
	uc     *dashboard.UseCase
	portal *portal.UseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *dashboard.UseCase, portalUC *portal.UseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc, portal: portalUC}
}

// Get godoc
// @Summary      Tablero según el rol
// @Description  kind: owner | admin | dispatcher | technician | generic
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.DashboardResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/dashboard [get]
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Build(c.UserContext(), GetSession(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Portal godoc
// @Summary      Portal del cliente autenticado
// @Tags         portal
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.CustomerViewResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/portal/me [get]
func (h *DashboardHandler) Portal(c *fiber.Ctx) error {
	out, err := h.portal.ForPortalUser(c.UserContext(), GetSession(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
