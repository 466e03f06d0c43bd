package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/portal"
	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
)

// CustomerHandler clientes de la empresa y su vista de portal.
type CustomerHandler struct {
	uc     *usecase.CustomerUseCase
	portal *portal.UseCase
}

// NewCustomerHandler construye el handler.
func NewCustomerHandler(uc *usecase.CustomerUseCase, portalUC *portal.UseCase) *CustomerHandler {
	return &CustomerHandler{uc: uc, portal: portalUC}
}

// List godoc
// @Summary      Listar o buscar clientes
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        company_id  query  string  false  "Empresa (platform_admin)"
// @Param        q           query  string  false  "Texto en nombre, dirección o email"
// @Success      200  {object}  dto.ListResponse[dto.CustomerResponse]
// @Router       /api/customers [get]
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetSession(c), c.Query("company_id"), c.Query("q"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear cliente
// @Description  Con email se envía además la invitación al portal (best-effort).
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateCustomerRequest  true  "Datos del cliente"
// @Success      201   {object}  dto.CustomerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/customers [post]
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *CustomerHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetSession(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetSession(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// View vista de portal de un cliente para el personal.
func (h *CustomerHandler) View(c *fiber.Ctx) error {
	out, err := h.portal.ForStaff(c.UserContext(), GetSession(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
