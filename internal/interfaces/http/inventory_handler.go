package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
)

// InventoryHandler inventario de químicos y repuestos de la empresa.
type InventoryHandler struct {
	uc *usecase.InventoryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *usecase.InventoryUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// List godoc
// @Summary      Listar o buscar ítems
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        company_id  query  string  false  "Empresa (platform_admin)"
// @Param        q           query  string  false  "Nombre o SKU"
// @Success      200  {object}  dto.ListResponse[dto.InventoryItemResponse]
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetSession(c), c.Query("company_id"), c.Query("q"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear ítem
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateInventoryItemRequest  true  "sku, name, unit_price, qty"
// @Success      201   {object}  dto.InventoryItemResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory [post]
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInventoryItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update ajusta cantidad, precio o nombre.
func (h *InventoryHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateInventoryItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetSession(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
