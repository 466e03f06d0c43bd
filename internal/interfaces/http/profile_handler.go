package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
)

// ProfileHandler perfiles de aplicación.
type ProfileHandler struct {
	uc *usecase.ProfileUseCase
}

// NewProfileHandler construye el handler.
func NewProfileHandler(uc *usecase.ProfileUseCase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

// Me godoc
// @Summary      Mi perfil
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.ProfileResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/profiles/me [get]
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	out, err := h.uc.Me(c.UserContext(), GetSession(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateMe godoc
// @Summary      Editar mi perfil
// @Description  Contacto y has_completed_setup (fin del onboarding).
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.UpdateProfileRequest  true  "campos a cambiar"
// @Success      200   {object}  dto.ProfileResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/profiles/me [patch]
func (h *ProfileHandler) UpdateMe(c *fiber.Ctx) error {
	var in dto.UpdateProfileRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateMe(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListCompany perfiles de la empresa (?company_id= para platform_admin).
func (h *ProfileHandler) ListCompany(c *fiber.Ctx) error {
	out, err := h.uc.ListCompany(c.UserContext(), GetSession(c), c.Query("company_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListAll todos los perfiles de la plataforma.
func (h *ProfileHandler) ListAll(c *fiber.Ctx) error {
	out, err := h.uc.ListAll(c.UserContext(), GetSession(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
