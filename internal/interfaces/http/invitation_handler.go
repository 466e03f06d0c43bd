package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/invitation"
)

// InvitationHandler endpoints de invitación y de enlace de recuperación.
// Éxito siempre 200; errores {error, code} con 400/401/403/404.
type InvitationHandler struct {
	uc *invitation.UseCase
}

// NewInvitationHandler construye el handler.
func NewInvitationHandler(uc *invitation.UseCase) *InvitationHandler {
	return &InvitationHandler{uc: uc}
}

// InviteOwner godoc
// @Summary      Invitar owner (crea la empresa si no se envía companyId)
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.InviteOwnerRequest  true  "empresa y owner"
// @Success      200   {object}  dto.InviteOwnerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invitations/owner [post]
func (h *InvitationHandler) InviteOwner(c *fiber.Ctx) error {
	var in dto.InviteOwnerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.InviteOwner(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeInvitationError(c, err)
	}
	return c.JSON(out)
}

// InviteTeamMember godoc
// @Summary      Invitar personal (admin, dispatcher, tech)
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.InviteTeamMemberRequest  true  "rol y contacto"
// @Success      200   {object}  dto.InviteTeamMemberResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/invitations/team-member [post]
func (h *InvitationHandler) InviteTeamMember(c *fiber.Ctx) error {
	var in dto.InviteTeamMemberRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.InviteTeamMember(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeInvitationError(c, err)
	}
	return c.JSON(out)
}

// InviteCustomer godoc
// @Summary      Invitar cliente al portal
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.InviteCustomerRequest  true  "customerId, email"
// @Success      200   {object}  dto.InviteCustomerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invitations/customer [post]
func (h *InvitationHandler) InviteCustomer(c *fiber.Ctx) error {
	var in dto.InviteCustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.InviteCustomerPortalAccess(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeInvitationError(c, err)
	}
	return c.JSON(out)
}

// ResetLink godoc
// @Summary      Enviar enlace de recuperación
// @Description  Público. Un email desconocido responde {status:"not_found"} con 200.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ResetLinkRequest  true  "email"
// @Success      200   {object}  dto.ResetLinkResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/auth/reset-link [post]
func (h *InvitationHandler) ResetLink(c *fiber.Ctx) error {
	var in dto.ResetLinkRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.SendResetLink(c.UserContext(), in)
	if err != nil {
		return writeInvitationError(c, err)
	}
	return c.JSON(out)
}

// AssignOwner godoc
// @Summary      Asignar owner
// @Description  Solo platform_admin. El owner anterior pasa a admin.
// @Tags         companies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                  true  "ID de la empresa"
// @Param        body  body  dto.AssignOwnerRequest  true  "perfil que pasa a owner"
// @Success      200   {object}  dto.ProfileResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/companies/{id}/owner [post]
func (h *InvitationHandler) AssignOwner(c *fiber.Ctx) error {
	var in dto.AssignOwnerRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AssignOwner(c.UserContext(), GetSession(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
