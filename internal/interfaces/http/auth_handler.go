package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/thepoolbud/poolbud-api/internal/application/auth"
	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/domain/guard"
)

// AuthHandler registro, login, sesión y canje de enlaces.
type AuthHandler struct {
	uc *auth.AuthUseCase
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// SignUp godoc
// @Summary      Registrar identidad
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SignUpRequest  true  "email, password"
// @Success      201   {object}  dto.TokenResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/signup [post]
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var in dto.SignUpRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.SignUp(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.TokenResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.SignIn(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Refresh godoc
// @Summary      Renovar tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RefreshRequest  true  "refresh_token"
// @Success      200   {object}  dto.TokenResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var in dto.RefreshRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Refresh(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Logout revoca el refresh token. Responde 204 aunque el token ya no exista.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var in dto.RefreshRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.uc.SignOut(c.UserContext(), in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Recover godoc
// @Summary      Canjear enlace de invitación o recuperación
// @Description  Fija la contraseña, confirma el email y abre sesión.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecoverRequest  true  "token, password"
// @Success      200   {object}  dto.TokenResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/auth/recover [post]
func (h *AuthHandler) Recover(c *fiber.Ctx) error {
	var in dto.RecoverRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Recover(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdatePassword cambia la contraseña del usuario autenticado.
func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	var in dto.UpdatePasswordRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.uc.UpdatePassword(c.UserContext(), GetSession(c).IdentityID, in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Session godoc
// @Summary      Sesión actual
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.SessionResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/session [get]
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	out, err := h.uc.Describe(c.UserContext(), GetSession(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Guard godoc
// @Summary      Decisión del guard para un área del SPA
// @Tags         session
// @Produce      json
// @Param        area  query  string  true  "app | welcome | dispatch | platform"
// @Success      200   {object}  guard.Decision
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/session/guard [get]
func (h *AuthHandler) Guard(c *fiber.Ctx) error {
	area, ok := guard.ParseArea(c.Query("area", string(guard.AreaApp)))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "area inválida", Code: "VALIDATION"})
	}
	return c.JSON(guard.Decide(guardState(GetSession(c), area)))
}
