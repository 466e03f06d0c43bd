package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/domain"
)

// statusFor traduce un error de dominio a status HTTP y código estable.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrInvalidToken):
		return fiber.StatusBadRequest, "INVALID_LINK"
	case errors.Is(err, domain.ErrInvalidCredential), errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrIdentityExists):
		return fiber.StatusConflict, "EMAIL_EXISTS"
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUpstream):
		return fiber.StatusBadGateway, "UPSTREAM"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError responde {error, code}. Los 500 se registran y no exponen el detalle.
func writeError(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, Code: code})
}

// writeInvitationError contrato de los endpoints de invitación: solo 400/401/403/404 y el
// mensaje original del fallo (también para errores del proveedor o de la base).
func writeInvitationError(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	switch status {
	case fiber.StatusUnauthorized, fiber.StatusForbidden, fiber.StatusNotFound:
	default:
		if status == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("invitación fallida")
		}
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error(), Code: code})
}

// ErrorHandler manejador global de fiber (rutas inexistentes, body demasiado grande, pánicos recuperados).
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Error: fe.Message, Code: "HTTP_" + strconv.Itoa(fe.Code)})
	}
	return writeError(c, err)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "cuerpo inválido", Code: "INVALID_BODY"})
}
