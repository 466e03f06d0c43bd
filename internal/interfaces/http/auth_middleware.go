package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/guard"
	"github.com/thepoolbud/poolbud-api/pkg/jwt"
)

// Locals keys en Fiber.
const (
	LocalClaims  = "claims"
	LocalSession = "session"
)

// SessionLoader arma la sesión (identidad + perfil) de una identidad autenticada.
type SessionLoader interface {
	LoadSession(ctx context.Context, identityID string) (*entity.Session, error)
}

// PermissionChecker RBAC por recurso (casbin).
type PermissionChecker interface {
	Can(role entity.Role, resource, action string) (bool, error)
}

var errNoToken = errors.New("Authorization header requerido")

func bearerClaims(c *fiber.Ctx, secret string) (*jwt.Claims, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return nil, errNoToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, errors.New("formato: Bearer <token>")
	}
	claims, err := jwt.Parse(secret, strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, errors.New("token inválido o expirado")
	}
	return claims, nil
}

// AuthMiddleware valida el Bearer Token JWT y deja los claims en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := bearerClaims(c, jwtSecret)
		if err != nil {
			code := "INVALID_TOKEN"
			if errors.Is(err, errNoToken) {
				code = "MISSING_TOKEN"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error(), Code: code})
		}
		c.Locals(LocalClaims, claims)
		return c.Next()
	}
}

// OptionalAuthMiddleware como AuthMiddleware pero deja pasar peticiones anónimas.
// Un token presente e inválido sigue siendo 401.
func OptionalAuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := bearerClaims(c, jwtSecret)
		switch {
		case errors.Is(err, errNoToken):
			return c.Next()
		case err != nil:
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error(), Code: "INVALID_TOKEN"})
		}
		c.Locals(LocalClaims, claims)
		return c.Next()
	}
}

// SessionMiddleware carga el perfil actual de la identidad del token. Sin claims no hace nada.
func SessionMiddleware(loader SessionLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return c.Next()
		}
		sess, err := loader.LoadSession(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "la identidad ya no existe", Code: "UNAUTHORIZED"})
			}
			return writeError(c, err)
		}
		c.Locals(LocalSession, sess)
		return c.Next()
	}
}

// RequirePermission exige que el rol del perfil tenga la acción sobre el recurso.
// Debe usarse DESPUÉS de SessionMiddleware.
func RequirePermission(perms PermissionChecker, resource, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := GetSession(c)
		if sess == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "sesión requerida", Code: "UNAUTHORIZED"})
		}
		ok, err := perms.Can(sess.Role(), resource, action)
		if err != nil {
			return writeError(c, err)
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: "tu rol no puede " + action + " " + resource,
				Code:  "FORBIDDEN",
			})
		}
		return c.Next()
	}
}

// RouteGuard aplica guard.Decide al área indicada.
func RouteGuard(area guard.Area) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d := guard.Decide(guardState(GetSession(c), area))
		switch d.Outcome {
		case guard.RedirectLogin:
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "sesión requerida", Code: "UNAUTHORIZED"})
		case guard.RedirectOnboarding:
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "completa tu perfil antes de continuar", Code: "SETUP_REQUIRED"})
		case guard.AccessDenied:
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: d.Reason, Code: "FORBIDDEN"})
		}
		return c.Next()
	}
}

func guardState(sess *entity.Session, area guard.Area) guard.State {
	st := guard.State{Ready: true, Area: area}
	if sess != nil {
		st.HasIdentity = true
		st.Profile = sess.Profile
	}
	return st
}

// GetClaims claims del JWT (nil si la petición es anónima).
func GetClaims(c *fiber.Ctx) *jwt.Claims {
	v, _ := c.Locals(LocalClaims).(*jwt.Claims)
	return v
}

// GetSession sesión cargada por SessionMiddleware (nil si no hay).
func GetSession(c *fiber.Ctx) *entity.Session {
	v, _ := c.Locals(LocalSession).(*entity.Session)
	return v
}

// GetRole rol del perfil de la sesión o vacío.
func GetRole(c *fiber.Ctx) string {
	return string(GetSession(c).Role())
}
