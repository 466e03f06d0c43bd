// Package guard decide qué hacer con una navegación a un área protegida del SPA
// a partir del estado de la sesión. No tiene efectos secundarios.
package guard

import "github.com/thepoolbud/poolbud-api/internal/domain/entity"

// Area zona de la aplicación protegida por el guard.
type Area string

const (
	AreaApp      Area = "app"      // cualquier usuario autenticado con onboarding completo
	AreaWelcome  Area = "welcome"  // onboarding de personal
	AreaDispatch Area = "dispatch" // panel de operaciones
	AreaPlatform Area = "platform" // administración de la plataforma
)

// ParseArea valida un área recibida por query string.
func ParseArea(s string) (Area, bool) {
	switch a := Area(s); a {
	case AreaApp, AreaWelcome, AreaDispatch, AreaPlatform:
		return a, true
	}
	return "", false
}

// Outcome resultado de la evaluación.
type Outcome string

const (
	Loading            Outcome = "loading"
	Render             Outcome = "render"
	RedirectLogin      Outcome = "redirect_login"
	RedirectOnboarding Outcome = "redirect_onboarding"
	RedirectApp        Outcome = "redirect_app"
	AccessDenied       Outcome = "access_denied"
)

// State entradas del guard.
type State struct {
	Ready          bool
	ProfileLoading bool
	HasIdentity    bool
	Profile        *entity.Profile
	Area           Area
}

// Decision salida del guard. Location solo se llena en las redirecciones.
type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Location string  `json:"location,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

var dispatchRoles = map[entity.Role]bool{
	entity.RoleDispatcher:    true,
	entity.RoleAdmin:         true,
	entity.RoleOwner:         true,
	entity.RolePlatformAdmin: true,
}

// Decide evalúa el estado. El onboarding se resuelve antes que los permisos por área.
func Decide(s State) Decision {
	if !s.Ready || s.ProfileLoading {
		return Decision{Outcome: Loading}
	}
	if !s.HasIdentity {
		return Decision{Outcome: RedirectLogin, Location: "/login"}
	}

	p := s.Profile
	if s.Area == AreaWelcome {
		if p != nil && p.HasCompletedSetup {
			return Decision{Outcome: RedirectApp, Location: "/app"}
		}
		return Decision{Outcome: Render}
	}
	if p != nil && !p.HasCompletedSetup {
		return Decision{Outcome: RedirectOnboarding, Location: "/welcome"}
	}

	switch s.Area {
	case AreaDispatch:
		if p == nil {
			return Decision{Outcome: AccessDenied, Reason: "la cuenta aún no tiene un rol asignado"}
		}
		if !dispatchRoles[p.Role] {
			return Decision{Outcome: AccessDenied, Reason: "tu rol no tiene acceso al panel de operaciones"}
		}
	case AreaPlatform:
		if p == nil || p.Role != entity.RolePlatformAdmin {
			return Decision{Outcome: AccessDenied, Reason: "solo administradores de la plataforma"}
		}
	}
	return Decision{Outcome: Render}
}
