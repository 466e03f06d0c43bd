package usecase

import (
	"strings"

	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

// ResolveCompany determina la empresa sobre la que opera la petición.
// platform_admin debe indicarla; el resto hereda la suya y no puede pedir otra.
func ResolveCompany(sess *entity.Session, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if sess.IsPlatformAdmin() {
		if requested == "" {
			return "", domain.Invalid("company_id es requerido para administradores de la plataforma")
		}
		return requested, nil
	}
	own := sess.CompanyID()
	if own == "" {
		return "", domain.Denied("el usuario no pertenece a ninguna empresa")
	}
	if requested != "" && requested != own {
		return "", domain.Denied("no tienes acceso a esta empresa")
	}
	return own, nil
}

// CheckCompany verifica que un recurso de companyID sea visible para la sesión.
func CheckCompany(sess *entity.Session, companyID string) error {
	if sess.IsPlatformAdmin() {
		return nil
	}
	if own := sess.CompanyID(); own == "" || own != companyID {
		return domain.Denied("no tienes acceso a este recurso")
	}
	return nil
}

// IsStaff roles que gestionan la agenda de la empresa.
func IsStaff(role entity.Role) bool {
	switch role {
	case entity.RolePlatformAdmin, entity.RoleOwner, entity.RoleAdmin, entity.RoleDispatcher:
		return true
	}
	return false
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
