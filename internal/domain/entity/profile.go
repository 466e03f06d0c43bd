package entity

import (
	"strings"
	"time"
)

// Role rol de aplicación de un Profile.
type Role string

// Roles válidos para Profile.
const (
	RolePlatformAdmin Role = "platform_admin"
	RoleOwner         Role = "owner"
	RoleAdmin         Role = "admin"
	RoleDispatcher    Role = "dispatcher"
	RoleTechnician    Role = "tech"
)

// ParseRole normaliza un rol recibido del exterior. Acepta "technician" como alias de "tech".
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RolePlatformAdmin, RoleOwner, RoleAdmin, RoleDispatcher, RoleTechnician:
		return r, true
	case "technician":
		return RoleTechnician, true
	}
	return "", false
}

// Valid informa si el rol pertenece a la enumeración.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok && r != "technician"
}

// Rank jerarquía del rol: platform_admin > owner > admin > dispatcher > tech. 0 si no es válido.
func (r Role) Rank() int {
	switch r {
	case RolePlatformAdmin:
		return 5
	case RoleOwner:
		return 4
	case RoleAdmin:
		return 3
	case RoleDispatcher:
		return 2
	case RoleTechnician:
		return 1
	}
	return 0
}

// Outranks informa si r está estrictamente por encima de other.
func (r Role) Outranks(other Role) bool {
	return r.Rank() > other.Rank()
}

// TeamRoles roles que se asignan mediante invitación de equipo (no incluye owner ni platform_admin).
var TeamRoles = []Role{RoleAdmin, RoleDispatcher, RoleTechnician}

// Profile registro de usuario de la aplicación: rol y empresa.
// Comparte ID con la Identity de autenticación.
type Profile struct {
	ID                string
	Role              Role
	CompanyID         string // vacío = sin empresa
	FullName          string
	Email             string
	Phone             string
	AddressLine1      string
	AddressLine2      string
	City              string
	State             string
	PostalCode        string
	Country           string
	HasCompletedSetup bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasCompany informa si el perfil está afiliado a una empresa.
func (p *Profile) HasCompany() bool {
	return p != nil && p.CompanyID != ""
}
