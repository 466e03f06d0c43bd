// Package authz resuelve permisos por rol con casbin: tabla de invitaciones y acceso a datos por recurso.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

//go:embed model.conf
var modelText string

//go:embed policy.csv
var policyText string

// Recursos y acciones de la política de datos.
const (
	ResourceCompanies = "companies"
	ResourceProfiles  = "profiles"
	ResourceCustomers = "customers"
	ResourceJobs      = "jobs"
	ResourceInventory = "inventory"
	ResourceReports   = "reports"
	ResourceDashboard = "dashboard"

	ActionRead   = "read"
	ActionWrite  = "write"
	actionInvite = "invite"
)

// Enforcer envoltorio sobre casbin.Enforcer con la política embebida.
type Enforcer struct {
	e *casbin.Enforcer
}

// New carga el modelo y la política embebidos.
func New() (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: modelo: %w", err)
	}
	e, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(stripComments(policyText)))
	if err != nil {
		return nil, fmt.Errorf("authz: enforcer: %w", err)
	}
	return &Enforcer{e: e}, nil
}

// MustNew como New pero entra en pánico; la política embebida es fija.
func MustNew() *Enforcer {
	e, err := New()
	if err != nil {
		panic(err)
	}
	return e
}

// CanInvite informa si inviter puede invitar a un perfil con rol target.
func (a *Enforcer) CanInvite(inviter, target entity.Role) (bool, error) {
	if inviter == "" || target == "" {
		return false, nil
	}
	ok, err := a.e.Enforce(string(inviter), "role:"+string(target), actionInvite)
	if err != nil {
		return false, fmt.Errorf("authz: invite %s→%s: %w", inviter, target, err)
	}
	return ok, nil
}

// Can informa si el rol tiene la acción sobre el recurso.
func (a *Enforcer) Can(role entity.Role, resource, action string) (bool, error) {
	if role == "" {
		return false, nil
	}
	ok, err := a.e.Enforce(string(role), resource, action)
	if err != nil {
		return false, fmt.Errorf("authz: %s %s/%s: %w", role, resource, action, err)
	}
	return ok, nil
}

// InvitableRoles roles que inviter puede invitar, en orden de rango descendente.
func (a *Enforcer) InvitableRoles(inviter entity.Role) ([]entity.Role, error) {
	var out []entity.Role
	for _, target := range []entity.Role{entity.RoleOwner, entity.RoleAdmin, entity.RoleDispatcher, entity.RoleTechnician} {
		ok, err := a.CanInvite(inviter, target)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, target)
		}
	}
	return out, nil
}

func stripComments(csv string) string {
	var b strings.Builder
	for _, line := range strings.Split(csv, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
