package entity

import (
	"strings"
	"time"
)

// Identity identidad de autenticación (email + contraseña), distinta del Profile.
type Identity struct {
	ID               string
	Email            string
	PasswordHash     string // vacío mientras la invitación no se acepta
	Metadata         IdentityMetadata
	EmailConfirmedAt *time.Time
	LastSignInAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IdentityMetadata datos libres asociados a la identidad.
type IdentityMetadata struct {
	FullName     string `json:"full_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

// Merge sobreescribe los campos no vacíos de other.
func (m IdentityMetadata) Merge(other IdentityMetadata) IdentityMetadata {
	if other.FullName != "" {
		m.FullName = other.FullName
	}
	if other.Phone != "" {
		m.Phone = other.Phone
	}
	if other.CustomerID != "" {
		m.CustomerID = other.CustomerID
	}
	if other.CustomerName != "" {
		m.CustomerName = other.CustomerName
	}
	return m
}

// IsPortalUser identidad creada para el portal de clientes.
func (i *Identity) IsPortalUser() bool {
	return i != nil && i.Metadata.CustomerID != ""
}

// NormalizeEmail minúsculas y sin espacios; las identidades se buscan así.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TokenKind tipo de enlace de acción de un solo uso.
type TokenKind string

const (
	TokenInvite   TokenKind = "invite"
	TokenRecovery TokenKind = "recovery"
)

// AuthToken enlace de invitación o recuperación. Solo se persiste el hash del token.
type AuthToken struct {
	ID         string
	IdentityID string
	Kind       TokenKind
	TokenHash  string
	RedirectTo string
	ExpiresAt  time.Time
	UsedAt     *time.Time
	CreatedAt  time.Time
}

// ActionLink enlace listo para enviarse por email (contiene el token en claro).
type ActionLink struct {
	Kind       TokenKind
	IdentityID string
	Email      string
	Token      string
	RedirectTo string
	URL        string
	ExpiresAt  time.Time
}

// RefreshToken sesión persistente de una identidad.
type RefreshToken struct {
	ID         string
	IdentityID string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	CreatedAt  time.Time
}
