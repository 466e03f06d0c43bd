package dto

import "time"

// SignUpRequest registro con email y contraseña (sin perfil hasta la invitación).
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72,maxbytes=72"`
	FullName string `json:"full_name" validate:"omitempty,max=200"`
}

// LoginRequest credenciales de inicio de sesión.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest renovación o cierre de sesión.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RecoverRequest canje de un enlace de invitación/recuperación fijando la contraseña.
type RecoverRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72,maxbytes=72"`
}

// UpdatePasswordRequest cambio de contraseña del usuario autenticado.
type UpdatePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72,maxbytes=72"`
}

// IdentityResponse identidad sin datos sensibles.
type IdentityResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FullName         string     `json:"full_name,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	CustomerID       string     `json:"customer_id,omitempty"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time `json:"last_sign_in_at,omitempty"`
}

// TokenResponse par de tokens de una sesión.
type TokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int              `json:"expires_in"`
	Identity     IdentityResponse `json:"user"`
	Profile      *ProfileResponse `json:"profile"`
}

// SessionResponse GET /api/session.
type SessionResponse struct {
	Identity IdentityResponse `json:"user"`
	Profile  *ProfileResponse `json:"profile"`
}

// ProfileResponse perfil de aplicación.
type ProfileResponse struct {
	ID                string    `json:"id"`
	Role              string    `json:"role"`
	CompanyID         *string   `json:"company_id"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	AddressLine1      string    `json:"address_line1,omitempty"`
	AddressLine2      string    `json:"address_line2,omitempty"`
	City              string    `json:"city,omitempty"`
	State             string    `json:"state,omitempty"`
	PostalCode        string    `json:"postal_code,omitempty"`
	Country           string    `json:"country,omitempty"`
	HasCompletedSetup bool      `json:"has_completed_setup"`
	CreatedAt         time.Time `json:"created_at"`
}

// UpdateProfileRequest edición de contacto del propio perfil (campos opcionales).
type UpdateProfileRequest struct {
	FullName          *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Phone             *string `json:"phone" validate:"omitempty,max=40"`
	AddressLine1      *string `json:"address_line1" validate:"omitempty,max=200"`
	AddressLine2      *string `json:"address_line2" validate:"omitempty,max=200"`
	City              *string `json:"city" validate:"omitempty,max=100"`
	State             *string `json:"state" validate:"omitempty,max=100"`
	PostalCode        *string `json:"postal_code" validate:"omitempty,max=20"`
	Country           *string `json:"country" validate:"omitempty,max=100"`
	HasCompletedSetup *bool   `json:"has_completed_setup"`
}
