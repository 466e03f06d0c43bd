package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrIdentityExists    = errors.New("el email ya está registrado")
	ErrInvalidToken      = errors.New("enlace inválido o expirado")
	ErrInvalidCredential = errors.New("credenciales inválidas")
	ErrUpstream          = errors.New("fallo en un servicio externo")
)

// ValidationError error de validación con mensaje descriptivo para el cliente.
// errors.Is(err, ErrInvalidInput) es verdadero.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalid construye un ValidationError.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// PermissionError rechazo por rol insuficiente, con el motivo visible para el cliente.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string { return e.Msg }

func (e *PermissionError) Unwrap() error { return ErrForbidden }

// Denied construye un PermissionError.
func Denied(msg string) error {
	return &PermissionError{Msg: msg}
}

// NotFoundError recurso referenciado inexistente, con mensaje para el cliente.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound construye un NotFoundError.
func NotFound(msg string) error {
	return &NotFoundError{Msg: msg}
}
