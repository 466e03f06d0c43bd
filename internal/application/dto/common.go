package dto

// ErrorResponse cuerpo de error HTTP. Error lleva el mensaje legible, Code el código estable.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StatusResponse respuesta simple de estado.
type StatusResponse struct {
	Status string `json:"status"`
}

// ListResponse envoltorio de listados.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewList construye un ListResponse sin devolver null en JSON.
func NewList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}
