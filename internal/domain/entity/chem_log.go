package entity

import "time"

// ChemLog lectura química tomada durante una visita. Los valores se guardan como texto
// tal como los captura el técnico.
type ChemLog struct {
	ID          string
	JobID       string
	PH          string
	ChlorinePPM string
	Alkalinity  string
	TakenAt     time.Time
}
