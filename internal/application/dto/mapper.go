package dto

import (
	"time"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ProfileFromEntity mapea un Profile a su respuesta. nil si p es nil.
func ProfileFromEntity(p *entity.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}
	return &ProfileResponse{
		ID:                p.ID,
		Role:              string(p.Role),
		CompanyID:         optional(p.CompanyID),
		FullName:          p.FullName,
		Email:             p.Email,
		Phone:             p.Phone,
		AddressLine1:      p.AddressLine1,
		AddressLine2:      p.AddressLine2,
		City:              p.City,
		State:             p.State,
		PostalCode:        p.PostalCode,
		Country:           p.Country,
		HasCompletedSetup: p.HasCompletedSetup,
		CreatedAt:         p.CreatedAt,
	}
}

// IdentityFromEntity mapea una Identity sin hash de contraseña.
func IdentityFromEntity(i *entity.Identity) IdentityResponse {
	return IdentityResponse{
		ID:               i.ID,
		Email:            i.Email,
		FullName:         i.Metadata.FullName,
		Phone:            i.Metadata.Phone,
		CustomerID:       i.Metadata.CustomerID,
		EmailConfirmedAt: i.EmailConfirmedAt,
		LastSignInAt:     i.LastSignInAt,
	}
}

// CompanyFromEntity mapea una Company.
func CompanyFromEntity(c *entity.Company) CompanyResponse {
	return CompanyResponse{
		ID:                c.ID,
		Name:              c.Name,
		BillingAccountRef: optional(c.BillingAccountRef),
		CreatedAt:         c.CreatedAt,
	}
}

// CustomerFromEntity mapea un Customer.
func CustomerFromEntity(c *entity.Customer) CustomerResponse {
	return CustomerResponse{
		ID:           c.ID,
		CompanyID:    c.CompanyID,
		Name:         c.Name,
		Address:      c.Address,
		Phone:        c.Phone,
		Email:        c.Email,
		BalanceDue:   c.BalanceDue,
		PortalUserID: optional(c.PortalUserID),
		CreatedAt:    c.CreatedAt,
	}
}

// ChemLogFromEntity mapea una lectura química.
func ChemLogFromEntity(l entity.ChemLog) ChemLogDTO {
	return ChemLogDTO{
		ID:          l.ID,
		JobID:       l.JobID,
		PH:          l.PH,
		ChlorinePPM: l.ChlorinePPM,
		Alkalinity:  l.Alkalinity,
		TakenAt:     l.TakenAt,
	}
}

// JobFromEntity mapea una visita con sus lecturas.
func JobFromEntity(j *entity.Job) JobResponse {
	out := JobResponse{
		ID:           j.ID,
		CompanyID:    j.CompanyID,
		CustomerID:   optional(j.CustomerID),
		CustomerName: j.CustomerName,
		Address:      j.Address,
		ScheduledAt:  j.ScheduledAt,
		CompletedAt:  j.CompletedAt,
		TechnicianID: optional(j.TechnicianID),
		BeforeURL:    j.BeforeURL,
		AfterURL:     j.AfterURL,
	}
	for _, l := range j.ChemLogs {
		out.ChemLogs = append(out.ChemLogs, ChemLogFromEntity(l))
	}
	return out
}

// JobSummaryFromEntity fila compacta para dashboards (fechas RFC3339).
func JobSummaryFromEntity(j *entity.Job) JobSummaryDTO {
	out := JobSummaryDTO{
		ID:           j.ID,
		CustomerName: j.CustomerName,
		Address:      j.Address,
		ScheduledAt:  j.ScheduledAt.Format(time.RFC3339),
		TechnicianID: optional(j.TechnicianID),
	}
	if j.CompletedAt != nil {
		s := j.CompletedAt.Format(time.RFC3339)
		out.CompletedAt = &s
	}
	return out
}

// InventoryItemFromEntity mapea un ítem de inventario.
func InventoryItemFromEntity(i *entity.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:        i.ID,
		CompanyID: i.CompanyID,
		SKU:       i.SKU,
		Name:      i.Name,
		UnitPrice: i.UnitPrice,
		Qty:       i.Qty,
		CreatedAt: i.CreatedAt,
	}
}
