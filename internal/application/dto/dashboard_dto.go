package dto

import "github.com/shopspring/decimal"

// DashboardResponse GET /api/dashboard. Kind indica qué variante trae Data.
type DashboardResponse struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// JobSummaryDTO fila compacta de visita para los widgets.
type JobSummaryDTO struct {
	ID           string  `json:"id"`
	CustomerName string  `json:"customer_name"`
	Address      string  `json:"address"`
	ScheduledAt  string  `json:"scheduled_at"`
	CompletedAt  *string `json:"completed_at,omitempty"`
	TechnicianID *string `json:"technician_id"`
}

// TeammateDTO miembro del equipo visible en dashboards.
type TeammateDTO struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LowStockDTO ítem con inventario bajo.
type LowStockDTO struct {
	ID   string `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// OwnerDashboardDTO variante owner.
type OwnerDashboardDTO struct {
	CompletedThisMonth    int             `json:"completed_this_month"`
	EstimatedRevenueCents int64           `json:"estimated_revenue_cents"`
	OpenJobs              int             `json:"open_jobs"`
	OverdueJobs           int             `json:"overdue_jobs"`
	RecentCompletions     []JobSummaryDTO `json:"recent_completions"`
	NextJobs              []JobSummaryDTO `json:"next_jobs"`
	InventoryValue        decimal.Decimal `json:"inventory_value"`
	Workforce             map[string]int  `json:"workforce"`
}

// AdminDashboardDTO variante admin.
type AdminDashboardDTO struct {
	TodayJobs            int             `json:"today_jobs"`
	OverdueJobs          int             `json:"overdue_jobs"`
	CompletedThisWeek    int             `json:"completed_this_week"`
	EstimatedWeekRevenue int64           `json:"estimated_week_revenue_cents"`
	Teammates            []TeammateDTO   `json:"teammates"`
	LowStock             []LowStockDTO   `json:"low_stock"`
	NextJobs             []JobSummaryDTO `json:"next_jobs"`
	RecentCompletions    []JobSummaryDTO `json:"recent_completions"`
}

// DispatcherDashboardDTO variante dispatcher.
type DispatcherDashboardDTO struct {
	Unassigned      []JobSummaryDTO `json:"unassigned"`
	Today           []JobSummaryDTO `json:"today"`
	Overdue         []JobSummaryDTO `json:"overdue"`
	Upcoming        []JobSummaryDTO `json:"upcoming"`
	RecentlyCreated []JobSummaryDTO `json:"recently_created"`
	Technicians     []TeammateDTO   `json:"technicians"`
}

// TechDashboardDTO variante técnico.
type TechDashboardDTO struct {
	Today             []JobSummaryDTO `json:"today"`
	CompletedThisWeek int             `json:"completed_this_week"`
	Overdue           []JobSummaryDTO `json:"overdue"`
	NextJobs          []JobSummaryDTO `json:"next_jobs"`
	RecentCompleted   []JobSummaryDTO `json:"recent_completed"`
}

// GenericDashboardDTO variante para perfiles sin rol reconocido.
type GenericDashboardDTO struct {
	Jobs []JobSummaryDTO `json:"jobs"`
}
