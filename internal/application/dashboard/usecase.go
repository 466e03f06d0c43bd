// Package dashboard arma el resumen de la pantalla inicial según el rol del perfil.
// Cada rol tiene su propia variante; el resultado lleva el tipo en Kind.
package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// Kind variante del dashboard.
type Kind string

const (
	KindOwner      Kind = "owner"
	KindAdmin      Kind = "admin"
	KindDispatcher Kind = "dispatcher"
	KindTechnician Kind = "technician"
	KindGeneric    Kind = "generic"
)

const (
	// EstimatedJobRevenueCents ingreso supuesto por visita cerrada (120 USD) hasta conectar facturación.
	EstimatedJobRevenueCents int64 = 120 * 100
	// LowStockThreshold cantidad a partir de la cual un ítem se considera bajo.
	LowStockThreshold = 5

	companyJobsLimit = 200
	techJobsLimit    = 100
	genericJobsLimit = 50
	inventoryLimit   = 200
)

type builder func(ctx context.Context, sess *entity.Session, now time.Time) (any, error)

type variant struct {
	kind  Kind
	build builder
}

// UseCase construye el dashboard de la sesión.
type UseCase struct {
	jobs      repository.JobRepository
	profiles  repository.ProfileRepository
	inventory repository.InventoryRepository
	variants  map[entity.Role]variant
	now       func() time.Time
}

// NewUseCase construye el caso de uso con sus fuentes de datos.
func NewUseCase(jobs repository.JobRepository, profiles repository.ProfileRepository, inventory repository.InventoryRepository) *UseCase {
	uc := &UseCase{jobs: jobs, profiles: profiles, inventory: inventory, now: time.Now}
	uc.variants = map[entity.Role]variant{
		entity.RoleOwner:      {KindOwner, uc.owner},
		entity.RoleAdmin:      {KindAdmin, uc.admin},
		entity.RoleDispatcher: {KindDispatcher, uc.dispatcher},
		entity.RoleTechnician: {KindTechnician, uc.technician},
	}
	return uc
}

// WithClock reemplaza el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// Build despacha por rol; un rol sin variante propia recibe la lista genérica.
func (uc *UseCase) Build(ctx context.Context, sess *entity.Session) (*dto.DashboardResponse, error) {
	v, ok := uc.variants[sess.Role()]
	if !ok {
		v = variant{KindGeneric, uc.generic}
	}
	data, err := v.build(ctx, sess, uc.now())
	if err != nil {
		return nil, err
	}
	return &dto.DashboardResponse{Kind: string(v.kind), Data: data}, nil
}

// ─── variantes ───────────────────────────────────────────────────────────────

func (uc *UseCase) owner(ctx context.Context, sess *entity.Session, now time.Time) (any, error) {
	d, err := uc.load(ctx, sess, true, true)
	if err != nil {
		return nil, err
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	completed := filter(d.jobs, isCompleted)
	open := filter(d.jobs, isOpen)
	thisMonth := filter(completed, completedSince(monthStart))

	value := decimal.Zero
	for _, i := range d.items {
		value = value.Add(i.StockValue())
	}
	workforce := map[string]int{}
	for _, p := range d.team {
		workforce[string(p.Role)]++
	}
	return dto.OwnerDashboardDTO{
		CompletedThisMonth:    len(thisMonth),
		EstimatedRevenueCents: int64(len(thisMonth)) * EstimatedJobRevenueCents,
		OpenJobs:              len(open),
		OverdueJobs:           len(filter(open, overdueAt(now))),
		RecentCompletions:     summaries(recentCompleted(completed), 5),
		NextJobs:              summaries(bySchedule(open), 5),
		InventoryValue:        value,
		Workforce:             workforce,
	}, nil
}

func (uc *UseCase) admin(ctx context.Context, sess *entity.Session, now time.Time) (any, error) {
	d, err := uc.load(ctx, sess, true, true)
	if err != nil {
		return nil, err
	}
	open := filter(d.jobs, isOpen)
	completed := filter(d.jobs, isCompleted)
	thisWeek := filter(completed, completedSince(weekStart(now)))

	var low []dto.LowStockDTO
	for _, i := range d.items {
		if i.Qty <= LowStockThreshold {
			low = append(low, dto.LowStockDTO{ID: i.ID, SKU: i.SKU, Name: i.Name, Qty: i.Qty})
		}
	}
	var teammates []dto.TeammateDTO
	for _, p := range d.team {
		if p.Role == entity.RoleTechnician || p.Role == entity.RoleDispatcher {
			teammates = append(teammates, teammate(p))
		}
	}
	return dto.AdminDashboardDTO{
		TodayJobs:            len(filter(open, sameDay(now))),
		OverdueJobs:          len(filter(open, overdueAt(now))),
		CompletedThisWeek:    len(thisWeek),
		EstimatedWeekRevenue: int64(len(thisWeek)) * EstimatedJobRevenueCents,
		Teammates:            nonNil(teammates),
		LowStock:             nonNil(low),
		NextJobs:             summaries(bySchedule(open), 6),
		RecentCompletions:    summaries(recentCompleted(completed), 5),
	}, nil
}

func (uc *UseCase) dispatcher(ctx context.Context, sess *entity.Session, now time.Time) (any, error) {
	d, err := uc.load(ctx, sess, true, false)
	if err != nil {
		return nil, err
	}
	open := bySchedule(filter(d.jobs, isOpen))
	created := append([]*entity.Job(nil), d.jobs...)
	sort.SliceStable(created, func(i, j int) bool { return created[i].CreatedAt.After(created[j].CreatedAt) })

	var techs []dto.TeammateDTO
	for _, p := range d.team {
		if p.Role == entity.RoleTechnician {
			techs = append(techs, teammate(p))
		}
	}
	return dto.DispatcherDashboardDTO{
		Unassigned:      summaries(filter(open, func(j *entity.Job) bool { return j.TechnicianID == "" }), 0),
		Today:           summaries(filter(open, sameDay(now)), 0),
		Overdue:         summaries(filter(open, overdueAt(now)), 0),
		Upcoming:        summaries(filter(open, func(j *entity.Job) bool { return !j.ScheduledAt.Before(now) }), 0),
		RecentlyCreated: summaries(created, 10),
		Technicians:     nonNil(techs),
	}, nil
}

func (uc *UseCase) technician(ctx context.Context, sess *entity.Session, now time.Time) (any, error) {
	jobs, err := uc.jobs.ListByTechnician(ctx, sess.IdentityID, techJobsLimit)
	if err != nil {
		return nil, err
	}
	open := bySchedule(filter(jobs, isOpen))
	completed := filter(jobs, isCompleted)
	return dto.TechDashboardDTO{
		Today:             summaries(filter(open, sameDay(now)), 0),
		CompletedThisWeek: len(filter(completed, completedSince(weekStart(now)))),
		Overdue:           summaries(filter(open, overdueAt(now)), 0),
		NextJobs:          summaries(filter(open, func(j *entity.Job) bool { return !j.ScheduledAt.Before(now) }), 0),
		RecentCompleted:   summaries(recentCompleted(completed), 10),
	}, nil
}

// generic próximas visitas de la empresa, o ninguna si el perfil no tiene empresa.
func (uc *UseCase) generic(ctx context.Context, sess *entity.Session, _ time.Time) (any, error) {
	if sess.CompanyID() == "" {
		return dto.GenericDashboardDTO{Jobs: []dto.JobSummaryDTO{}}, nil
	}
	jobs, err := uc.jobs.ListByCompany(ctx, sess.CompanyID(), genericJobsLimit)
	if err != nil {
		return nil, err
	}
	return dto.GenericDashboardDTO{Jobs: summaries(jobs, 0)}, nil
}

// ─── carga ───────────────────────────────────────────────────────────────────

type companyData struct {
	jobs  []*entity.Job
	team  []*entity.Profile
	items []*entity.InventoryItem
}

// load consulta en paralelo visitas, equipo y (opcionalmente) inventario de la empresa.
func (uc *UseCase) load(ctx context.Context, sess *entity.Session, withTeam, withInventory bool) (*companyData, error) {
	companyID := sess.CompanyID()
	if companyID == "" {
		return nil, domain.Denied("el perfil no está vinculado a ninguna empresa")
	}

	type jobsResult struct {
		jobs []*entity.Job
		err  error
	}
	type teamResult struct {
		team []*entity.Profile
		err  error
	}
	type itemsResult struct {
		items []*entity.InventoryItem
		err   error
	}
	jobsCh := make(chan jobsResult, 1)
	teamCh := make(chan teamResult, 1)
	itemsCh := make(chan itemsResult, 1)

	go func() {
		jobs, err := uc.jobs.ListByCompany(ctx, companyID, companyJobsLimit)
		jobsCh <- jobsResult{jobs, err}
	}()
	go func() {
		if !withTeam {
			teamCh <- teamResult{}
			return
		}
		team, err := uc.profiles.ListByCompany(ctx, companyID)
		teamCh <- teamResult{team, err}
	}()
	go func() {
		if !withInventory {
			itemsCh <- itemsResult{}
			return
		}
		items, err := uc.inventory.ListByCompany(ctx, companyID, inventoryLimit)
		itemsCh <- itemsResult{items, err}
	}()

	jobs, team, items := <-jobsCh, <-teamCh, <-itemsCh
	for _, err := range []error{jobs.err, team.err, items.err} {
		if err != nil {
			return nil, err
		}
	}
	return &companyData{jobs: jobs.jobs, team: team.team, items: items.items}, nil
}

// ─── filtros ─────────────────────────────────────────────────────────────────

func filter(jobs []*entity.Job, keep func(*entity.Job) bool) []*entity.Job {
	var out []*entity.Job
	for _, j := range jobs {
		if keep(j) {
			out = append(out, j)
		}
	}
	return out
}

func isCompleted(j *entity.Job) bool { return j.IsCompleted() }
func isOpen(j *entity.Job) bool { return !j.IsCompleted() }

func overdueAt(now time.Time) func(*entity.Job) bool {
	return func(j *entity.Job) bool { return j.IsOverdue(now) }
}

func sameDay(now time.Time) func(*entity.Job) bool {
	y, m, d := now.Date()
	return func(j *entity.Job) bool {
		jy, jm, jd := j.ScheduledAt.In(now.Location()).Date()
		return jy == y && jm == m && jd == d
	}
}

func completedSince(start time.Time) func(*entity.Job) bool {
	return func(j *entity.Job) bool { return j.CompletedAt != nil && !j.CompletedAt.Before(start) }
}

// weekStart domingo 00:00 de la semana de now.
func weekStart(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -int(now.Weekday()))
}

func bySchedule(jobs []*entity.Job) []*entity.Job {
	out := append([]*entity.Job(nil), jobs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

func recentCompleted(jobs []*entity.Job) []*entity.Job {
	out := append([]*entity.Job(nil), jobs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(*out[j].CompletedAt) })
	return out
}

// summaries mapea hasta limit visitas (0 = todas).
func summaries(jobs []*entity.Job, limit int) []dto.JobSummaryDTO {
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	out := make([]dto.JobSummaryDTO, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, dto.JobSummaryFromEntity(j))
	}
	return out
}

func teammate(p *entity.Profile) dto.TeammateDTO {
	return dto.TeammateDTO{ID: p.ID, FullName: p.FullName, Email: p.Email, Role: string(p.Role)}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
