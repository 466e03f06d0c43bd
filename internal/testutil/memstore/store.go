// Package memstore implementa los puertos de repositorio en memoria para tests de casos de uso.
// RunInvitation serializa las transacciones y revierte el estado completo si fn falla.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

type data struct {
	companies  map[string]entity.Company
	identities map[string]entity.Identity
	tokens     map[string]entity.AuthToken
	refresh    map[string]entity.RefreshToken
	profiles   map[string]entity.Profile
	customers  map[string]entity.Customer
	jobs       map[string]entity.Job
	chemLogs   map[string]entity.ChemLog
	inventory  map[string]entity.InventoryItem
}

func newData() data {
	return data{
		companies:  map[string]entity.Company{},
		identities: map[string]entity.Identity{},
		tokens:     map[string]entity.AuthToken{},
		refresh:    map[string]entity.RefreshToken{},
		profiles:   map[string]entity.Profile{},
		customers:  map[string]entity.Customer{},
		jobs:       map[string]entity.Job{},
		chemLogs:   map[string]entity.ChemLog{},
		inventory:  map[string]entity.InventoryItem{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d data) clone() data {
	return data{
		companies:  cloneMap(d.companies),
		identities: cloneMap(d.identities),
		tokens:     cloneMap(d.tokens),
		refresh:    cloneMap(d.refresh),
		profiles:   cloneMap(d.profiles),
		customers:  cloneMap(d.customers),
		jobs:       cloneMap(d.jobs),
		chemLogs:   cloneMap(d.chemLogs),
		inventory:  cloneMap(d.inventory),
	}
}

// Store almacén en memoria.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	d    data

	// FailOn fuerza un error en la operación nombrada ("profiles.Upsert", ...).
	FailOn map[string]error
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{d: newData(), FailOn: map[string]error{}}
}

func (s *Store) fail(op string) error {
	if s.FailOn == nil {
		return nil
	}
	return s.FailOn[op]
}

// Stores devuelve todos los repos sobre el almacén.
func (s *Store) Stores() repository.TxStores {
	return repository.TxStores{
		Companies:  s.Companies(),
		Identities: s.Identities(),
		Tokens:     s.Tokens(),
		Profiles:   s.Profiles(),
		Customers:  s.Customers(),
	}
}

// RunInvitation ejecuta fn de forma exclusiva; si devuelve error restaura el estado previo.
func (s *Store) RunInvitation(ctx context.Context, fn func(repository.TxStores) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.d.clone()
	s.mu.Unlock()

	if err := fn(s.Stores()); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Companies() repository.CompanyRepository { return companyRepo{s} }
func (s *Store) Identities() repository.IdentityRepository { return identityRepo{s} }
func (s *Store) Tokens() repository.AuthTokenRepository { return tokenRepo{s} }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return refreshRepo{s} }
func (s *Store) Profiles() repository.ProfileRepository { return profileRepo{s} }
func (s *Store) Customers() repository.CustomerRepository { return customerRepo{s} }
func (s *Store) Jobs() repository.JobRepository { return jobRepo{s} }
func (s *Store) ChemLogs() repository.ChemLogRepository { return chemLogRepo{s} }
func (s *Store) Inventory() repository.InventoryRepository { return inventoryRepo{s} }

// ─── helpers de inspección para tests ────────────────────────────────────────

// AllIdentities copia de las identidades.
func (s *Store) AllIdentities() []entity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Identity, 0, len(s.d.identities))
	for _, v := range s.d.identities {
		out = append(out, v)
	}
	return out
}

// AllProfiles copia de los perfiles ordenados por ID.
func (s *Store) AllProfiles() []entity.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Profile, 0, len(s.d.profiles))
	for _, v := range s.d.profiles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllCompanies copia de las empresas.
func (s *Store) AllCompanies() []entity.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Company, 0, len(s.d.companies))
	for _, v := range s.d.companies {
		out = append(out, v)
	}
	return out
}

// AllTokens copia de los enlaces emitidos.
func (s *Store) AllTokens() []entity.AuthToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.AuthToken, 0, len(s.d.tokens))
	for _, v := range s.d.tokens {
		out = append(out, v)
	}
	return out
}

// ─── companies ───────────────────────────────────────────────────────────────

type companyRepo struct{ s *Store }

func (r companyRepo) Create(_ context.Context, c *entity.Company) error {
	if err := r.s.fail("companies.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.companies[c.ID] = *c
	return nil
}

func (r companyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.d.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r companyRepo) Update(_ context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.companies[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.d.companies[c.ID] = *c
	return nil
}

func (r companyRepo) List(_ context.Context) ([]*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Company, 0, len(r.s.d.companies))
	for _, c := range r.s.d.companies {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ─── identities ──────────────────────────────────────────────────────────────

type identityRepo struct{ s *Store }

func (r identityRepo) Create(_ context.Context, i *entity.Identity) error {
	if err := r.s.fail("identities.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.d.identities {
		if strings.EqualFold(existing.Email, i.Email) {
			return domain.ErrIdentityExists
		}
	}
	r.s.d.identities[i.ID] = *i
	return nil
}

func (r identityRepo) GetByID(_ context.Context, id string) (*entity.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.d.identities[id]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (r identityRepo) FindByEmail(_ context.Context, email string) (*entity.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, i := range r.s.d.identities {
		if strings.EqualFold(i.Email, email) {
			i := i
			return &i, nil
		}
	}
	return nil, nil
}

func (r identityRepo) UpdateMetadata(_ context.Context, id string, meta entity.IdentityMetadata) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.d.identities[id]
	if !ok {
		return domain.ErrNotFound
	}
	i.Metadata = meta
	r.s.d.identities[id] = i
	return nil
}

func (r identityRepo) SetPassword(_ context.Context, id, hash string, confirmedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.d.identities[id]
	if !ok {
		return domain.ErrNotFound
	}
	i.PasswordHash = hash
	if i.EmailConfirmedAt == nil {
		i.EmailConfirmedAt = &confirmedAt
	}
	r.s.d.identities[id] = i
	return nil
}

func (r identityRepo) TouchSignIn(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.d.identities[id]
	if !ok {
		return domain.ErrNotFound
	}
	i.LastSignInAt = &at
	r.s.d.identities[id] = i
	return nil
}

// ─── auth tokens ─────────────────────────────────────────────────────────────

type tokenRepo struct{ s *Store }

func (r tokenRepo) Create(_ context.Context, t *entity.AuthToken) error {
	if err := r.s.fail("tokens.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.tokens[t.ID] = *t
	return nil
}

func (r tokenRepo) GetByHash(_ context.Context, hash string) (*entity.AuthToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.d.tokens {
		if t.TokenHash == hash {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (r tokenRepo) MarkUsed(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.d.tokens[id]
	if !ok || t.UsedAt != nil {
		return domain.ErrInvalidToken
	}
	t.UsedAt = &at
	r.s.d.tokens[id] = t
	return nil
}

func (r tokenRepo) InvalidateOpen(_ context.Context, identityID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.d.tokens {
		if t.IdentityID == identityID && t.UsedAt == nil {
			t.UsedAt = &at
			r.s.d.tokens[id] = t
		}
	}
	return nil
}

// ─── refresh tokens ──────────────────────────────────────────────────────────

type refreshRepo struct{ s *Store }

func (r refreshRepo) Create(_ context.Context, t *entity.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.refresh[t.ID] = *t
	return nil
}

func (r refreshRepo) GetByHash(_ context.Context, hash string) (*entity.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.d.refresh {
		if t.TokenHash == hash {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (r refreshRepo) Revoke(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.d.refresh[id]
	if !ok || t.Revoked {
		return domain.ErrUnauthorized
	}
	t.Revoked = true
	r.s.d.refresh[id] = t
	return nil
}

func (r refreshRepo) RevokeAllForIdentity(_ context.Context, identityID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.d.refresh {
		if t.IdentityID == identityID {
			t.Revoked = true
			r.s.d.refresh[id] = t
		}
	}
	return nil
}

// ─── profiles ────────────────────────────────────────────────────────────────

type profileRepo struct{ s *Store }

func (r profileRepo) GetByID(_ context.Context, id string) (*entity.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.d.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Upsert conserva dirección y created_at del perfil existente, igual que el upsert SQL.
func (r profileRepo) Upsert(_ context.Context, p *entity.Profile) error {
	if err := r.s.fail("profiles.Upsert"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.d.profiles[p.ID]; ok {
		existing.Role = p.Role
		existing.CompanyID = p.CompanyID
		existing.FullName = p.FullName
		existing.Email = p.Email
		existing.Phone = p.Phone
		existing.HasCompletedSetup = p.HasCompletedSetup
		existing.UpdatedAt = p.UpdatedAt
		r.s.d.profiles[p.ID] = existing
		return nil
	}
	r.s.d.profiles[p.ID] = *p
	return nil
}

func (r profileRepo) Update(_ context.Context, p *entity.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.profiles[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.d.profiles[p.ID] = *p
	return nil
}

func (r profileRepo) list(filter func(entity.Profile) bool) []*entity.Profile {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.Profile{}
	for _, p := range r.s.d.profiles {
		if filter(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r profileRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Profile, error) {
	return r.list(func(p entity.Profile) bool { return p.CompanyID == companyID }), nil
}

func (r profileRepo) ListAll(_ context.Context) ([]*entity.Profile, error) {
	return r.list(func(entity.Profile) bool { return true }), nil
}

func (r profileRepo) DemoteOwners(_ context.Context, companyID, keepID string) (int64, error) {
	if err := r.s.fail("profiles.DemoteOwners"); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, p := range r.s.d.profiles {
		if p.CompanyID == companyID && p.Role == entity.RoleOwner && id != keepID {
			p.Role = entity.RoleAdmin
			r.s.d.profiles[id] = p
			n++
		}
	}
	return n, nil
}

// LockCompany no hace nada: RunInvitation ya serializa las transacciones.
func (r profileRepo) LockCompany(context.Context, string) error { return nil }

// ─── customers ───────────────────────────────────────────────────────────────

type customerRepo struct{ s *Store }

func (r customerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.customers[c.ID] = *c
	return nil
}

func (r customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.d.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r customerRepo) GetByPortalUser(_ context.Context, identityID string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.d.customers {
		if c.PortalUserID == identityID {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (r customerRepo) filter(companyID string, match func(entity.Customer) bool) []*entity.Customer {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.Customer{}
	for _, c := range r.s.d.customers {
		if c.CompanyID == companyID && match(c) {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r customerRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Customer, error) {
	return r.filter(companyID, func(entity.Customer) bool { return true }), nil
}

func (r customerRepo) Search(_ context.Context, companyID, q string) ([]*entity.Customer, error) {
	q = strings.ToLower(q)
	return r.filter(companyID, func(c entity.Customer) bool {
		return strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Address), q) ||
			strings.Contains(strings.ToLower(c.Email), q)
	}), nil
}

func (r customerRepo) Update(_ context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.customers[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.d.customers[c.ID] = *c
	return nil
}

func (r customerRepo) LinkPortalUser(_ context.Context, customerID, identityID, email string) error {
	if err := r.s.fail("customers.LinkPortalUser"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.d.customers[customerID]
	if !ok {
		return domain.ErrNotFound
	}
	c.PortalUserID = identityID
	c.Email = email
	r.s.d.customers[customerID] = c
	return nil
}

// ─── jobs ────────────────────────────────────────────────────────────────────

type jobRepo struct{ s *Store }

func (r jobRepo) Create(_ context.Context, j *entity.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *j
	cp.ChemLogs = nil
	r.s.d.jobs[j.ID] = cp
	return nil
}

func (r jobRepo) GetByID(_ context.Context, id string) (*entity.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.d.jobs[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (r jobRepo) filter(match func(entity.Job) bool, desc bool, limit int) []*entity.Job {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.Job{}
	for _, j := range r.s.d.jobs {
		if match(j) {
			j := j
			out = append(out, &j)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if desc {
			return out[i].ScheduledAt.After(out[k].ScheduledAt)
		}
		return out[i].ScheduledAt.Before(out[k].ScheduledAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r jobRepo) ListByCompany(_ context.Context, companyID string, limit int) ([]*entity.Job, error) {
	return r.filter(func(j entity.Job) bool { return j.CompanyID == companyID }, false, limit), nil
}

func (r jobRepo) ListByTechnician(_ context.Context, technicianID string, limit int) ([]*entity.Job, error) {
	return r.filter(func(j entity.Job) bool { return j.TechnicianID == technicianID }, false, limit), nil
}

func (r jobRepo) ListByCustomer(_ context.Context, customerID string) ([]*entity.Job, error) {
	return r.filter(func(j entity.Job) bool { return j.CustomerID == customerID }, true, 0), nil
}

func (r jobRepo) mutate(id string, fn func(*entity.Job)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.d.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&j)
	r.s.d.jobs[id] = j
	return nil
}

func (r jobRepo) UpdateAssignment(_ context.Context, id, technicianID string, scheduledAt time.Time) error {
	return r.mutate(id, func(j *entity.Job) {
		j.TechnicianID = technicianID
		j.ScheduledAt = scheduledAt
	})
}

func (r jobRepo) Complete(_ context.Context, id string, at time.Time) error {
	return r.mutate(id, func(j *entity.Job) { j.CompletedAt = &at })
}

func (r jobRepo) SetPhoto(_ context.Context, id string, kind entity.PhotoKind, url string) error {
	return r.mutate(id, func(j *entity.Job) {
		if kind == entity.PhotoBefore {
			j.BeforeURL = url
		} else {
			j.AfterURL = url
		}
	})
}

// ─── chem logs ───────────────────────────────────────────────────────────────

type chemLogRepo struct{ s *Store }

func (r chemLogRepo) Create(_ context.Context, l *entity.ChemLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.chemLogs[l.ID] = *l
	return nil
}

func (r chemLogRepo) ListByJob(ctx context.Context, jobID string) ([]entity.ChemLog, error) {
	return r.ListByJobs(ctx, []string{jobID})
}

func (r chemLogRepo) ListByJobs(_ context.Context, jobIDs []string) ([]entity.ChemLog, error) {
	want := map[string]bool{}
	for _, id := range jobIDs {
		want[id] = true
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.ChemLog{}
	for _, l := range r.s.d.chemLogs {
		if want[l.JobID] {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TakenAt.After(out[j].TakenAt) })
	return out, nil
}

// ─── inventory ───────────────────────────────────────────────────────────────

type inventoryRepo struct{ s *Store }

func (r inventoryRepo) Create(_ context.Context, i *entity.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.d.inventory {
		if existing.CompanyID == i.CompanyID && strings.EqualFold(existing.SKU, i.SKU) {
			return domain.ErrDuplicate
		}
	}
	r.s.d.inventory[i.ID] = *i
	return nil
}

func (r inventoryRepo) GetByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.d.inventory[id]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (r inventoryRepo) filter(companyID string, match func(entity.InventoryItem) bool, limit int) []*entity.InventoryItem {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.InventoryItem{}
	for _, i := range r.s.d.inventory {
		if i.CompanyID == companyID && match(i) {
			i := i
			out = append(out, &i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r inventoryRepo) ListByCompany(_ context.Context, companyID string, limit int) ([]*entity.InventoryItem, error) {
	return r.filter(companyID, func(entity.InventoryItem) bool { return true }, limit), nil
}

func (r inventoryRepo) Search(_ context.Context, companyID, q string, limit int) ([]*entity.InventoryItem, error) {
	q = strings.ToLower(q)
	return r.filter(companyID, func(i entity.InventoryItem) bool {
		return strings.Contains(strings.ToLower(i.Name), q) || strings.Contains(strings.ToLower(i.SKU), q)
	}, limit), nil
}

func (r inventoryRepo) Update(_ context.Context, i *entity.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.inventory[i.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.d.inventory[i.ID] = *i
	return nil
}
