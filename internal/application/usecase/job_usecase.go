package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// Límites de los listados de visitas.
const (
	CompanyJobsLimit    = 200
	TechnicianJobsLimit = 100
	maxPhotoBytes       = 10 << 20
)

// PhotoStore almacena fotos de visitas y devuelve su URL pública.
type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// PhotoUpload archivo recibido por multipart.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// JobUseCase agenda de visitas, lecturas químicas y fotos.
type JobUseCase struct {
	jobs      repository.JobRepository
	chemLogs  repository.ChemLogRepository
	customers repository.CustomerRepository
	profiles  repository.ProfileRepository
	photos    PhotoStore
	now       func() time.Time
}

// NewJobUseCase construye el caso de uso.
func NewJobUseCase(
	jobs repository.JobRepository,
	chemLogs repository.ChemLogRepository,
	customers repository.CustomerRepository,
	profiles repository.ProfileRepository,
	photos PhotoStore,
) *JobUseCase {
	return &JobUseCase{jobs: jobs, chemLogs: chemLogs, customers: customers, profiles: profiles, photos: photos, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *JobUseCase) WithClock(now func() time.Time) *JobUseCase {
	uc.now = now
	return uc
}

// ListCompany visitas de la empresa por fecha programada.
func (uc *JobUseCase) ListCompany(ctx context.Context, sess *entity.Session, companyID string, limit int) (*dto.ListResponse[dto.JobResponse], error) {
	companyID, err := ResolveCompany(sess, companyID)
	if err != nil {
		return nil, err
	}
	list, err := uc.jobs.ListByCompany(ctx, companyID, clampLimit(limit, CompanyJobsLimit))
	if err != nil {
		return nil, err
	}
	return jobList(list), nil
}

// ListMine visitas asignadas al usuario autenticado.
func (uc *JobUseCase) ListMine(ctx context.Context, sess *entity.Session, limit int) (*dto.ListResponse[dto.JobResponse], error) {
	list, err := uc.jobs.ListByTechnician(ctx, sess.IdentityID, clampLimit(limit, TechnicianJobsLimit))
	if err != nil {
		return nil, err
	}
	return jobList(list), nil
}

// Get visita con sus lecturas químicas.
func (uc *JobUseCase) Get(ctx context.Context, sess *entity.Session, id string) (*dto.JobResponse, error) {
	job, err := uc.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	logs, err := uc.chemLogs.ListByJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	job.ChemLogs = logs
	out := dto.JobFromEntity(job)
	return &out, nil
}

// Create programa una visita (personal de oficina).
func (uc *JobUseCase) Create(ctx context.Context, sess *entity.Session, in dto.CreateJobRequest) (*dto.JobResponse, error) {
	if !IsStaff(sess.Role()) {
		return nil, domain.Denied("los técnicos no pueden programar visitas")
	}
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	companyID, err := ResolveCompany(sess, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if in.CustomerID != "" {
		c, err := uc.customers.GetByID(ctx, in.CustomerID)
		if err != nil {
			return nil, err
		}
		if c == nil || c.CompanyID != companyID {
			return nil, domain.Invalid("customer_id no pertenece a la empresa")
		}
	}
	if err := uc.checkTechnician(ctx, companyID, in.TechnicianID); err != nil {
		return nil, err
	}
	job := &entity.Job{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		CustomerID:   in.CustomerID,
		CustomerName: strings.TrimSpace(in.CustomerName),
		Address:      strings.TrimSpace(in.Address),
		ScheduledAt:  in.ScheduledAt.UTC(),
		TechnicianID: in.TechnicianID,
		CreatedAt:    uc.now(),
	}
	if err := uc.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	out := dto.JobFromEntity(job)
	return &out, nil
}

// UpdateAssignment cambia técnico y/o fecha. Técnico vacío desasigna.
func (uc *JobUseCase) UpdateAssignment(ctx context.Context, sess *entity.Session, id string, in dto.UpdateAssignmentRequest) (*dto.JobResponse, error) {
	if !IsStaff(sess.Role()) {
		return nil, domain.Denied("los técnicos no pueden reasignar visitas")
	}
	job, err := uc.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if in.TechnicianID != nil {
		tech := strings.TrimSpace(*in.TechnicianID)
		if err := uc.checkTechnician(ctx, job.CompanyID, tech); err != nil {
			return nil, err
		}
		job.TechnicianID = tech
	}
	if in.ScheduledAt != nil {
		job.ScheduledAt = in.ScheduledAt.UTC()
	}
	if err := uc.jobs.UpdateAssignment(ctx, job.ID, job.TechnicianID, job.ScheduledAt); err != nil {
		return nil, err
	}
	out := dto.JobFromEntity(job)
	return &out, nil
}

// Complete cierra la visita. Repetir la operación no cambia la fecha de cierre.
func (uc *JobUseCase) Complete(ctx context.Context, sess *entity.Session, id string) (*dto.JobResponse, error) {
	job, err := uc.loadForField(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !job.IsCompleted() {
		now := uc.now()
		if err := uc.jobs.Complete(ctx, job.ID, now); err != nil {
			return nil, err
		}
		job.CompletedAt = &now
	}
	out := dto.JobFromEntity(job)
	return &out, nil
}

// AddChemReading registra una lectura química en la visita.
func (uc *JobUseCase) AddChemReading(ctx context.Context, sess *entity.Session, id string, in dto.ChemReadingRequest) (*dto.ChemLogDTO, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	job, err := uc.loadForField(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	l := entity.ChemLog{
		ID:          uuid.New().String(),
		JobID:       job.ID,
		PH:          strings.TrimSpace(in.PH),
		ChlorinePPM: strings.TrimSpace(in.ChlorinePPM),
		Alkalinity:  strings.TrimSpace(in.Alkalinity),
		TakenAt:     uc.now(),
	}
	if err := uc.chemLogs.Create(ctx, &l); err != nil {
		return nil, err
	}
	out := dto.ChemLogFromEntity(l)
	return &out, nil
}

// UploadPhoto sube la foto de antes o después y guarda su URL en la visita.
func (uc *JobUseCase) UploadPhoto(ctx context.Context, sess *entity.Session, id string, kind entity.PhotoKind, file PhotoUpload) (*dto.PhotoResponse, error) {
	if kind != entity.PhotoBefore && kind != entity.PhotoAfter {
		return nil, domain.Invalid("kind debe ser before o after")
	}
	if !strings.HasPrefix(file.ContentType, "image/") {
		return nil, domain.Invalid("el archivo debe ser una imagen")
	}
	if file.Size <= 0 || file.Size > maxPhotoBytes {
		return nil, domain.Invalid("la imagen debe pesar entre 1 byte y 10 MB")
	}
	job, err := uc.loadForField(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(path.Ext(file.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("%s/jobs/%s/%s-%d%s", job.CompanyID, job.ID, kind, uc.now().Unix(), ext)
	url, err := uc.photos.Put(ctx, key, file.ContentType, file.Body, file.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: subir foto: %v", domain.ErrUpstream, err)
	}
	if err := uc.jobs.SetPhoto(ctx, job.ID, kind, url); err != nil {
		return nil, err
	}
	return &dto.PhotoResponse{JobID: job.ID, Kind: string(kind), URL: url}, nil
}

func (uc *JobUseCase) load(ctx context.Context, sess *entity.Session, id string) (*entity.Job, error) {
	job, err := uc.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.NotFound("visita no encontrada")
	}
	if err := CheckCompany(sess, job.CompanyID); err != nil {
		return nil, err
	}
	return job, nil
}

// loadForField como load, pero un técnico solo puede operar sus propias visitas.
func (uc *JobUseCase) loadForField(ctx context.Context, sess *entity.Session, id string) (*entity.Job, error) {
	job, err := uc.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if sess.Role() == entity.RoleTechnician && job.TechnicianID != sess.IdentityID {
		return nil, domain.Denied("la visita no está asignada a este técnico")
	}
	return job, nil
}

func (uc *JobUseCase) checkTechnician(ctx context.Context, companyID, technicianID string) error {
	if technicianID == "" {
		return nil
	}
	p, err := uc.profiles.GetByID(ctx, technicianID)
	if err != nil {
		return err
	}
	if p == nil || p.CompanyID != companyID {
		return domain.Invalid("technician_id no pertenece a la empresa")
	}
	return nil
}

func jobList(list []*entity.Job) *dto.ListResponse[dto.JobResponse] {
	items := make([]dto.JobResponse, 0, len(list))
	for _, j := range list {
		items = append(items, dto.JobFromEntity(j))
	}
	out := dto.NewList(items)
	return &out
}
