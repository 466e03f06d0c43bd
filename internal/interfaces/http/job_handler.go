package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

// JobHandler agenda de visitas.
type JobHandler struct {
	uc *usecase.JobUseCase
}

// NewJobHandler construye el handler.
func NewJobHandler(uc *usecase.JobUseCase) *JobHandler {
	return &JobHandler{uc: uc}
}

// List godoc
// @Summary      Visitas de la empresa
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        company_id  query  string  false  "Empresa (platform_admin)"
// @Param        limit       query  int     false  "Máximo 200"  default(200)
// @Success      200  {object}  dto.ListResponse[dto.JobResponse]
// @Router       /api/jobs [get]
func (h *JobHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListCompany(c.UserContext(), GetSession(c), c.Query("company_id"), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Mine visitas asignadas al técnico de la sesión.
func (h *JobHandler) Mine(c *fiber.Ctx) error {
	out, err := h.uc.ListMine(c.UserContext(), GetSession(c), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID visita con sus lecturas químicas.
func (h *JobHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetSession(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Programar visita
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateJobRequest  true  "Datos de la visita"
// @Success      201   {object}  dto.JobResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/jobs [post]
func (h *JobHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateJobRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *JobHandler) UpdateAssignment(c *fiber.Ctx) error {
	var in dto.UpdateAssignmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateAssignment(c.UserContext(), GetSession(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *JobHandler) Complete(c *fiber.Ctx) error {
	out, err := h.uc.Complete(c.UserContext(), GetSession(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddReading godoc
// @Summary      Registrar lectura química
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                   true  "ID de la visita"
// @Param        body  body  dto.ChemReadingRequest  true  "ph, chlorine, alkalinity"
// @Success      201   {object}  dto.ChemLogDTO
// @Router       /api/jobs/{id}/readings [post]
func (h *JobHandler) AddReading(c *fiber.Ctx) error {
	var in dto.ChemReadingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddChemReading(c.UserContext(), GetSession(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UploadPhoto godoc
// @Summary      Subir foto de antes o después
// @Tags         jobs
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "ID de la visita"
// @Param        kind  path      string  true  "before | after"
// @Param        file  formData  file    true  "Imagen (máx. 10 MB)"
// @Success      200   {object}  dto.PhotoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/jobs/{id}/photos/{kind} [post]
func (h *JobHandler) UploadPhoto(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "falta el archivo (campo file)", Code: "VALIDATION"})
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()

	out, err := h.uc.UploadPhoto(c.UserContext(), GetSession(c), c.Params("id"), entity.PhotoKind(c.Params("kind")), usecase.PhotoUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
