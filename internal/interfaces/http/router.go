package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/thepoolbud/poolbud-api/internal/application/auth"
	"github.com/thepoolbud/poolbud-api/internal/application/dashboard"
	"github.com/thepoolbud/poolbud-api/internal/application/invitation"
	"github.com/thepoolbud/poolbud-api/internal/application/portal"
	"github.com/thepoolbud/poolbud-api/internal/application/report"
	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
	"github.com/thepoolbud/poolbud-api/internal/domain/guard"
	"github.com/thepoolbud/poolbud-api/internal/infrastructure/authz"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	InvitationUC *invitation.UseCase
	CompanyUC    *usecase.CompanyUseCase
	ProfileUC    *usecase.ProfileUseCase
	CustomerUC   *usecase.CustomerUseCase
	JobUC        *usecase.JobUseCase
	InventoryUC  *usecase.InventoryUseCase
	DashboardUC  *dashboard.UseCase
	PortalUC     *portal.UseCase
	ReportUC     *report.UseCase
	Permissions  PermissionChecker
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	authHandler := NewAuthHandler(deps.AuthUC)
	invitationHandler := NewInvitationHandler(deps.InvitationUC)
	session := SessionMiddleware(deps.AuthUC)
	can := func(resource, action string) fiber.Handler {
		return RequirePermission(deps.Permissions, resource, action)
	}

	// Auth (público)
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", authHandler.SignUp)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Post("/recover", authHandler.Recover)
	authGroup.Post("/reset-link", invitationHandler.ResetLink)

	// El guard responde también a peticiones anónimas (redirect_login).
	api.Get("/session/guard", OptionalAuthMiddleware(deps.JWTSecret), session, authHandler.Guard)

	// Rutas protegidas (requieren Bearer Token). Sin guard de onboarding: aquí se completa el perfil.
	protected := api.Group("", AuthMiddleware(deps.JWTSecret), session)
	protected.Get("/session", authHandler.Session)
	protected.Put("/auth/password", authHandler.UpdatePassword)

	profileHandler := NewProfileHandler(deps.ProfileUC)
	protected.Get("/profiles/me", profileHandler.Me)
	protected.Patch("/profiles/me", profileHandler.UpdateMe)

	invitations := protected.Group("/invitations")
	invitations.Post("/owner", invitationHandler.InviteOwner)
	invitations.Post("/team-member", invitationHandler.InviteTeamMember)
	invitations.Post("/customer", invitationHandler.InviteCustomer)

	// Portal del cliente y reporte de visita: el acceso se decide por identidad, no por rol.
	dashboardHandler := NewDashboardHandler(deps.DashboardUC, deps.PortalUC)
	reportHandler := NewReportHandler(deps.ReportUC)
	protected.Get("/portal/me", dashboardHandler.Portal)
	protected.Get("/jobs/:id/report.pdf", reportHandler.VisitPDF)

	// Área de la aplicación: onboarding completo + RBAC por recurso.
	area := protected.Group("", RouteGuard(guard.AreaApp))

	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies := area.Group("/companies")
	companies.Get("/", can(authz.ResourceCompanies, authz.ActionRead), companyHandler.List)
	companies.Post("/", can(authz.ResourceCompanies, authz.ActionWrite), companyHandler.Create)
	companies.Get("/me", can(authz.ResourceCompanies, authz.ActionRead), companyHandler.Mine)
	companies.Get("/:id", can(authz.ResourceCompanies, authz.ActionRead), companyHandler.GetByID)
	companies.Patch("/:id", can(authz.ResourceCompanies, authz.ActionWrite), companyHandler.Update)
	companies.Post("/:id/owner", can(authz.ResourceCompanies, authz.ActionWrite), invitationHandler.AssignOwner)

	area.Get("/profiles", can(authz.ResourceProfiles, authz.ActionRead), profileHandler.ListCompany)
	area.Get("/platform/profiles", RouteGuard(guard.AreaPlatform), profileHandler.ListAll)

	customerHandler := NewCustomerHandler(deps.CustomerUC, deps.PortalUC)
	customers := area.Group("/customers")
	customers.Get("/", can(authz.ResourceCustomers, authz.ActionRead), customerHandler.List)
	customers.Post("/", can(authz.ResourceCustomers, authz.ActionWrite), customerHandler.Create)
	customers.Get("/:id", can(authz.ResourceCustomers, authz.ActionRead), customerHandler.GetByID)
	customers.Patch("/:id", can(authz.ResourceCustomers, authz.ActionWrite), customerHandler.Update)
	customers.Get("/:id/view", can(authz.ResourceCustomers, authz.ActionRead), customerHandler.View)

	jobHandler := NewJobHandler(deps.JobUC)
	jobs := area.Group("/jobs")
	jobs.Get("/", can(authz.ResourceJobs, authz.ActionRead), jobHandler.List)
	jobs.Get("/mine", can(authz.ResourceJobs, authz.ActionRead), jobHandler.Mine)
	jobs.Post("/", can(authz.ResourceJobs, authz.ActionWrite), jobHandler.Create)
	jobs.Get("/:id", can(authz.ResourceJobs, authz.ActionRead), jobHandler.GetByID)
	jobs.Patch("/:id/assignment", can(authz.ResourceJobs, authz.ActionWrite), jobHandler.UpdateAssignment)
	jobs.Post("/:id/complete", can(authz.ResourceJobs, authz.ActionWrite), jobHandler.Complete)
	jobs.Post("/:id/readings", can(authz.ResourceJobs, authz.ActionWrite), jobHandler.AddReading)
	jobs.Post("/:id/photos/:kind", can(authz.ResourceJobs, authz.ActionWrite), jobHandler.UploadPhoto)

	inventoryHandler := NewInventoryHandler(deps.InventoryUC)
	inventory := area.Group("/inventory")
	inventory.Get("/", can(authz.ResourceInventory, authz.ActionRead), inventoryHandler.List)
	inventory.Post("/", can(authz.ResourceInventory, authz.ActionWrite), inventoryHandler.Create)
	inventory.Patch("/:id", can(authz.ResourceInventory, authz.ActionWrite), inventoryHandler.Update)

	area.Get("/dashboard", can(authz.ResourceDashboard, authz.ActionRead), dashboardHandler.Get)
	area.Get("/reports/jobs.xlsx", can(authz.ResourceReports, authz.ActionRead), reportHandler.JobsSheet)
}
