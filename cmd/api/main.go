package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/thepoolbud/poolbud-api/docs"
	"github.com/thepoolbud/poolbud-api/internal/application/auth"
	"github.com/thepoolbud/poolbud-api/internal/application/dashboard"
	"github.com/thepoolbud/poolbud-api/internal/application/invitation"
	"github.com/thepoolbud/poolbud-api/internal/application/portal"
	"github.com/thepoolbud/poolbud-api/internal/application/report"
	"github.com/thepoolbud/poolbud-api/internal/application/usecase"
	"github.com/thepoolbud/poolbud-api/internal/infrastructure/authz"
	"github.com/thepoolbud/poolbud-api/internal/infrastructure/mail"
	infrapdf "github.com/thepoolbud/poolbud-api/internal/infrastructure/pdf"
	"github.com/thepoolbud/poolbud-api/internal/infrastructure/postgres"
	"github.com/thepoolbud/poolbud-api/internal/infrastructure/storage"
	infraxlsx "github.com/thepoolbud/poolbud-api/internal/infrastructure/xlsx"
	httpRouter "github.com/thepoolbud/poolbud-api/internal/interfaces/http"
	"github.com/thepoolbud/poolbud-api/pkg/config"
	"github.com/thepoolbud/poolbud-api/pkg/logger"
)

// @title                       The Pool Bud API
// @version                     1.0
// @description                 API de The Pool Bud: empresas de mantenimiento de piscinas, su personal y sus clientes.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Bearer <access_token>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar esquema")
		}
		log.Info().Msg("esquema aplicado")
	}

	enforcer, err := authz.New()
	if err != nil {
		log.Fatal().Err(err).Msg("cargar políticas de autorización")
	}

	// Correo y fotos: AWS (SES / S3) o drivers locales para desarrollo.
	var (
		mailer invitation.Mailer
		photos usecase.PhotoStore
	)
	switch cfg.Mail.Driver {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Mail.AWSRegion))
		if err != nil {
			log.Fatal().Err(err).Msg("configuración AWS (SES)")
		}
		mailer = mail.NewSESMailer(awsCfg, cfg.Mail.From, cfg.Mail.ReplyTo, log.Component("mail"))
	default:
		mailer = mail.NewLogMailer(log.Component("mail"))
	}

	var localPhotos *storage.LocalPhotoStore
	switch cfg.Storage.Driver {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.AWSRegion))
		if err != nil {
			log.Fatal().Err(err).Msg("configuración AWS (S3)")
		}
		photos, err = storage.NewS3PhotoStore(awsCfg, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("almacenamiento de fotos")
		}
	default:
		localPhotos, err = storage.NewLocalPhotoStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("almacenamiento de fotos")
		}
		photos = localPhotos
	}

	companyRepo := postgres.NewCompanyRepository(pool)
	identityRepo := postgres.NewIdentityRepository(pool)
	tokenRepo := postgres.NewAuthTokenRepository(pool)
	refreshRepo := postgres.NewRefreshTokenRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	jobRepo := postgres.NewJobRepository(pool)
	chemLogRepo := postgres.NewChemLogRepository(pool)
	inventoryRepo := postgres.NewInventoryRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	authUC := auth.NewAuthUseCase(identityRepo, tokenRepo, refreshRepo, profileRepo, auth.JWTConfig{
		Secret:       cfg.JWT.Secret,
		ExpMinutes:   cfg.JWT.Expiration,
		RefreshHours: cfg.JWT.RefreshExpiration,
		Issuer:       cfg.JWT.Issuer,
	})
	invitationUC := invitation.NewUseCase(txRunner, enforcer, mailer, invitation.Config{
		SiteURL:     cfg.App.SiteBase(),
		InviteTTL:   time.Duration(cfg.Auth.InviteTTLHours) * time.Hour,
		RecoveryTTL: time.Duration(cfg.Auth.RecoveryTTLHours) * time.Hour,
	}, log.Component("invitation"))
	reportUC := report.NewUseCase(report.Repos{
		Companies: companyRepo,
		Customers: customerRepo,
		Jobs:      jobRepo,
		ChemLogs:  chemLogRepo,
		Profiles:  profileRepo,
	}, infrapdf.NewMarotoPDFGenerator(), infraxlsx.NewExcelizeJobsSheet(), cfg.App.SiteBase())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    12 << 20, // fotos de hasta 10 MB + multipart
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.AccessLog(log.Component("http")))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "The Pool Bud API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	if localPhotos != nil {
		app.Static("/uploads", localPhotos.Dir())
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		InvitationUC: invitationUC,
		CompanyUC:    usecase.NewCompanyUseCase(companyRepo),
		ProfileUC:    usecase.NewProfileUseCase(profileRepo),
		CustomerUC:   usecase.NewCustomerUseCase(customerRepo, invitationUC, log.Component("customers")),
		JobUC:        usecase.NewJobUseCase(jobRepo, chemLogRepo, customerRepo, profileRepo, photos),
		InventoryUC:  usecase.NewInventoryUseCase(inventoryRepo),
		DashboardUC:  dashboard.NewUseCase(jobRepo, profileRepo, inventoryRepo),
		PortalUC:     portal.NewUseCase(customerRepo, jobRepo, chemLogRepo),
		ReportUC:     reportUC,
		Permissions:  enforcer,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
