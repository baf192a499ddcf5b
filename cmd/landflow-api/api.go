// Package main provides the Landflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/landdiv/landflow/pkg/approval"
	"github.com/landdiv/landflow/pkg/authz"
	"github.com/landdiv/landflow/pkg/designer"
	"github.com/landdiv/landflow/pkg/eventbus"
	"github.com/landdiv/landflow/pkg/records"
	"github.com/landdiv/landflow/pkg/services"
	"github.com/landdiv/landflow/pkg/store"
	"github.com/landdiv/landflow/pkg/web"
)

type API struct {
	logger   *slog.Logger
	store    store.Store
	eventBus eventbus.EventBus
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, s store.Store, eventBus eventbus.EventBus) *API {
	return &API{
		logger:   logger,
		store:    s,
		eventBus: eventBus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	applications := records.NewApplications(a.store, a.eventBus, a.logger)
	approvals := records.NewApprovals(a.store, a.eventBus, a.logger)
	policy := authz.NewTablePolicy()

	designerService := designer.NewService(a.store, a.logger)
	applicationService := services.NewApplicationService(applications, designerService, a.logger)
	intake := approval.NewIntake(applications, approvals, policy, a.logger)

	handlers := web.NewAPIHandlers(applicationService, intake, designerService, a.store, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Landflow API")
	})

	app.Post("/approvals", handlers.SubmitApproval)

	apps := app.Group("/applications")
	apps.Get("/", handlers.GetApplications)
	apps.Post("/", handlers.CreateApplication)
	apps.Post("/test", handlers.CreateTestApplication)
	apps.Get("/:id", handlers.GetApplication)
	apps.Post("/:id/clear-error", handlers.ClearApplicationError)
	apps.Post("/:id/validate-address", handlers.ValidateAddress)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflowTemplates)
	w.Post("/", handlers.CreateWorkflowTemplate)
	w.Get("/:id", handlers.GetWorkflowTemplate)
	w.Patch("/:id", handlers.UpdateWorkflowTemplate)
	w.Delete("/:id", handlers.DeleteWorkflowTemplate)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
