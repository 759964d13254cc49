package handler

import (
	"context"
	"errors"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/deploy"
	"tenant-deployment-system/internal/licensing"
	"tenant-deployment-system/internal/middleware"
	"tenant-deployment-system/internal/repository"
	"tenant-deployment-system/internal/service"
	"tenant-deployment-system/internal/template"
	"tenant-deployment-system/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deployer interface {
	Deploy(ctx context.Context, req deploy.DeployRequest) deploy.Outcome
	Disable(ctx context.Context, req deploy.DisableRequest) deploy.Outcome
}

type Handler struct {
	DB         *gorm.DB
	Store      *repository.Store
	Gatekeeper *licensing.Gatekeeper
	Deployer   Deployer
	Templates  *template.Catalog
	Tokens     *util.TokenIssuer
	Logs       *service.OperationLogService
	Stats      *service.StatisticsService
}

// ErrorHandler renders errors that escape a handler as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		status := ae.Kind.HTTPStatus()
		if status >= fiber.StatusInternalServerError {
			zap.L().Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(status).JSON(fiber.Map{"error": ae.Message})
	}

	zap.L().Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// NewApp builds the fiber application with every route registered.
func NewApp(h *Handler, cfg ...fiber.Config) *fiber.App {
	fc := fiber.Config{}
	if len(cfg) > 0 {
		fc = cfg[0]
	}
	fc.ErrorHandler = ErrorHandler

	app := fiber.New(fc)
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	h.Register(app)
	return app
}

func (h *Handler) Register(app *fiber.App) {
	auth := middleware.Auth(h.Tokens)
	admin := middleware.AdminOnly(h.DB)

	api := app.Group("/api/v1")

	api.Get("/licensing/validate", h.HandleLicenseValidate)

	users := api.Group("/users")
	users.Post("/login", h.HandleUserLogin)
	users.Get("/info", auth, h.HandleUserInfo)
	users.Get("/login-logs", auth, h.HandleGetLoginLogs)
	users.Post("/change-password", auth, h.HandleChangePassword)

	licenses := api.Group("/licenses", auth, admin)
	licenses.Get("/", h.HandleListLicenses)
	licenses.Post("/", h.HandleIssueLicense)
	licenses.Put("/:key/active", h.HandleSetLicenseActive)
	licenses.Get("/:key/checks", h.HandleLicenseChecks)

	tenants := api.Group("/tenants", auth, admin)
	tenants.Post("/", h.HandleCreateTenant)

	logicApps := api.Group("/logicapps", auth, admin)
	logicApps.Get("/templates", h.HandleListTemplates)
	logicApps.Get("/tenants", h.HandleListTenants)
	logicApps.Get("/deployments", h.HandleListDeployments)
	logicApps.Post("/deploy", h.HandleDeploy)
	logicApps.Post("/disable", h.HandleDisable)

	api.Get("/statistics", auth, admin, h.HandleStatistics)
	api.Get("/logs", auth, admin, h.HandleGetLogs)
	api.Get("/logs/mine", auth, h.HandleGetUserLogs)
}
