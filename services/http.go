package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/lac-hong-legacy/ido_api/docs"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/services/handlers"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/rs/zerolog/log"
)

const (
	HTTP_SVC = "http_svc"

	shutdownTimeout = 10 * time.Second
	bodyLimit       = 10 * 1024 * 1024
)

type HttpService struct {
	context.DefaultService

	authSvc      *AuthService
	rateLimitSvc *RateLimitService
	monitoring   *MonitoringService

	port        int
	corsOrigins string
	production  bool

	app *fiber.App
}

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()

	svc.port = cfg.HttpPort
	svc.corsOrigins = cfg.CorsOrigins
	svc.production = cfg.IsProduction()

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monitoring = svc.Service(MONITORING_SVC).(*MonitoringService)

	userSvc := svc.Service(USER_SVC).(*UserService)
	analytics := svc.Service(ANALYTICS_SVC).(*AnalyticsService)

	svc.app = svc.newApp()

	docs.SwaggerInfo.BasePath = "/"
	svc.app.Get("/swagger/*", swagger.HandlerDefault)

	api := svc.app.Group("/api", svc.rateLimitSvc.GlobalRateLimit())

	svc.registerHealthRoutes(api, handlers.NewHealthHandler(svc.Service(HEALTH_SVC).(*HealthService)))
	svc.registerAuthRoutes(api, handlers.NewAuthHandler(svc.authSvc))
	svc.registerUserRoutes(api, handlers.NewUserHandler(userSvc), handlers.NewAdminHandler(userSvc))
	svc.registerProjectRoutes(api, handlers.NewProjectHandler(svc.Service(PROJECT_SVC).(*ProjectService)))
	svc.registerPriceRoutes(api, handlers.NewPriceHandler(svc.Service(PRICE_SVC).(*PriceService)))
	svc.registerIdoRoutes(api, handlers.NewIdoHandler(svc.Service(IDO_SVC).(*IdoService)))

	admin := api.Group("/admin", svc.authSvc.RequiredAuth(), svc.authSvc.RequireRole(model.RoleAdmin))
	admin.Get("/rate-limits", svc.rateLimitSvc.GetRateLimitStats(analytics.Totals))

	svc.app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Route %s %s not found", c.Method(), c.Path()))
	})

	log.Info().Int("port", svc.port).Msg("HTTP server starting")
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app == nil {
		return
	}
	if err := svc.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

func (svc *HttpService) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               SERVICE_NAME,
		DisableStartupMessage: svc.production,
		BodyLimit:             bodyLimit,
		JSONEncoder:           shared.JSONAPI.Marshal,
		JSONDecoder:           shared.JSONAPI.Unmarshal,
		ErrorHandler:          shared.ErrorHandler(svc.production),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !svc.production}))
	app.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: shared.RequestID,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  svc.corsOrigins,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Content-Type,Authorization,X-Requested-With,X-Request-ID",
		ExposeHeaders: "X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset,Retry-After,X-Cache,X-Request-ID",
		MaxAge:        86400,
	}))
	app.Use(RequestLogger())
	if svc.monitoring != nil {
		app.Use(MonitoringMiddleware(svc.monitoring))
	}

	return app
}

func (svc *HttpService) registerHealthRoutes(api fiber.Router, h *handlers.HealthHandler) {
	health := api.Group("/health")
	health.Get("/", h.Health)
	health.Get("/detailed", h.Detailed)
	health.Get("/ready", h.Ready)
	health.Get("/live", h.Live)
}

func (svc *HttpService) registerAuthRoutes(api fiber.Router, h *handlers.AuthHandler) {
	rl := svc.rateLimitSvc

	auth := api.Group("/auth")
	auth.Post("/register", rl.StrictRateLimit(3, 3600), h.Register)
	auth.Post("/login", rl.StrictRateLimit(5, 900), h.Login)
	auth.Post("/refresh", rl.RouteRateLimit(10, 60), h.RefreshToken)
	auth.Post("/logout", h.Logout)
	auth.Post("/forgot-password", rl.StrictRateLimit(3, 3600), h.ForgotPassword)
	auth.Post("/reset-password", rl.StrictRateLimit(5, 3600), h.ResetPassword)
}

func (svc *HttpService) registerUserRoutes(api fiber.Router, h *handlers.UserHandler, admin *handlers.AdminHandler) {
	rl := svc.rateLimitSvc
	requireAuth := svc.authSvc.RequiredAuth()
	requireAdmin := svc.authSvc.RequireRole(model.RoleAdmin)

	users := api.Group("/users")

	// /me routes are registered before /:username so they are never shadowed
	users.Get("/me", requireAuth, h.GetProfile)
	users.Put("/me", requireAuth, rl.StrictRateLimit(10, 60), h.UpdateProfile)
	users.Get("/me/settings", requireAuth, h.GetSettings)
	users.Put("/me/settings", requireAuth, rl.UserRateLimit(20, 60), h.UpdateSettings)
	users.Post("/me/change-password", requireAuth, rl.StrictRateLimit(5, 3600), h.ChangePassword)
	users.Post("/me/avatar", requireAuth, rl.UserRateLimit(10, 60), h.UploadAvatar)

	users.Get("/", requireAuth, requireAdmin, admin.AdminGetUsers)
	users.Put("/:id/status", requireAuth, requireAdmin, admin.AdminUpdateUserStatus)

	users.Get("/:username", rl.RouteRateLimit(100, 60), h.GetPublicProfile)
}

func (svc *HttpService) registerProjectRoutes(api fiber.Router, h *handlers.ProjectHandler) {
	projects := api.Group("/projects")
	projects.Get("/", h.ListProjects)
	projects.Get("/trending", h.Trending)
	projects.Get("/search", svc.rateLimitSvc.StrictRateLimit(30, 60), h.Search)
	projects.Get("/:id", h.GetProject)
}

func (svc *HttpService) registerPriceRoutes(api fiber.Router, h *handlers.PriceHandler) {
	prices := api.Group("/prices", svc.rateLimitSvc.StrictRateLimit(60, 60))
	prices.Get("/", h.GetPrices)
	prices.Get("/compare", h.Compare)
	prices.Get("/trending", h.Trending)
	prices.Get("/:symbol", h.GetPrice)
}

func (svc *HttpService) registerIdoRoutes(api fiber.Router, h *handlers.IdoHandler) {
	rl := svc.rateLimitSvc
	requireAuth := svc.authSvc.RequiredAuth()
	optionalAuth := svc.authSvc.OptionalAuth()
	requireAdmin := svc.authSvc.RequireRole(model.RoleAdmin)

	ido := api.Group("/ido")
	ido.Get("/pools", optionalAuth, rl.RouteRateLimit(100, 60), h.ListPools)
	ido.Post("/pools", requireAuth, requireAdmin, h.CreatePool)
	ido.Get("/my-investments", requireAuth, rl.UserRateLimit(50, 60), h.GetMyInvestments)
	ido.Get("/pools/:id", optionalAuth, rl.RouteRateLimit(200, 60), h.GetPool)
	ido.Post("/pools/:id/invest", requireAuth, rl.StrictRateLimit(10, 60), h.Invest)
	ido.Get("/pools/:id/investments", requireAuth, rl.UserRateLimit(50, 60), h.GetPoolInvestments)
	ido.Put("/pools/:id/status", requireAuth, requireAdmin, h.UpdatePoolStatus)
}

// RequestLogger logs one line per request once the handler chain, including
// the error handler, has produced a status.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = log.Error()
		case status >= fiber.StatusBadRequest:
			event = log.Warn()
		}

		requestID, _ := c.Locals(shared.RequestID).(string)
		event.
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", shared.ClientIP(c)).
			Str("user_agent", strings.TrimSpace(shared.UserAgent(c))).
			Msg("HTTP request")

		return nil
	}
}
