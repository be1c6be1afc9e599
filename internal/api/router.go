package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/taskhub/docs/authdocs"
	"github.com/99minutos/taskhub/docs/taskdocs"
	"github.com/99minutos/taskhub/internal/api/handler"
	"github.com/99minutos/taskhub/internal/api/middleware"
	"github.com/99minutos/taskhub/internal/core/ports"
	"github.com/99minutos/taskhub/internal/infrastructure/http/handlers"
	"github.com/99minutos/taskhub/pkg/ratelimit"
)

// AuthDeps wires the Authentication Service router.
type AuthDeps struct {
	Service ports.AuthService
	// Limiter is optional; nil disables rate limiting.
	Limiter *ratelimit.Limiter
	Checks  []handlers.Check
	Log     zerolog.Logger
}

// TaskDeps wires the Task Service router.
type TaskDeps struct {
	Service ports.TaskService
	Gateway ports.AuthGateway
	Limiter *ratelimit.Limiter
	Checks  []handlers.Check
	Log     zerolog.Logger
}

// NewAuthRouter builds the Authentication Service Echo instance.
func NewAuthRouter(d AuthDeps) *echo.Echo {
	e := newEcho(d.Log, "AuthService", "auth", d.Limiter, d.Checks, authdocs.SwaggerInfo.InstanceName())

	h := handler.NewAuthHandler(d.Service)
	e.GET("/", handler.Root("Auth Service"))
	e.POST("/register", h.Register)
	e.POST("/login", h.Login)
	e.POST("/validate-token", h.ValidateToken)

	return e
}

// NewTaskRouter builds the Task Service Echo instance. Every /tasks route is
// authenticated through the gateway; deletion additionally requires admin.
func NewTaskRouter(d TaskDeps) *echo.Echo {
	e := newEcho(d.Log, "TaskService", "task", d.Limiter, d.Checks, taskdocs.SwaggerInfo.InstanceName())

	h := handler.NewTaskHandler(d.Service)
	e.GET("/", handler.Root("Task Service"))

	tasks := e.Group("/tasks", middleware.Authenticate(d.Gateway))
	for _, p := range []string{"", "/"} {
		tasks.POST(p, h.Create)
		tasks.GET(p, h.List)
	}
	tasks.PATCH("/:id", h.Update)
	tasks.DELETE("/:id", h.Delete, middleware.RequireAdmin(d.Gateway))

	return e
}

// newEcho applies the middleware and operational routes shared by both services.
func newEcho(log zerolog.Logger, serviceName, subsystem string, limiter *ratelimit.Limiter, checks []handlers.Check, docs string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()
	// Clients are keyed by the TCP peer, never by forwarding headers.
	e.IPExtractor = echo.ExtractIPDirect()

	// Each router owns its HTTP metrics registry so several routers can live
	// in one process; /metrics serves it together with the default registry.
	reg := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.ServiceName(serviceName))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  subsystem,
		Registerer: reg,
		Skipper:    middleware.SkipOperational,
	}))
	if limiter != nil {
		e.Use(middleware.RateLimit(limiter, subsystem, middleware.SkipOperational))
	}

	// --- Operational routes (not rate limited) ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.EchoWrapHandler(echoSwagger.InstanceName(docs)))
	e.GET("/health", handlers.NewHealthHandler().Liveness)                    // liveness  – is the process alive?
	e.GET("/health/ready", handlers.NewReadinessHandler(checks...).Readiness) // readiness – are dependencies up?

	return e
}
