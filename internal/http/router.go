package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/geocoder89/taskhub/docs"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Log    *slog.Logger
	Config config.Config

	Auth   handlers.AuthUseCases
	Tasks  handlers.TaskUseCases
	Tokens middlewares.TokenVerifier

	// Prom and Gatherer are optional; without them /metrics is not mounted.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// Ready holds the dependency checks behind /readyz.
	Ready map[string]handlers.Pinger
	// Draining, when set, turns /readyz to 503 during shutdown.
	Draining *atomic.Bool
}

func NewRouter(d Deps) *gin.Engine {
	if !d.Config.IsDevLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	if d.Config.OTELEndpoint != "" {
		r.Use(otelgin.Middleware(d.Config.OTELServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(!d.Config.IsDevLike()))
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowedOrigins))
	if d.Config.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))
	}

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusNotFound, "not_found", "Route not found", nil)
	})

	// health
	h := handlers.NewHealthHandler(d.Ready).WithDraining(d.Draining)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	docsHandler := handlers.NewDocsHandler(docs.Page, docs.OpenAPI)
	r.GET("/docs", docsHandler.Page)
	r.GET("/docs/openapi.yaml", docsHandler.OpenAPI)

	authMW := middlewares.NewAuthMiddleware(d.Tokens)
	limiter := middlewares.NewRateLimiter(d.Config.AuthRateLimit, d.Config.AuthRateWindow())

	authHandler := handlers.NewAuthHandler(d.Auth)
	tasksHandler := handlers.NewTasksHandler(d.Tasks)

	api := r.Group("/api")
	api.Use(middlewares.RequireJSON())
	api.GET("/", h.APIRoot)

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.SignUp)
	authGroup.POST("/signin", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.SignIn)
	authGroup.POST("/logout", authMW.RequireAuth(), authHandler.Logout)
	authGroup.GET("/me", authMW.RequireAuth(), authHandler.Me)

	tasks := api.Group("/tasks", authMW.RequireAuth())
	tasks.POST("", tasksHandler.CreateTask)
	tasks.GET("", tasksHandler.ListTasks)
	tasks.GET("/stats", tasksHandler.Stats)
	tasks.GET("/:id", tasksHandler.GetTask)
	tasks.PUT("/:id", tasksHandler.UpdateTask)
	tasks.PATCH("/:id", tasksHandler.UpdateTask)
	tasks.PATCH("/:id/complete", tasksHandler.CompleteTask)
	tasks.DELETE("/:id", tasksHandler.DeleteTask)

	return r
}
