package http

import (
	"log/slog"
	"os"

	"github.com/geocoder89/accounthub/internal/auth"
	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/geocoder89/accounthub/internal/http/middlewares"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/geocoder89/accounthub/internal/repo"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter wires stores, handlers and the middleware chain into one engine.
// ping is the store liveness probe used by /readyz; nil means always ready.
func NewRouter(log *slog.Logger, store repo.UserStore, jwtManager *auth.Manager, cfg config.Config, ping func() error) *gin.Engine {
	if os.Getenv("APP_ENV") != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// each engine carries its own registry so tests can build routers freely
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.RequireJSON())
	if cfg.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	}
	r.Use(otelgin.Middleware("accounthub"))
	r.Use(prom.GinHandleMiddleware())

	// health + metrics
	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// every store op goes through the metrics decorator
	users := repo.WithMetrics(store, prom)

	authHandler := handlers.NewAuthHandler(users, jwtManager, log, cfg.BcryptCost)
	usersHandler := handlers.NewUsersHandler(users, log, cfg.BcryptCost)

	// auth routes answer both with and without the /api prefix; both mounts
	// are in active use by clients
	mountAuth := func(rg *gin.RouterGroup) {
		rg.POST("/register", authHandler.Register)
		rg.POST("/login", authHandler.Login)
	}

	mountAuth(&r.RouterGroup)
	mountAuth(r.Group("/api"))

	// user record management
	r.GET("/", usersHandler.ListUsers)
	r.GET("/:id", usersHandler.GetUserById)
	r.PUT("/:id", usersHandler.UpdateUser)
	r.DELETE("/:id", usersHandler.DeleteUser)

	return r
}
