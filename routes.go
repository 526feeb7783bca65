package main

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "dashboard-inei/config"
	"dashboard-inei/handlers"
	"dashboard-inei/metrics"
	"dashboard-inei/middleware"
	appserver "dashboard-inei/server"
)

// setupRoutes configures all API routes and middleware for the application
func setupRoutes(app *fiber.App, db *pgxpool.Pool, rdb *redis.Client, config *appconfig.Config) {
	// Security middleware
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge: func() int {
			if config.Environment == "production" {
				return 31536000
			}
			return 0
		}(),
		HSTSPreloadEnabled: config.Environment == "production",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	// CORS configuration
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(config.AllowedOrigins, ","),
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	// Prometheus metrics endpoint (if enabled)
	if appconfig.GetEnvAsBool("ENABLE_METRICS", false) {
		app.Use(metrics.PrometheusMiddleware())
		app.Get("/metrics", func(c *fiber.Ctx) error {
			handler := promhttp.Handler()
			req := &http.Request{
				Method:     c.Method(),
				URL:        &url.URL{Path: c.Path(), RawQuery: string(c.Request().URI().QueryString())},
				Header:     make(http.Header),
				Body:       io.NopCloser(bytes.NewReader(c.Body())),
				Host:       string(c.Request().Host()),
				RequestURI: c.OriginalURL(),
			}
			c.Request().Header.VisitAll(func(key, value []byte) {
				req.Header.Add(string(key), string(value))
			})

			handler.ServeHTTP(appserver.NewFiberResponseWriter(c), req)
			return nil
		})
	}

	// Initialize rate limiters
	rateLimits := middleware.NewRateLimitConfig(rdb)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, rdb, config)
	maestrosHandler := handlers.NewDatosMaestrosHandler(db)
	presupuestoHandler := handlers.NewPresupuestoHandler(db)
	alertasHandler := handlers.NewAlertasHandler(db)

	api := app.Group("/api/v1")

	// Authentication routes (public, strictest rate limiting)
	api.Post("/auth/login", rateLimits.AuthLimiter, authHandler.Login)

	// Protected routes (require JWT with a live session)
	protected := api.Group("", middleware.JWTMiddleware(config.JWTSecret, rdb))

	protected.Post("/auth/logout", rateLimits.AuthLimiter, authHandler.Logout)
	protected.Get("/auth/me", rateLimits.QueryLimiter, authHandler.Me)

	// Master data catalogs
	protected.Get("/datos-maestros/unidades-ejecutoras", rateLimits.QueryLimiter, maestrosHandler.UnidadesEjecutoras)
	protected.Get("/datos-maestros/clasificadores", rateLimits.QueryLimiter, maestrosHandler.Clasificadores)
	protected.Get("/datos-maestros/metas", rateLimits.QueryLimiter, maestrosHandler.Metas)
	protected.Get("/datos-maestros/proveedores", rateLimits.QueryLimiter, maestrosHandler.Proveedores)

	// Budget execution dashboard
	protected.Get("/presupuesto/kpis", rateLimits.QueryLimiter, presupuestoHandler.KPIs)
	protected.Get("/presupuesto/grafico-ejecucion", rateLimits.QueryLimiter, presupuestoHandler.GraficoEjecucion)
	protected.Get("/presupuesto/grafico-devengado-mensual", rateLimits.QueryLimiter, presupuestoHandler.GraficoDevengadoMensual)
	protected.Get("/presupuesto/ejecucion-por-clasificador", rateLimits.QueryLimiter, presupuestoHandler.EjecucionPorClasificador)

	// Alert feed
	protected.Get("/alertas", rateLimits.QueryLimiter, alertasHandler.List)
	protected.Get("/alertas/resumen", rateLimits.QueryLimiter, alertasHandler.Resumen)
	protected.Post("/alertas/generar", rateLimits.MutationLimiter,
		middleware.RequireRole(middleware.RolGerencia, middleware.RolPresupuesto),
		alertasHandler.Generar)
	protected.Patch("/alertas/:id/leida", rateLimits.MutationLimiter, alertasHandler.MarkRead)
	protected.Patch("/alertas/:id/resuelta", rateLimits.MutationLimiter,
		middleware.RequireRole(middleware.RolGerencia, middleware.RolPresupuesto),
		alertasHandler.MarkResolved)
}
