package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/api/handlers"
	mw "github.com/Harshitk-cp/vetpms/internal/api/middleware"
	"github.com/Harshitk-cp/vetpms/internal/archetype"
	"github.com/Harshitk-cp/vetpms/internal/buildconfig"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/Harshitk-cp/vetpms/internal/i18n"
	"github.com/Harshitk-cp/vetpms/internal/mail"
	"github.com/Harshitk-cp/vetpms/internal/resolver"
	"github.com/Harshitk-cp/vetpms/internal/service"
	"github.com/Harshitk-cp/vetpms/internal/store"
	"github.com/Harshitk-cp/vetpms/internal/store/memory"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Deps are the long-lived collaborators the API is built from. Archetypes and
// Messages are loaded once at startup and never change afterwards.
type Deps struct {
	Practices  domain.PracticeStore
	Objects    domain.ObjectStore
	Archetypes *archetype.Registry
	Messages   *i18n.Bundle
	Mail       mail.Factory
	Logger     *zap.Logger

	// Ping checks backing storage for /health. Nil means always healthy.
	Ping func(ctx context.Context) error

	DefaultLocale  string
	RateLimitRPS   float64
	RateLimitBurst int
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router   *chi.Mux
	Expirer  *service.ExpirerService
	Objects  *service.ObjectService
	Resolver *resolver.Registry

	limiter      *mw.RateLimiter
	metrics      *mw.MetricsCollector
	stopCh       chan struct{}
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(d Deps) *App {
	// Every persisted archetype resolves through the object store.
	refs := resolver.NewRegistry()
	refs.Register("*", d.Objects)

	// Services
	objectSvc := service.NewObjectService(d.Objects, d.Archetypes, refs, d.Logger)
	practiceSvc := service.NewPracticeService(d.Practices, objectSvc, d.Logger)
	departmentSvc := service.NewDepartmentService(objectSvc)
	mailSvc := service.NewMailService(practiceSvc, d.Mail, d.Logger)
	expirerSvc := service.NewExpirerService(d.Objects, d.Logger)

	// Handlers
	errs := handlers.NewErrors(d.Messages, d.Logger)
	practiceHandler := handlers.NewPracticeHandler(practiceSvc, objectSvc, errs)
	objectHandler := handlers.NewObjectHandler(objectSvc, errs)
	archetypeHandler := handlers.NewArchetypeHandler(d.Archetypes, errs)
	departmentHandler := handlers.NewDepartmentHandler(departmentSvc, errs)
	mailHandler := handlers.NewMailHandler(mailSvc, errs)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		Expirer:   expirerSvc,
		Objects:   objectSvc,
		Resolver:  refs,
		limiter:   mw.NewRateLimiter(d.RateLimitRPS, d.RateLimitBurst),
		stopCh:    make(chan struct{}),
		startTime: time.Now(),
	}
	app.metrics = mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(app.limiter))
	r.Use(mw.Locale(d.Messages, d.DefaultLocale))

	// Unauthenticated
	r.Get("/health", healthHandler(d.Ping))
	r.Get("/metrics", app.metricsHandler())
	r.Get("/version", versionHandler)
	r.Post("/v1/practices", practiceHandler.Create)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(d.Practices))

		r.Get("/practice", practiceHandler.Get)
		r.Get("/departments", departmentHandler.List)
		r.Post("/mail", mailHandler.Send)

		r.Route("/archetypes", func(r chi.Router) {
			r.Get("/", archetypeHandler.List)
			r.Get("/{shortName}", archetypeHandler.Get)
		})

		r.Route("/objects", func(r chi.Router) {
			r.Post("/", objectHandler.Create)
			r.Route("/{shortName}", func(r chi.Router) {
				r.Get("/", objectHandler.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", objectHandler.Get)
					r.Put("/", objectHandler.Update)
					r.Delete("/", objectHandler.Delete)
					r.Get("/targets/{node}", objectHandler.Targets)
					r.Post("/relationships", objectHandler.AddRelationship)
					r.Delete("/relationships", objectHandler.RemoveRelationship)
				})
			})
		})
	})

	return app
}

// Start launches background work: the expirer and rate limiter pruning.
func (app *App) Start() {
	app.Expirer.Start()
	app.limiter.StartCleanup(10*time.Minute, app.stopCh)
}

// Stop halts what Start launched.
func (app *App) Stop() {
	app.Expirer.Stop()
	close(app.stopCh)
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(buildconfig.Info())
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds":    uptime.Seconds(),
			"uptime_human":      uptime.Round(time.Second).String(),
			"requests":          app.metrics.Snapshot(),
			"rate_limited_keys": app.limiter.Len(),
			"goroutines":        runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and mail factories satisfy interfaces at compile time.
var (
	_ domain.PracticeStore = (*store.PracticeStore)(nil)
	_ domain.ObjectStore   = (*store.ObjectStore)(nil)
	_ domain.PracticeStore = (*memory.PracticeStore)(nil)
	_ domain.ObjectStore   = (*memory.ObjectStore)(nil)
	_ domain.Resolver      = (*resolver.Registry)(nil)
	_ mail.Factory         = (*mail.SMTPFactory)(nil)
	_ mail.Factory         = (*mail.LogFactory)(nil)
)
