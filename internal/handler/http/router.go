package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/workforcehq/workforce-backend-go/internal/config"
	"github.com/workforcehq/workforce-backend-go/internal/handler/http/middleware"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/jwt"
)

func NewRouter(
	cfg *config.Config,
	jwtService jwt.Service,
	taskHandler TaskHandler,
	fineHandler FineHandler,
	compensationHandler CompensationHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "workforce-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.FrontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.Get)
					r.Put("/", taskHandler.Update)
					r.Post("/transition", taskHandler.Transition)
					r.Get("/completions", taskHandler.ListCompletions)
					r.Get("/subtasks", taskHandler.ListSubtasks)
				})

				// Admin only: manual triggers for the scheduled passes
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/sweep-deadlines", taskHandler.SweepDeadlines)
					r.Post("/archive", taskHandler.RunArchive)
				})
			})

			r.Route("/fines", func(r chi.Router) {
				r.Get("/", fineHandler.List)
				r.Get("/{id}", fineHandler.Get)
				r.Get("/{id}/records", fineHandler.ListRecords)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/", fineHandler.Create)
					r.Put("/{id}", fineHandler.Update)
					r.Delete("/{id}", fineHandler.Deactivate)
					r.Delete("/records/{recordID}", fineHandler.DeleteRecord)
					r.Post("/apply", fineHandler.Apply)
				})
			})

			r.Route("/compensations", func(r chi.Router) {
				r.Get("/{employeeID}", compensationHandler.Compute)
				r.Get("/{employeeID}/ledger", compensationHandler.ListLedger)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/compute-all", compensationHandler.ComputeAll)
					r.Put("/{employeeID}/overrides", compensationHandler.SetOverrides)
					r.Put("/{employeeID}/no-payment-approval", compensationHandler.ApproveNoPayment)
					r.Post("/{employeeID}/ledger", compensationHandler.AddLedgerEntry)
				})
			})
		})
	})
	return r
}
