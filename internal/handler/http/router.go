package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/jamaica-payroll/internal/config"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/user"
	"github.com/cmlabs-hris/jamaica-payroll/internal/handler/http/middleware"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	app config.AppConfig,
	JWTService jwt.Service,
	payrollHandler PayrollHandler,
	statutoryHandler StatutoryHandler,
	transactionHandler TransactionHandler,
	eventsHandler EventsHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", app.Name),
		slog.String("version", app.Version),
		slog.String("env", app.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
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
		// EventSource cannot send headers, so the stream also accepts ?jwt=
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/payroll/events", eventsHandler.Stream)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/batches/{period}", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionPayrollView))
						r.Get("/", payrollHandler.GetBatch)
						r.Get("/audit", payrollHandler.Audit)
						r.Get("/extract", payrollHandler.StatutoryExtract)
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionPayrollCalculate))
						r.Post("/sync", payrollHandler.Sync)
						r.Post("/calculate", payrollHandler.Calculate)
						r.Post("/employees/{employeeID}/calculate", payrollHandler.CalculateEmployee)
					})

					r.With(middleware.RequirePermission(user.PermissionPayrollFinalize)).Post("/finalize", payrollHandler.Finalize)
				})

				r.Route("/records", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", payrollHandler.ListRecords)
					r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/{id}", payrollHandler.GetRecord)
					r.With(middleware.RequirePermission(user.PermissionPayrollCalculate)).Delete("/{id}", payrollHandler.DeleteRecord)
				})

				r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/employees/{employeeID}/ytd", payrollHandler.YearToDate)
			})

			r.Route("/statutory/rate-sets", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionPayrollView))
					r.Get("/", statutoryHandler.ListRateSets)
					r.Get("/{period}", statutoryHandler.GetRateSet)
				})

				// Owner only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireOwner)
					r.Use(middleware.RequirePermission(user.PermissionStatutoryPublish))
					r.Post("/", statutoryHandler.Publish)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionTransactionsManage))

				r.Route("/transactions", func(r chi.Router) {
					r.Get("/", transactionHandler.List)
					r.Post("/", transactionHandler.Post)
					r.Post("/{id}/void", transactionHandler.Void)
				})

				r.Route("/transaction-codes", func(r chi.Router) {
					r.Get("/", transactionHandler.ListCodes)
					r.Post("/", transactionHandler.CreateCode)
				})
			})
		})
	})
	return r
}
