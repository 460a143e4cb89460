package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/auth"
	"github.com/frahmantamala/expense-tracker/internal/budget"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/dashboard"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/receipt"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/internal/transport/middleware"
	"github.com/frahmantamala/expense-tracker/internal/transport/swagger"
	"github.com/frahmantamala/expense-tracker/internal/user"
)

// Handlers groups every HTTP handler the API serves. Nil handlers leave
// their routes unregistered.
type Handlers struct {
	Auth      *auth.Handler
	User      *user.Handler
	Category  *category.Handler
	Expense   *expense.Handler
	Budget    *budget.Handler
	Dashboard *dashboard.Handler
	Receipt   *receipt.Handler
	Health    *HealthHandler
}

type Options struct {
	AllowedOrigins []string
	// OpenAPI is the raw document served at /openapi.yml and used for
	// request validation. Nil disables both.
	OpenAPI []byte
	// MaxBodyBytes caps every request body before it is logged or validated.
	// Zero leaves bodies uncapped.
	MaxBodyBytes int64
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, verifier middleware.TokenVerifier, opts Options, logger *slog.Logger) error {
	base := transport.NewBaseHandler(logger)

	// Apply global middleware
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.BodyLimit(opts.MaxBodyBytes))
	router.Use(middleware.LoggingMiddleware(logger))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteAppError(w, internal.NewNotFoundError("Route not found", internal.ErrCodeRouteNotFound))
	})

	var validate func(http.Handler) http.Handler
	if opts.OpenAPI != nil {
		doc, err := middleware.LoadOpenAPI(opts.OpenAPI)
		if err != nil {
			return err
		}
		if validate, err = middleware.RequestValidator(doc, logger); err != nil {
			return err
		}

		router.Get(swagger.SpecPath, swagger.SpecHandler(opts.OpenAPI))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		r.Group(func(ar chi.Router) {
			if verifier != nil {
				ar.Use(middleware.UserContext(verifier))
			}
			if validate != nil {
				ar.Use(validate)
			}

			if h.Auth != nil {
				ar.Route("/auth", func(sr chi.Router) {
					sr.Post("/signup", h.Auth.Signup)
					sr.Post("/login", h.Auth.Login)
				})
			}

			if h.User != nil {
				ar.With(middleware.RequireUser).Get("/users/me", h.User.GetCurrentUser)
			}

			if h.Category != nil {
				ar.Get("/categories", h.Category.GetCategories)
			}

			if h.Expense != nil {
				ar.Route("/expenses", func(er chi.Router) {
					er.Get("/", h.Expense.ListExpenses)
					er.Post("/", h.Expense.CreateExpense)
					er.Get("/export", h.Expense.ExportExpenses)
					er.Patch("/{id}", h.Expense.UpdateExpense)
					er.Delete("/{id}", h.Expense.DeleteExpense)
				})
			}

			if h.Budget != nil {
				ar.Get("/budgets", h.Budget.ListBudgets)
				ar.Post("/budgets", h.Budget.CreateBudget)
			}

			if h.Dashboard != nil {
				ar.Get("/dashboard/summary", h.Dashboard.GetSummary)
			}

			if h.Receipt != nil {
				ar.Post("/receipt/upload", h.Receipt.Upload)
				ar.Post("/ocr/process", h.Receipt.Process)
			}
		})
	})

	logger.Info("routes registered", "openapi_validation", validate != nil, "auth", verifier != nil)
	return nil
}
