package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/metrics"
	"github.com/dmitrijs2005/todokeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators of the REST handlers. Limiter and Exports
// are optional.
type Deps struct {
	Accounts   AccountAPI
	Tasks      TaskAPI
	Extensions ExtensionAPI
	Exports    ExportAPI
	Limiter    ratelimit.Limiter
	RateLimit  int
	Clock      timex.Clock
	SecretKey  []byte
	Logger     logging.Logger
}

type Handler struct {
	accounts   AccountAPI
	tasks      TaskAPI
	extensions ExtensionAPI
	exports    ExportAPI
	limiter    ratelimit.Limiter
	rateLimit  int
	clock      timex.Clock
	secretKey  []byte
	logger     logging.Logger
}

func NewHandler(d Deps) *Handler {
	clock := d.Clock
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &Handler{
		accounts:   d.Accounts,
		tasks:      d.Tasks,
		extensions: d.Extensions,
		exports:    d.Exports,
		limiter:    d.Limiter,
		rateLimit:  d.RateLimit,
		clock:      clock,
		secretKey:  d.SecretKey,
		logger:     d.Logger.With("module", "http"),
	}
}

// NewRouter wires all routes. Everything under /api except account
// registration and login requires a bearer token.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.limiter != nil {
				r.Use(ratelimit.Middleware(h.limiter, h.rateLimit, nil, h.logger))
			}
			r.Post("/accounts", h.register())
			r.Post("/login", h.login())
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)
			if h.limiter != nil {
				r.Use(ratelimit.Middleware(h.limiter, h.rateLimit, rateLimitKey, h.logger))
			}

			r.Route("/todos", func(r chi.Router) {
				r.Get("/", h.listTasks())
				r.Post("/", h.createTask())
				r.Get("/overdue", h.overdueTasks())
				r.Get("/due-soon", h.dueSoonTasks())
				r.Get("/completed", h.completedTasks())
				r.Get("/incomplete", h.incompleteTasks())
				r.Get("/eligible", h.eligibleTasks())
				r.Post("/export", h.exportTasks())

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.getTask())
					r.Put("/", h.updateTask())
					r.Delete("/", h.deleteTask())
					r.Post("/toggle", h.toggleTask())
					r.Get("/extend", h.extensionInfo())
					r.Post("/extend", h.extendTask())
					r.Get("/extend/preview", h.previewExtension())
					r.Get("/extend/eligibility", h.extensionEligibility())
				})
			})
		})
	})

	return r
}
