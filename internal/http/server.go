// Package http exposes the bill engine over a JSON API. Routing uses chi;
// every route below /auth requires a Bearer token and is rate limited per
// client IP.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contas/internal/auth"
	"contas/internal/middleware/ratelimit"
	"contas/internal/services"
)

// Server holds the wired services behind the API.
type Server struct {
	authenticator *auth.PasswordAuthenticator
	jwt           *auth.JWTManager
	cards         *services.CardService
	bills         *services.BillService
	instances     *services.InstanceService
	generator     *services.Generator
	dashboard     *services.DashboardService
	statements    *services.StatementService
	limiter       *ratelimit.Limiter
	now           func() time.Time
}

type Config struct {
	Authenticator *auth.PasswordAuthenticator
	JWT           *auth.JWTManager
	Cards         *services.CardService
	Bills         *services.BillService
	Instances     *services.InstanceService
	Generator     *services.Generator
	Dashboard     *services.DashboardService
	Statements    *services.StatementService
	Limiter       *ratelimit.Limiter
}

func NewServer(cfg Config) *Server {
	return &Server{
		authenticator: cfg.Authenticator,
		jwt:           cfg.JWT,
		cards:         cfg.Cards,
		bills:         cfg.Bills,
		instances:     cfg.Instances,
		generator:     cfg.Generator,
		dashboard:     cfg.Dashboard,
		statements:    cfg.Statements,
		limiter:       cfg.Limiter,
		now:           time.Now,
	}
}

// Handler builds the full route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(observe)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(s.limiter.Middleware(clientIP))
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(clientIP))
		r.Use(s.requireAuth)

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", s.handleListCards)
			r.Post("/", s.handleCreateCard)
			r.Route("/{cardID}", func(r chi.Router) {
				r.Get("/", s.handleGetCard)
				r.Patch("/", s.handleUpdateCard)
				r.Get("/shares", s.handleListShares)
				r.Post("/shares", s.handleShareCard)
				r.Delete("/shares/{userID}", s.handleRevokeShare)
				r.Get("/bills", s.handleListBills)
				r.Post("/bills", s.handleCreateBill)
			})
		})

		r.Route("/bills/{billID}", func(r chi.Router) {
			r.Get("/", s.handleGetBill)
			r.Patch("/", s.handleUpdateBill)
			r.Delete("/", s.handleDeleteBill)
		})

		r.Route("/instances", func(r chi.Router) {
			r.Get("/", s.handleListInstances)
			r.Route("/{instanceID}", func(r chi.Router) {
				r.Get("/", s.handleGetInstance)
				r.Post("/pay", s.handlePayInstance)
				r.Post("/cancel", s.handleCancelInstance)
				r.Post("/uncancel", s.handleUncancelInstance)
				r.Patch("/override", s.handleOverrideInstance)
				r.Get("/payments", s.handleListPayments)
				r.Post("/payments", s.handleRecordPayment)
			})
		})

		r.Get("/dashboard", s.handleDashboard)
		r.Post("/statements/export", s.handleRequestExport)
	})

	return r
}

// clientIP keys rate limiting. RealIP middleware has already resolved
// forwarding headers into RemoteAddr.
func clientIP(r *http.Request) string {
	return r.RemoteAddr
}
