package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/identity"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/ledger"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/session"
)

// Server exposes the ledger over HTTP. Every /v1 route requires a bearer
// session token; the token subject is the acting identity.
type Server struct {
	ledger    *ledger.Ledger
	directory *identity.Resolver
	sessions  *session.Manager
	logger    *slog.Logger
}

func NewServer(l *ledger.Ledger, directory *identity.Resolver, sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{ledger: l, directory: directory, sessions: sessions, logger: logger}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(s.logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authenticate(s.sessions))

		r.Get("/me", s.handleMe)
		r.Post("/onboarding", s.handleOnboard)

		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.handleListRecords)
			r.Post("/", s.handleCreateRecord)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRecord)
				r.Put("/", s.handleUpdateRecord)
				r.Delete("/", s.handleDeleteRecord)
				r.Post("/approve", s.handleApprove)
				r.Post("/decline", s.handleDecline)
				r.Post("/deletion/confirm", s.handleConfirmDeletion)
				r.Post("/deletion/cancel", s.handleCancelDeletion)
			})
		})

		r.Get("/summary", s.handleSummary)
		r.Get("/fund/balance", s.handleFundBalance)
		r.Post("/invoices/next", s.handleNextInvoice)

		r.Route("/delegates", func(r chi.Router) {
			r.Get("/", s.handleListDelegates)
			r.Post("/", s.handleAddDelegate)
			r.Delete("/{id}", s.handleRemoveDelegate)
		})
	})
	return r
}
