// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"finledger/internal/api/handler"
	"finledger/internal/api/middleware"
	"finledger/internal/metrics"
)

// NewRouter sets up and returns a new HTTP router. m may be nil, in which case
// /metrics is not mounted.
func NewRouter(
	userHandler *handler.UserHandler,
	statementHandler *handler.StatementHandler,
	tokens middleware.TokenParser,
	m *metrics.Ledger,
	logger *zap.Logger,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(handler.DefaultTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", userHandler.CreateUser)
		r.Post("/sessions", userHandler.CreateSession)

		// Everything below requires a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticator(tokens))

			r.Get("/profile", userHandler.ShowProfile)

			r.Route("/statements", func(r chi.Router) {
				r.Get("/", statementHandler.GetStatementHistory)
				r.Get("/balance", statementHandler.GetBalance)
				r.Post("/deposit", statementHandler.Deposit)
				r.Post("/withdraw", statementHandler.Withdraw)
				r.Post("/transfer", statementHandler.MissingReceiver)
				r.Post("/transfer/{receiverID}", statementHandler.Transfer)
				r.Get("/{statementID}", statementHandler.GetStatementOperation)
			})
		})
	})

	return r
}
