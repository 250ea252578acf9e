package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ByGamer01/DamnBruh/monitoring"
	"github.com/ByGamer01/DamnBruh/service"
)

// RouterDeps bundles everything NewRouter needs
type RouterDeps struct {
	Verifier TokenVerifier
	Profiles ProfileFetcher

	Users        service.UserService
	Games        service.GameService
	Leaderboards service.LeaderboardService
	Ledger       service.LedgerService

	RateLimiter *RateLimiter
	Collector   *monitoring.Collector

	CORSAllowedOrigin string
	MetricsHandler    http.Handler
}

// NewRouter builds the HTTP surface. Middleware order is CORS, recovery,
// logging and metrics for everything; authenticated groups add token
// verification and rate limiting on top.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(corsMiddleware(deps.CORSAllowedOrigin))
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	if deps.Collector != nil {
		r.Use(deps.Collector.HTTPMiddleware)
	}

	userHandler := NewUserHandler(deps.Verifier, deps.Profiles, deps.Users)
	gameHandler := NewGameHandler(deps.Games)
	leaderboardHandler := NewLeaderboardHandler(deps.Leaderboards)
	ledgerHandler := NewLedgerHandler(deps.Ledger)

	// Unauthenticated surface
	r.Get("/", healthHandler)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// Token verification does its own auth work
	r.Post("/api/auth/verify", userHandler.VerifyAuth)

	// Leaderboard is public; a valid token adds the viewer's own rank
	r.With(optionalAuth(deps.Verifier)).Get("/api/leaderboard/global", leaderboardHandler.GetGlobal)

	// Authenticated surface
	r.Group(func(r chi.Router) {
		r.Use(requireAuth(deps.Verifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/user", func(r chi.Router) {
			r.Get("/profile", userHandler.GetProfile)
			r.Put("/profile", userHandler.UpdateProfile)
			r.Get("/balance", userHandler.GetBalance)
		})

		r.Route("/api/games", func(r chi.Router) {
			// Joins burn money; they get their own tighter budget
			r.With(deps.RateLimiter.BettingMiddleware()).Post("/join", gameHandler.JoinGame)
			r.Post("/end", gameHandler.EndGame)
			r.Get("/history", gameHandler.GetHistory)
		})

		r.Get("/api/transactions", ledgerHandler.ListTransactions)
		r.Post("/api/withdrawals", ledgerHandler.RequestWithdrawal)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "damnbruh-api",
		"status":  "ok",
	})
}
