package httpapi

import (
	"context"
	"net/http"
	"time"

	"wagerly/metrics"
	"wagerly/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// DefaultTimeout bounds every request handled by the API
const DefaultTimeout = 30 * time.Second

// Services are the operations the API exposes
type Services struct {
	Users    service.UserService
	Wallets  service.WalletService
	Bets     service.BetService
	Disputes service.DisputeService
}

// Options configure the router
type Options struct {
	JWTSecret      string
	PaymentSecret  string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	Metrics        *metrics.Metrics
	// Health reports whether dependencies are reachable; nil means always healthy
	Health func(ctx context.Context) error
	// Context bounds background work such as pruning idle rate limiters; nil disables it
	Context context.Context
}

// NewRouter builds the HTTP API
func NewRouter(svc Services, opts Options) http.Handler {
	h := &handlers{svc: svc}
	auth := &authenticator{secret: []byte(opts.JWTSecret)}
	limiter := newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	if opts.Context != nil {
		limiter.StartCleanup(opts.Context, limiterCleanupInterval, limiterIdleTTL)
	}

	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Instrument)
	}
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(DefaultTimeout))

	r.Get("/healthz", healthHandler(opts.Health))
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			r.Use(paymentSecret(opts.PaymentSecret))
			r.Post("/deposits", h.confirmDeposit)
			r.Post("/withdrawals/settle", h.settleWithdrawal)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Handler)
			r.Use(limiter.Handler)

			r.Get("/me", h.me)
			r.With(requireAdmin).Post("/admin/users", h.ensureUser)

			r.Route("/bets", func(r chi.Router) {
				r.Post("/", h.createBet)
				r.Get("/", h.listBets)
				r.Get("/invited", h.listInvitedBets)
				r.Route("/{betID}", func(r chi.Router) {
					r.Get("/", h.getBet)
					r.Post("/participate", h.participate)
					r.Post("/resolve", h.resolveBet)
					r.Post("/disputes", h.fileDispute)
					r.Get("/disputes", h.listBetDisputes)
				})
			})

			r.Get("/disputes/mine", h.listMyDisputes)

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", h.getWallet)
				r.Get("/transactions", h.listTransactions)
				r.Get("/reconcile", h.reconcile)
				r.Post("/withdrawals", h.withdraw)
				r.Put("/payout-account", h.linkPayoutAccount)
			})
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func healthHandler(health func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Message: "unhealthy"})
				return
			}
		}
		respondOK(w, http.StatusOK, "ok", nil)
	}
}

type handlers struct {
	svc Services
}

// actor is set by the auth middleware on every route that calls it
func actor(r *http.Request) service.Actor {
	a, _ := ActorFromContext(r.Context())
	return a
}
