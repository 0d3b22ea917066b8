package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agilaxstudios/agilax-backend/api/controllers"
	"github.com/agilaxstudios/agilax-backend/api/middleware"
	"github.com/agilaxstudios/agilax-backend/internal/affiliates"
	"github.com/agilaxstudios/agilax-backend/internal/auth"
	"github.com/agilaxstudios/agilax-backend/internal/orders"
	"github.com/agilaxstudios/agilax-backend/internal/payouts"
	"github.com/agilaxstudios/agilax-backend/internal/referrals"
	"github.com/agilaxstudios/agilax-backend/internal/users"
	"github.com/agilaxstudios/agilax-backend/pkg/auth/session"
	"github.com/agilaxstudios/agilax-backend/pkg/config"
	"github.com/agilaxstudios/agilax-backend/pkg/enums"
	"github.com/agilaxstudios/agilax-backend/pkg/logger"
	"github.com/agilaxstudios/agilax-backend/pkg/redis"
)

// Pinger matches anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the router wires together.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              Pinger
	Redis           *redis.Client
	SessionChecker  session.AccessSessionChecker
	AuthService     auth.Service
	RegisterService auth.RegisterService
	UsersService    users.Service
	OrdersService   orders.Service
	PayoutsService  payouts.Service
	Affiliates      affiliates.Service
	Referrals       *referrals.Store
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	// Multipart body, so only the per-IP counter applies.
	checkoutPolicy := middleware.NewAuthRateLimitPolicy(
		"checkout",
		cfg.AuthRateLimit.CheckoutWindow,
		cfg.AuthRateLimit.CheckoutIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Post("/referrals/capture", controllers.ReferralCapture(deps.Referrals, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.RegisterService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
	})

	r.With(middleware.AuthRateLimit(checkoutPolicy, deps.Redis, logg)).
		Post("/api/v1/checkout", controllers.Checkout(deps.OrdersService, cfg.Storage, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

		r.Get("/me", controllers.MeGet(deps.UsersService, logg))
		r.Patch("/me", controllers.MePatch(deps.UsersService, logg))

		r.Route("/affiliate", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAffiliate), logg))
			r.Get("/me", controllers.AffiliateDashboard(deps.Affiliates, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Get("/orders", controllers.AdminListOrders(deps.OrdersService, logg))
		r.Post("/orders/{orderId}/bundle-sent", controllers.AdminMarkBundleSent(deps.OrdersService, logg))
		r.Patch("/orders/{orderId}", controllers.AdminUpdateOrder(deps.OrdersService, logg))

		r.Get("/affiliates", controllers.AdminListAffiliates(deps.Affiliates, logg))

		r.Get("/payouts", controllers.AdminListPayouts(deps.PayoutsService, logg))
		r.Post("/payouts/{payoutId}/paid", controllers.AdminMarkPayoutPaid(deps.PayoutsService, logg))

		r.Get("/stats", controllers.AdminStats(deps.PayoutsService, logg))
		r.Get("/earnings/weekly", controllers.AdminWeeklyEarnings(deps.OrdersService, logg))
	})

	return r
}
