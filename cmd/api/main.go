package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/agilaxstudios/agilax-backend/api/routes"
	"github.com/agilaxstudios/agilax-backend/internal/affiliates"
	"github.com/agilaxstudios/agilax-backend/internal/auth"
	"github.com/agilaxstudios/agilax-backend/internal/orders"
	"github.com/agilaxstudios/agilax-backend/internal/payouts"
	"github.com/agilaxstudios/agilax-backend/internal/referrals"
	"github.com/agilaxstudios/agilax-backend/internal/users"
	"github.com/agilaxstudios/agilax-backend/pkg/auth/session"
	"github.com/agilaxstudios/agilax-backend/pkg/config"
	"github.com/agilaxstudios/agilax-backend/pkg/db"
	"github.com/agilaxstudios/agilax-backend/pkg/logger"
	"github.com/agilaxstudios/agilax-backend/pkg/migrate"
	"github.com/agilaxstudios/agilax-backend/pkg/redis"
	"github.com/agilaxstudios/agilax-backend/pkg/storage"
	"github.com/agilaxstudios/agilax-backend/pkg/storage/gcs"
	"github.com/agilaxstudios/agilax-backend/pkg/storage/memory"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	screenshotStore, err := newScreenshotStore(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap screenshot storage", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	payoutRepo := payouts.NewRepository(dbClient.DB())

	referralStore, err := referrals.NewStore(redisClient, redisClient, cfg.Referral.CaptureTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create referral store", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
		AuthConfig:     cfg.Auth,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:           orderRepo,
		Referrals:      referralStore,
		Affiliates:     userRepo,
		Storage:        screenshotStore,
		Logger:         logg,
		CheckoutConfig: cfg.Checkout,
		StorageConfig:  cfg.Storage,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	payoutsService, err := payouts.NewService(payoutRepo, orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create payouts service", err)
		os.Exit(1)
	}

	affiliatesService, err := affiliates.NewService(userRepo, payoutRepo, orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create affiliates service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			SessionChecker:  sessionManager,
			AuthService:     authService,
			RegisterService: registerService,
			UsersService:    usersService,
			OrdersService:   ordersService,
			PayoutsService:  payoutsService,
			Affiliates:      affiliatesService,
			Referrals:       referralStore,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// newScreenshotStore picks the storage backend for payment screenshots.
// The sqlite dev variant keeps uploads in memory so a local run needs no
// cloud credentials.
func newScreenshotStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Storage, error) {
	if cfg.FeatureFlags.UseSQLite || cfg.Storage.Driver == "memory" {
		logg.Info(ctx, "using in-memory screenshot storage")
		return memory.NewStore(), nil
	}
	return gcs.NewClient(ctx, cfg.Storage, logg)
}
