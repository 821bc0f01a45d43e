package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"inkgate/internal/abuse"
	"inkgate/internal/abuse/signup"
	"inkgate/internal/auth/password"
	"inkgate/internal/auth/service"
	denylistStore "inkgate/internal/auth/store/denylist"
	tokenStore "inkgate/internal/auth/store/token"
	userStore "inkgate/internal/auth/store/user"
	"inkgate/internal/platform/config"
	"inkgate/internal/platform/database"
	"inkgate/internal/platform/httpserver"
	"inkgate/internal/platform/logger"
	"inkgate/internal/platform/metrics"
	"inkgate/internal/token"
	httptransport "inkgate/internal/transport/http"
	"inkgate/migrations"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(cfg.Debug)

	log.Info("initializing inkgate",
		"addr", cfg.Addr,
		"lock_threshold", cfg.LockThreshold,
		"ip_block_threshold", cfg.IPBlockThreshold,
	)

	pool, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var (
		users    service.UserStore
		tokens   service.TokenStore
		denylist service.Denylist
		abuseSt  abuse.Store
	)
	if pool != nil {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := pool.Migrate(migrateCtx, migrations.FS); err != nil {
			cancel()
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		cancel()

		db := pool.DB()
		users = userStore.NewPostgres(db)
		tokens = tokenStore.NewPostgres(db)
		denylist = denylistStore.NewPostgres(db)
		abuseSt = abuse.NewPostgres(db)
	} else {
		log.Warn("no DATABASE_URL configured, running on in-memory stores")
		users = userStore.New()
		tokens = tokenStore.New()
		denylist = denylistStore.New()
		abuseSt = abuse.NewInMemoryStore()
	}

	m := metrics.New()

	signer := token.NewService(cfg.SigningSecret, cfg.Issuer,
		cfg.AccessTTLHours, cfg.RefreshTTLHours, cfg.ClockLocation())

	tracker := abuse.New(abuseSt, cfg.IPBlockThreshold,
		abuse.WithLogger(log),
		abuse.WithMetrics(m),
		abuse.WithBlockExpiry(cfg.BlockExpiry()),
	)

	auth, err := service.New(users, tokens, denylist, signer, password.BcryptVerifier{},
		service.Config{
			LockThreshold: cfg.LockThreshold,
			LockDuration:  cfg.LockDuration(),
		},
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAbuseTracker(tracker),
		service.WithCreationLimiter(signup.NewLimiter(cfg.SignupMaxPerIP)),
	)
	if err != nil {
		log.Error("auth service init failed", "error", err)
		os.Exit(1)
	}

	var health func(context.Context) error
	if pool != nil {
		health = pool.Health
	}
	handler := httptransport.NewHandler(auth, health, log)
	router := httptransport.NewRouter(handler, auth, cfg.TrustProxyHeaders, m, log)
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
