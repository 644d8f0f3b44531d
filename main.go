package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/clients"
	intconfig "storefront/internal/config"
	router "storefront/internal/http"
	h "storefront/internal/http/handlers"
	"storefront/internal/pricing"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/utils"
	"storefront/internal/wizard"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	log, err := utils.NewLogger(env.LogLevel, env.LogDev)
	if err != nil {
		log = zap.NewExample()
		log.Warn("logger config rejected, using fallback", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	drafts, catalog := storage(env, log)
	defer intconfig.CloseDB()

	bands, err := pricing.ParseBands(env.PricingBands)
	if err != nil {
		log.Warn("invalid PRICING_BANDS, using defaults", zap.Error(err))
		bands = pricing.DefaultBands()
	}
	rules := pricing.Rules{Bands: bands}

	sessions := services.NewSessionService(services.SessionConfig{
		Storage:        drafts,
		Routes:         catalog,
		Policy:         wizard.Policy{SameDayBuffer: env.SameDayBuffer, Location: time.Local},
		Pricing:        clients.NewPricingClient(env.PricingURL, env.PricingTimeout),
		Rules:          rules,
		Tolerance:      env.PriceTolerance,
		PricingTimeout: env.PricingTimeout,
		IdleTTL:        env.SessionIdleTTL,
		DraftRetention: env.DraftRetention,
		AutoPricing:    env.AutoPricing,
		Logger:         log,
	})

	wiz := h.WizardHandler{
		Sessions: sessions,
		Tokens:   auth.NewSessionTokens(env.JWTSecret, env.SessionTTL),
		Catalog:  catalog,
		Rules:    rules,
		Submission: services.SubmissionService{
			Cart:    clients.NewCartClient(env.CartURL, env.SubmitTimeout),
			Timeout: env.SubmitTimeout,
			Logger:  log,
		},
		SessionTTL: env.SessionTTL,
		Logger:     log,
	}

	r := router.NewRouter(env, wiz, log)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		// no write timeout: /api/wizard/ws streams stay open
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", env.AppAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.RunJanitor(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		sessions.Shutdown()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return
	}
	log.Info("server stopped cleanly")
}

type routeCatalog interface {
	wizard.RouteLookup
	h.CatalogReader
}

// storage picks MySQL when DB_DSN is set, in-memory storage with the seed catalog otherwise.
func storage(env intconfig.Env, log *zap.Logger) (wizard.DraftStorage, routeCatalog) {
	if env.DBDSN == "" {
		log.Info("DB_DSN not set, using in-memory drafts and seed catalog")
		return repositories.NewMemoryDraftRepository(), repositories.NewMemoryRouteCatalog(repositories.SeedRoutes()...)
	}
	db, err := intconfig.ConnectDB(env.DBDSN)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	drafts := repositories.DraftRepository{DB: db}
	if err := drafts.EnsureTable(); err != nil {
		log.Fatal("draft table unavailable", zap.Error(err))
	}
	routes := repositories.RouteRepository{DB: db}
	if err := routes.EnsureTable(); err != nil {
		log.Fatal("route table unavailable", zap.Error(err))
	}
	return drafts, routes
}
