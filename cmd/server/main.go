package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	catalogHandler "charitydrive/internal/catalog/handler"
	catalogService "charitydrive/internal/catalog/service"
	jwttoken "charitydrive/internal/jwt_token"
	marketplaceHandler "charitydrive/internal/marketplace/handler"
	marketplaceMetrics "charitydrive/internal/marketplace/metrics"
	marketplaceService "charitydrive/internal/marketplace/service"
	"charitydrive/internal/platform/config"
	"charitydrive/internal/platform/httpserver"
	"charitydrive/internal/platform/logger"
	"charitydrive/internal/platform/metrics"
	ratelimitMiddleware "charitydrive/internal/ratelimit/middleware"
	ratelimitModels "charitydrive/internal/ratelimit/models"
	id "charitydrive/pkg/domain"
	"charitydrive/pkg/platform/httputil"
	"charitydrive/pkg/platform/middleware/admin"
	"charitydrive/pkg/platform/middleware/auth"
	"charitydrive/pkg/platform/middleware/metadata"
	"charitydrive/pkg/platform/middleware/request"
	"charitydrive/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type accounts struct {
	operator     id.AccountID
	marketplace  id.AccountID
	catalogOwner id.AccountID
}

func parseAccounts(cfg config.Server) (accounts, error) {
	operator, err := id.ParseAccountID(cfg.Marketplace.OperatorAccount)
	if err != nil {
		return accounts{}, fmt.Errorf("OPERATOR_ACCOUNT: %w", err)
	}
	market, err := id.ParseAccountID(cfg.Marketplace.MarketplaceAccount)
	if err != nil {
		return accounts{}, fmt.Errorf("MARKETPLACE_ACCOUNT: %w", err)
	}
	if market == operator {
		return accounts{}, errors.New("MARKETPLACE_ACCOUNT must differ from OPERATOR_ACCOUNT")
	}
	owner := operator
	if cfg.Catalog.Owner != "" {
		if owner, err = id.ParseAccountID(cfg.Catalog.Owner); err != nil {
			return accounts{}, fmt.Errorf("CATALOG_OWNER: %w", err)
		}
	}
	return accounts{operator: operator, marketplace: market, catalogOwner: owner}, nil
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	accts, err := parseAccounts(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := buildInfra(ctx, cfg, accts, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	catalogSvc, err := catalogService.New(infra.catalogStore,
		catalogService.WithLogger(log),
		catalogService.WithAuditPublisher(infra.publisher),
	)
	if err != nil {
		return err
	}

	sequencer, err := marketplaceService.NewSnowflakeSequencer(cfg.Marketplace.SnowflakeNode)
	if err != nil {
		return err
	}
	marketSvc, err := marketplaceService.New(infra.stateStore, catalogSvc, infra.ledger,
		marketplaceService.WithLogger(log),
		marketplaceService.WithAuditPublisher(infra.publisher),
		marketplaceService.WithMetrics(marketplaceMetrics.New()),
		marketplaceService.WithSequencer(sequencer),
		marketplaceService.WithDepositDenomination(cfg.Marketplace.DepositDenomination),
	)
	if err != nil {
		return err
	}

	limiter := ratelimitMiddleware.New(infra.limiterStore,
		ratelimitMiddleware.WithLogger(log),
		ratelimitMiddleware.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitMiddleware.WithLimit(ratelimitModels.ClassRead, perMinute(cfg.RateLimit.ReadPerMinute)),
		ratelimitMiddleware.WithLimit(ratelimitModels.ClassWrite, perMinute(cfg.RateLimit.WritePerMinute)),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, jwttoken.Issuer, jwttoken.Audience)
	router := newRouter(routerDeps{
		logger:      log,
		observer:    metrics.New(),
		validator:   jwttoken.NewJWTServiceAdapter(jwtService),
		adminToken:  cfg.AdminToken,
		limiter:     limiter,
		checks:      infra.checks,
		catalog:     catalogHandler.New(catalogSvc, log),
		marketplace: marketplaceHandler.New(marketSvc, log),
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting charitydrive",
		"addr", cfg.Addr,
		"operator", accts.operator.String(),
		"marketplace_account", accts.marketplace.String(),
		"storage", infra.backend,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpserver.Serve(gctx, srv) })
	if infra.relay != nil {
		g.Go(func() error {
			if err := infra.relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	log.Info("charitydrive stopped")
	return nil
}

// perMinute returns a zero Limit for n <= 0, which WithLimit ignores.
func perMinute(n int) ratelimitModels.Limit {
	if n <= 0 {
		return ratelimitModels.Limit{}
	}
	return ratelimitModels.Limit{Requests: n, Window: time.Minute}
}

type routerDeps struct {
	logger      *slog.Logger
	observer    request.RequestObserver
	validator   auth.JWTValidator
	adminToken  string
	limiter     *ratelimitMiddleware.Middleware
	checks      map[string]func(context.Context) error
	catalog     *catalogHandler.Handler
	marketplace *marketplaceHandler.Handler
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(deps.logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(deps.logger, deps.observer))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", readiness(deps.checks))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.validator, deps.logger))
		r.Use(deps.limiter.Handler)
		deps.marketplace.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(deps.adminToken, deps.logger))
			deps.catalog.Register(r)
		})
	})
	return r
}

// readiness reports 503 with the failing dependencies when any check fails.
func readiness(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		failed := map[string]string{}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
