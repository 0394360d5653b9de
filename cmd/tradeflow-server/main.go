// tradeflow-server runs the order engine: the JSON API for strategies, the
// metrics listener, and the wiring between credential store, symbol master,
// journal, and broker gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"tradeflow/internal/broker"
	"tradeflow/internal/config"
	"tradeflow/internal/creds"
	"tradeflow/internal/domain"
	"tradeflow/internal/engine"
	"tradeflow/internal/httpapi"
	"tradeflow/internal/journal"
	"tradeflow/internal/metrics"
	"tradeflow/internal/symbols"
	"tradeflow/internal/util"
)

func main() {
	godotenv.Load()

	cfgPath := "config/tradeflow.yaml"
	if p := os.Getenv("TRADEFLOW_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Credential store.
	var store creds.Store
	switch cfg.Credentials.Backend {
	case "redis":
		store = creds.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.Credentials.RedisAddr}))
	default:
		s, err := creds.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening credential store: %v", err)
		}
		defer s.Close()
		store = s
	}

	var fallback *domain.Credential
	if cfg.Credentials.DefaultAccessToken != "" && cfg.Credentials.DefaultAPIKey != "" {
		fallback = &domain.Credential{
			Principal:   cfg.Credentials.DefaultPrincipal,
			AccessToken: cfg.Credentials.DefaultAccessToken,
			APIKey:      cfg.Credentials.DefaultAPIKey,
		}
	}
	resolver := creds.NewResolver(store,
		time.Duration(cfg.Credentials.CacheTTLSeconds)*time.Second, fallback)

	// Symbol master.
	symResolver, err := symbols.NewSQLiteResolver(cfg.Storage.SymbolsPath)
	if err != nil {
		log.Fatalf("opening symbol master: %v", err)
	}
	defer symResolver.Close()

	// Broker gateway.
	var gw broker.Gateway
	if cfg.Broker.Simulator {
		gw = broker.NewSimulator()
	} else {
		gw = broker.NewRESTGateway(cfg.Broker.BaseURL,
			time.Duration(cfg.Broker.TimeoutSeconds)*time.Second, cfg.Broker.ReadRetries)
	}

	m := metrics.New()
	resolver.SetCacheCounters(m.CredCacheHits, m.CredCacheMisses)
	health := metrics.NewHealthStatus(gw.Name())

	eng := engine.New(gw, resolver, symResolver)
	eng.SetJournal(journal.New(cfg.Storage.DataDir))
	eng.SetMetrics(m)
	var limiter *util.RateLimiter
	if cfg.Trading.RateLimitPerMin > 0 {
		limiter = util.NewRateLimiter(cfg.Trading.RateLimitPerMin)
	}
	eng.SetBulkLimits(cfg.Trading.MaxParallel, limiter)

	api := httpapi.NewServer(eng, resolver)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: api.Handler()}

	msrv := metrics.NewServer(
		fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort), m, health)
	msrv.Start()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		slog.Info("tradeflow-server listening", "addr", addr, "gateway", gw.Name())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("api shutdown", "error", err)
	}
	if err := msrv.Stop(shutdownCtx); err != nil {
		slog.Error("metrics shutdown", "error", err)
	}
}
