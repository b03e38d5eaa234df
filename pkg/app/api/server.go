// Package api implements the reconciler server process: the HTTP API, the
// broker consumer applying transaction outcomes, and the pending sweep.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/superdao/reconciler/pkg/app/httpserver"
	"github.com/superdao/reconciler/pkg/broker"
	"github.com/superdao/reconciler/pkg/cache"
	"github.com/superdao/reconciler/pkg/chainapi"
	"github.com/superdao/reconciler/pkg/config"
	"github.com/superdao/reconciler/pkg/dao"
	"github.com/superdao/reconciler/pkg/email"
	"github.com/superdao/reconciler/pkg/membership"
	membershipsvc "github.com/superdao/reconciler/pkg/membership/service"
	"github.com/superdao/reconciler/pkg/nft"
	"github.com/superdao/reconciler/pkg/pgutil"
	"github.com/superdao/reconciler/pkg/referral"
	"github.com/superdao/reconciler/pkg/socket"
	"github.com/superdao/reconciler/pkg/txlog"
	txlogsvc "github.com/superdao/reconciler/pkg/txlog/service"
	"github.com/superdao/reconciler/pkg/user"
	"github.com/superdao/reconciler/pkg/whitelist"
)

const defaultRequestTimeout = 60 * time.Second

// Server holds cfg to init the reconciler server
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new reconciler server
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting reconciler server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("Connected to Redis")

	// stores
	daoStore := dao.NewStore(db)
	userStore := user.NewStore(db)
	membershipStore := membership.NewStore(db)
	txlogStore := txlog.NewStore(db)
	whitelistStore := whitelist.NewStore(db)
	referralStore := referral.NewStore(db)

	// shared infrastructure
	redisCache := cache.NewRedis(redisClient)
	redisBroker := broker.NewRedisBroker(redisClient, cfg.Broker, logger)
	notifier := socket.NewRedis(redisClient, logger)
	mailer := email.NewLogSender(logger)
	chainClient := chainapi.NewClient(&cfg.ChainAPI, logger)

	// services
	membershipService := membershipsvc.NewService(membershipStore, userStore, logger)
	txlogService := txlogsvc.NewService(txlogStore, logger)
	nftService := nft.NewLog(nft.NewService(
		chainClient, daoStore, userStore, whitelistStore,
		membershipService, txlogService, redisBroker, redisCache, logger,
	), logger)
	referralService := referral.NewService(
		referralStore, daoStore, chainClient,
		membershipService, txlogService, redisBroker, logger,
	)

	// outcome consumer
	dispatcher := broker.NewDispatcher(logger)
	nft.NewOutcomeHandlers(userStore, daoStore, membershipService, txlogService,
		redisCache, notifier, mailer, logger).Register(dispatcher)
	referral.NewOutcomeHandlers(referralStore, userStore, membershipService,
		txlogService, redisCache, logger).Register(dispatcher)

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- redisBroker.Run(ctx, dispatcher)
	}()

	// pending transaction sweep
	sweeper := txlogsvc.NewSweeper(txlogStore, logger,
		cfg.Reconciliation.Interval, cfg.Reconciliation.PendingWarnAge)
	sweeper.Start()
	defer sweeper.Stop()

	router := s.setupRouter(db, nftService, referralService, membershipService, txlogService, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err = httpserver.ServeAndWait(ctx, logger, srv, cfg.Shutdown.Timeout)

	sweeper.Stop()
	if consumerErr := <-consumerDone; consumerErr != nil && ctx.Err() == nil {
		logger.Error("broker consumer stopped", zap.Error(consumerErr))
	}
	return err
}

func (s *Server) setupRouter(
	db *bun.DB,
	nftService nft.Service,
	referralService referral.Service,
	membershipService membershipsvc.Service,
	txlogService txlogsvc.Service,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	RegisterRoutes(r, nftService, referralService, membershipService, txlogService,
		s.cfg.ChainAPI.WrappedMaticHex, logger)

	return r
}
