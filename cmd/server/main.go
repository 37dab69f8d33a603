package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/gig_board/internal/config"
	"github.com/Skotchmaster/gig_board/internal/domain"
	"github.com/Skotchmaster/gig_board/internal/events"
	"github.com/Skotchmaster/gig_board/internal/httpserver"
	"github.com/Skotchmaster/gig_board/internal/moderation"
	"github.com/Skotchmaster/gig_board/internal/ratelimit"
	"github.com/Skotchmaster/gig_board/internal/repo"
	"github.com/Skotchmaster/gig_board/internal/search"
	"github.com/Skotchmaster/gig_board/internal/service"
	"github.com/Skotchmaster/gig_board/pkg/db"
	"github.com/Skotchmaster/gig_board/pkg/logging"
	"github.com/Skotchmaster/gig_board/pkg/middleware/requestlog"
	"github.com/Skotchmaster/gig_board/pkg/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(logging.Options{Service: cfg.ServiceName, Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx, stop := context.WithCancel(logging.IntoContext(context.Background(), logger))
	defer stop()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := repo.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	store := &repo.GormRepo{DB: gdb}

	issuer, err := tokens.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}
	guard, err := service.NewAdminGuard(cfg.AdminAPIKey)
	if err != nil {
		log.Fatalf("admin guard: %v", err)
	}

	limiter := ratelimit.New()
	go limiter.Run(ctx, cfg.SweepInterval, time.Now)

	publisher := newPublisher(ctx, cfg)
	index := newSearchIndex(ctx, cfg)

	terms := cfg.BannedWords
	if len(terms) == 0 {
		terms = moderation.DefaultTerms()
	}
	filter := moderation.NewFilter(terms)

	authSvc := &service.AuthService{Users: store, Tokens: issuer}
	gigSvc := &service.GigService{
		Gigs:        store,
		Lifecycle:   domain.NewLifecycle(cfg.FlagThreshold),
		Filter:      filter,
		PostLimit:   &ratelimit.Policy{Limiter: limiter, Name: "gig_post", Max: cfg.GigPostLimit, Window: cfg.GigPostWindow},
		ReportLimit: &ratelimit.Policy{Limiter: limiter, Name: "report", Max: cfg.ReportLimit, Window: cfg.ReportWindow},
		Events:      publisher,
		Index:       index,
	}

	e := echo.New()
	e.HideBanner = true
	if cfg.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(requestlog.RequestLogger(logger))
	e.Use(middleware.CORS())

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:  &httpserver.AuthHTTP{Svc: authSvc},
		GigHandler:   &httpserver.GigHTTP{Svc: gigSvc},
		AdminHandler: &httpserver.AdminHTTP{Svc: gigSvc},
		InteractionHandler: &httpserver.InteractionHTTP{
			Messages: &service.MessageService{Gigs: store, Messages: store, Filter: filter, Events: publisher},
			Reviews:  &service.ReviewService{Gigs: store, Reviews: store, Filter: filter, Events: publisher},
		},
		Auth:        authSvc,
		AdminGuard:  guard,
		APIThrottle: &ratelimit.Policy{Limiter: limiter, Name: "api", Max: cfg.APIRateLimit, Window: cfg.APIRateWindow},
		Ready:       func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdown(srv, publisher, gdb, logger)
	stop()
	logger.Info("shutdown complete")
}

func newPublisher(ctx context.Context, cfg *config.Config) events.Publisher {
	l := logging.FromContext(ctx)
	if len(cfg.KafkaBrokers) == 0 {
		l.Info("kafka disabled, events are dropped")
		return events.Nop{}
	}
	if err := events.EnsureTopics(ctx, cfg.KafkaBrokers[0], events.TopicGigs, events.TopicMessages, events.TopicReviews); err != nil {
		l.Warn("kafka topics not ensured", "error", err)
	}
	p, err := events.NewKafkaPublisher(cfg.KafkaBrokers)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	return p
}

func newSearchIndex(ctx context.Context, cfg *config.Config) search.Index {
	l := logging.FromContext(ctx)
	if cfg.ESURL == "" {
		l.Info("elasticsearch disabled")
		return search.Disabled{}
	}
	client, err := search.NewClient(ctx, search.ClientConfig{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
	if err != nil {
		log.Fatalf("elasticsearch: %v", err)
	}
	ix := &search.ESIndex{Client: client, Name: cfg.ESIndex}
	if err := ix.EnsureIndex(ctx); err != nil {
		log.Fatalf("elasticsearch index: %v", err)
	}
	return ix
}

func shutdown(srv *http.Server, publisher events.Publisher, gdb *gorm.DB, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}
}
