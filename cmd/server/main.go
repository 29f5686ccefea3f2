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
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/basket_shop/internal/cache"
	"github.com/Skotchmaster/basket_shop/internal/config"
	"github.com/Skotchmaster/basket_shop/internal/httpserver"
	"github.com/Skotchmaster/basket_shop/internal/middleware"
	"github.com/Skotchmaster/basket_shop/internal/repo"
	"github.com/Skotchmaster/basket_shop/internal/service"
	"github.com/Skotchmaster/basket_shop/internal/sweeper"
	pkgdb "github.com/Skotchmaster/basket_shop/pkg/db"
	"github.com/Skotchmaster/basket_shop/pkg/logging"
	loggingmw "github.com/Skotchmaster/basket_shop/pkg/middleware/logging"
	"github.com/Skotchmaster/basket_shop/pkg/mykafka"
)

type publisher interface {
	service.EventPublisher
	Close() error
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := pkgdb.Close(db); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	}()

	var events publisher = mykafka.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		events = p
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}
	defer func() {
		if err := events.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}()

	store := repo.New(db)
	authSvc := &service.AuthService{Repo: store, JWTSecret: cfg.JWTSecret, TokenTTL: cfg.AccessTokenTTL, Events: events}
	catalogSvc := &service.CatalogService{Repo: store, Events: events}
	basketSvc := &service.BasketService{Repo: store, Events: events}
	runner := &sweeper.Runner{Svc: basketSvc, Interval: cfg.SweepInterval, Logger: logger}

	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		catalogSvc.Cache = cache.NewProductCache(rdb, cfg.ProductCacheTTL)
		runner.Lock = cache.NewLock(rdb, "sweep", cfg.SweepLockTTL)
	} else {
		logger.Warn("redis_disabled", "reason", "REDIS_ADDR is empty")
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Store:   store,
		Auth:    &httpserver.AuthHTTP{Svc: authSvc},
		Catalog: &httpserver.CatalogHTTP{Svc: catalogSvc},
		Basket:  &httpserver.BasketHTTP{Svc: basketSvc, LegacyConflictStatus: cfg.LegacyConflictStatus},
		AuthMW:  middleware.NewAuth(cfg.JWTSecret, authSvc),
		CSRF:    cfg.CSRFEnabled,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown_complete")
	return nil
}
