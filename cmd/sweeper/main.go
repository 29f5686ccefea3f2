// Command sweeper removes expired baskets once and exits. Schedule it with
// cron when the in-process sweeper is disabled.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Skotchmaster/basket_shop/internal/cache"
	"github.com/Skotchmaster/basket_shop/internal/config"
	"github.com/Skotchmaster/basket_shop/internal/repo"
	"github.com/Skotchmaster/basket_shop/internal/service"
	"github.com/Skotchmaster/basket_shop/internal/sweeper"
	pkgdb "github.com/Skotchmaster/basket_shop/pkg/db"
	"github.com/Skotchmaster/basket_shop/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "cmd", "sweeper")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = pkgdb.Close(db) }()

	runner := &sweeper.Runner{
		Svc:    &service.BasketService{Repo: repo.New(db)},
		Logger: logger,
	}
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal(err)
		}
		defer func() { _ = rdb.Close() }()
		runner.Lock = cache.NewLock(rdb, "sweep", cfg.SweepLockTTL)
	}

	removed, err := runner.RunOnce(ctx)
	if err != nil {
		logger.Error("sweep_failed", "removed", removed, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %d expired baskets.\n", removed)
}
