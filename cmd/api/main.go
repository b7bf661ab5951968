package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/config"
	"github.com/ovaphlow/pitchfork/service-user-directory/internal/router"
	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-user-directory/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/database"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/utilities"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// init logger
	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting user directory api", "env", cfg.Env, "driver", cfg.Database.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids, err := utilities.NewIDScheme(cfg.ID)
	if err != nil {
		sugar.Fatalf("id scheme: %v", err)
	}

	store, db, err := openStore(ctx, sugar, cfg.Database, ids)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	handler := router.RegisterRoutes(sugar, user.NewUserService(store), router.Options{
		Production:     cfg.Production(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sugar.Infow("http server listening", "addr", cfg.HTTP.Addr, "id_scheme", ids.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sugar.Info("shutting down")

		doneCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if db != nil {
			if err := db.PingContext(doneCtx); err != nil {
				sugar.Warnf("db ping on shutdown failed: %v", err)
			}
		}
		return srv.Shutdown(doneCtx)
	})

	if err := g.Wait(); err != nil {
		sugar.Errorw("server stopped with error", "err", err)
		lg.Sync()
		os.Exit(1)
	}
	sugar.Info("goodbye")
}

// openStore connects the configured backend and applies migrations. The
// returned *sqlx.DB is nil for the memory driver.
func openStore(ctx context.Context, logger *zap.SugaredLogger, cfg database.Config, ids utilities.IDScheme) (user.Store, *sqlx.DB, error) {
	if cfg.Driver == database.DriverMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		return userrepo.NewMemoryRepo(ids), nil, nil
	}
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db, cfg.Driver); err != nil {
		db.Close()
		return nil, nil, err
	}
	return userrepo.NewUserRepo(db, ids), db, nil
}
