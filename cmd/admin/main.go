package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/admin"
	"github.com/ovaphlow/pitchfork/service-user-directory/internal/config"
	"github.com/ovaphlow/pitchfork/service-user-directory/internal/router"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/client"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/utilities"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateAdmin(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid admin config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.Admin.APIURL)
	if err := api.Health(ctx); err != nil {
		// the frontend still starts; pages report the API as unreachable
		sugar.Warnw("api health check failed", "url", cfg.Admin.APIURL, "err", err)
	}

	h, err := admin.NewHandler(api, sugar, admin.Options{
		SessionKey: []byte(cfg.Admin.SessionKey),
		Secure:     cfg.Production(),
	})
	if err != nil {
		sugar.Fatalf("admin handler: %v", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(router.LoggingMiddleware(sugar))
	r.Use(middleware.Recoverer)
	h.Routes(r)

	srv := &http.Server{Addr: cfg.Admin.Addr, Handler: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sugar.Infow("admin frontend listening", "addr", cfg.Admin.Addr, "api", cfg.Admin.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		doneCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(doneCtx)
	})

	if err := g.Wait(); err != nil {
		sugar.Errorw("admin stopped with error", "err", err)
		lg.Sync()
		os.Exit(1)
	}
}
