package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/northbay-wholesale/storefront/internal/cart"
	"github.com/northbay-wholesale/storefront/internal/catalog"
	"github.com/northbay-wholesale/storefront/internal/identity"
	"github.com/northbay-wholesale/storefront/internal/notify"
	"github.com/northbay-wholesale/storefront/internal/scroller"
	"github.com/northbay-wholesale/storefront/internal/session"
	"github.com/northbay-wholesale/storefront/internal/ui"
	"github.com/northbay-wholesale/storefront/pkg/blob"
	"github.com/northbay-wholesale/storefront/pkg/config"
	"github.com/northbay-wholesale/storefront/pkg/localstore"
	"github.com/northbay-wholesale/storefront/pkg/logger"
	"github.com/northbay-wholesale/storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	storage, err := localstore.Open(ctx, cfg.LocalStore, logg)
	if err != nil {
		logg.Error(ctx, "failed to open local store", err)
		os.Exit(1)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logg.Error(ctx, "error closing local store", err)
		}
	}()

	store, err := blob.NewClient(cfg.Blob, logg)
	if err != nil {
		logg.Error(ctx, "failed to create blob client", err)
		os.Exit(1)
	}
	if err := store.Ping(ctx, cfg.Blob.DataContainer); err != nil {
		logg.Warn(ctx, "blob store unreachable, catalog will fall back to cache")
	}

	var provider identity.Provider
	if cfg.Identity.Enabled() {
		tokenProvider := identity.NewTokenProvider(cfg.Identity, logg)
		go func() {
			if _, err := tokenProvider.Initialize(ctx); err != nil {
				logg.Warn(ctx, "identity initialization failed, continuing signed out")
			}
		}()
		provider = tokenProvider
	}

	notifier := notify.NewLogNotifier(logg)
	renderMetrics := metrics.NewRenderMetrics(prometheus.DefaultRegisterer)

	loader, err := catalog.NewLoader(store, storage, cfg.Blob, logg, renderMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create catalog loader", err)
		os.Exit(1)
	}

	cartStore, err := cart.New(ctx, storage, cfg.Cart, notifier, logg)
	if err != nil {
		logg.Error(ctx, "failed to load cart", err)
		os.Exit(1)
	}

	surface := ui.NewConsoleSurface(os.Stdout)
	cartStore.Mount(ui.NewConsoleCartView(os.Stdout))

	renderer, err := scroller.New(cfg.Renderer, surface, nil, cartStore, notifier, surface, logg,
		scroller.WithImageResolver(store.ReadURL),
		scroller.WithMetrics(renderMetrics),
	)
	if err != nil {
		logg.Error(ctx, "failed to create renderer", err)
		os.Exit(1)
	}

	opts := []session.Option{
		session.WithFilterPanel(ui.NewConsoleFilterPanel(os.Stdout)),
	}
	if provider != nil {
		opts = append(opts, session.WithIdentity(provider))
	}
	sess, err := session.New(loader, renderer, logg, opts...)
	if err != nil {
		logg.Error(ctx, "failed to create session", err)
		os.Exit(1)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logg.Error(ctx, "error closing session", err)
		}
	}()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"account": cfg.Blob.AccountURL,
	})
	logg.Info(ctx, "starting storefront session")

	if err := sess.Start(ctx); err != nil {
		logg.Error(ctx, "storefront session failed to start", err)
		os.Exit(1)
	}

	// Drain the remaining pages so the console shows the full filtered
	// catalog before exit.
	for renderer.State() == scroller.StateIdle {
		renderer.LoadNextPage()
	}

	logg.Info(ctx, "storefront session complete")
}
