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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/config"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/handlers"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/middleware"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/promo"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/repository"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/service"
	"github.com/Lixing-Zhang/fiesta-storefront/pkg/logger"
)

var version = "dev"

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting fiesta api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
		"version", version,
	)
	if cfg.Auth.BotToken == "" {
		log.Warn("BOT_TOKEN is empty, all init data will be rejected and orders cannot be placed")
	}

	promos, err := loadPromos(cfg.Promo, log)
	if err != nil {
		log.Error("failed to load promo data", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	catalogRepo := repository.NewInMemoryCatalogRepository()
	orderRepo := repository.NewInMemoryOrderRepository()

	// Initialize services
	catalogService := service.NewCatalogService(catalogRepo)
	orderService := service.NewOrderService(catalogRepo, orderRepo, promos)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log, version)
	catalogHandler := handlers.NewCatalogHandler(catalogService, log)
	promoHandler := handlers.NewPromoHandler(promos, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// The web view is served from the Telegram client, any origin may call
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.InitDataAuth(cfg.Auth, log))

		r.Get("/categories", catalogHandler.ListCategories)
		r.Get("/foods", catalogHandler.ListFoods)

		r.Get("/promo/validate", promoHandler.ValidatePromo)
		r.Get("/promo/stats", promoHandler.GetStats)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(log))
			r.Post("/webapp/order", orderHandler.CreateOrder)
			r.Get("/webapp/order/{orderId}", orderHandler.GetOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(cfg.Auth.AdminIDs, log))
			r.Get("/promos", promoHandler.ListPromos)
			r.Post("/promos", promoHandler.CreatePromo)
			r.Post("/orders/{orderId}/status", orderHandler.UpdateStatus)
		})
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// loadPromos reads the configured promo sources, falling back to the
// built-in seed when none are set
func loadPromos(cfg config.PromoConfig, log *slog.Logger) (*promo.Store, error) {
	store := promo.NewStore()

	if len(cfg.Sources) == 0 {
		store.Seed(promo.DefaultPromos())
		log.Info("no promo sources configured, using built-in promos")
		return store, nil
	}

	log.Info("loading promo data...", "sources", len(cfg.Sources))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := store.Load(ctx, cfg.Sources); err != nil {
		return nil, err
	}

	stats := store.GetStats()
	log.Info("promo data loaded successfully",
		"total_sources", stats["total_sources"],
		"total_promos", stats["total_promos"],
	)
	return store, nil
}
