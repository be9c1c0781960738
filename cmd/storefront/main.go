package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/apiclient"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/config"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/geo"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/hostbridge"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/storefront"
	"github.com/Lixing-Zhang/fiesta-storefront/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// logs go to stderr so they do not mix with the driver output
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)
	slog.SetDefault(log)

	sc := cfg.Storefront
	api := apiclient.New(sc.APIBaseURL, sc.InitData)

	var bridge hostbridge.Bridge
	if sc.InitData != "" {
		bridge = hostbridge.NewHTTP(api.URL("/api/webapp/order", nil), sc.InitData)
	} else {
		log.Info("no init data, running without a host")
		bridge = &hostbridge.Standalone{Log: log}
	}

	var locator geo.Provider = geo.Unsupported{}
	if loc := (models.Location{Lat: sc.DeliveryLat, Lng: sc.DeliveryLng}); loc.Valid() {
		locator = geo.Static{Location: loc}
	}

	ctrl := storefront.New(api, bridge, locator, storefront.Config{
		MinOrder:       models.MinOrderTotal,
		SearchDebounce: sc.SearchDebounce,
		GeoTimeout:     sc.GeoTimeout,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		_ = ctrl.Run(ctx)
	}()

	d := &driver{ctrl: ctrl, out: os.Stdout, settle: sc.SearchDebounce}
	if err := d.run(ctx, os.Stdin); err != nil {
		log.Error("storefront driver failed", "error", err)
		os.Exit(1)
	}
}
