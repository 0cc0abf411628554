package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/checkout/internal/catalog"
	catalogStore "github.com/MrJamesThe3rd/checkout/internal/catalog/store"
	"github.com/MrJamesThe3rd/checkout/internal/checkout"
	checkoutStore "github.com/MrJamesThe3rd/checkout/internal/checkout/store"
	"github.com/MrJamesThe3rd/checkout/internal/config"
	"github.com/MrJamesThe3rd/checkout/internal/database"
	"github.com/MrJamesThe3rd/checkout/internal/gateway"
	checkoutHTTP "github.com/MrJamesThe3rd/checkout/internal/http"
	txHandler "github.com/MrJamesThe3rd/checkout/internal/http/checkout"
	pmHandler "github.com/MrJamesThe3rd/checkout/internal/http/paymentmethod"
	"github.com/MrJamesThe3rd/checkout/internal/report"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	providers := gateway.New()
	providers.Register(catalog.ProviderPaydisini, gateway.NewPaydisini(cfg.Paydisini.BaseURL, cfg.Paydisini.APIKey))
	providers.Register(catalog.ProviderDuitku, gateway.NewDuitku(cfg.Duitku.BaseURL, cfg.Duitku.MerchantCode, cfg.Duitku.APIKey))

	var (
		checkoutService = checkout.NewService(checkoutStore.New(db), providers)
		catalogService  = catalog.NewService(catalogStore.New(db))
	)

	var (
		transactionsH   = txHandler.NewHandler(checkoutService, report.NewService(checkoutService))
		paymentMethodsH = pmHandler.NewHandler(catalogService)
	)

	router := checkoutHTTP.New([]byte(cfg.Auth.JWTSecret), transactionsH, paymentMethodsH)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	slog.Info("starting server", "app", cfg.App.Name, "addr", server.Addr)

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
