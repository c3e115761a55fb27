package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/brownie/internal/config"
	"github.com/mamadbah2/brownie/internal/repository/mongodb"
	"github.com/mamadbah2/brownie/internal/repository/sheets"
	"github.com/mamadbah2/brownie/internal/repository/supabase"
	"github.com/mamadbah2/brownie/internal/scheduler"
	"github.com/mamadbah2/brownie/internal/server/handlers"
	"github.com/mamadbah2/brownie/internal/server/router"
	billingsvc "github.com/mamadbah2/brownie/internal/service/billing"
	customersvc "github.com/mamadbah2/brownie/internal/service/customers"
	historysvc "github.com/mamadbah2/brownie/internal/service/history"
	reportingsvc "github.com/mamadbah2/brownie/internal/service/reporting"
	salessvc "github.com/mamadbah2/brownie/internal/service/sales"
	stocksvc "github.com/mamadbah2/brownie/internal/service/stock"
	"github.com/mamadbah2/brownie/pkg/clients/postgrest"
	whatsappclient "github.com/mamadbah2/brownie/pkg/clients/whatsapp"
	"github.com/mamadbah2/brownie/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc := cfg.Business.Location()

	storeClient := postgrest.NewClient(cfg.Store, baseLogger.Named("client.postgrest"))
	stockStore := supabase.NewStockStore(storeClient, baseLogger.Named("repo.stock"))
	saleStore := supabase.NewSaleStore(storeClient, baseLogger.Named("repo.sales"))
	chargeStore := supabase.NewChargeStore(storeClient, baseLogger.Named("repo.charges"))
	customerStore := supabase.NewCustomerStore(storeClient)

	stockSvc := stocksvc.NewService(stockStore, stocksvc.Options{
		PriceTimeout: cfg.Store.PriceTimeout,
		CASAttempts:  cfg.Business.StockCASRetries,
	}, baseLogger.Named("svc.stock"))
	billingSvc := billingsvc.NewService(chargeStore, billingsvc.Options{Location: loc}, baseLogger.Named("svc.billing"))
	historySvc := historysvc.NewService(saleStore, cfg.Business.HistoryPageSize, baseLogger.Named("svc.history"))
	customerSvc := customersvc.NewService(customerStore)

	var (
		journal   salessvc.Journal
		sinks     reportingsvc.Sinks
		recoverer scheduler.WorkflowRecoverer
	)

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		journal = mongoRepo
		sinks.Store = mongoRepo
		baseLogger.Info("mongodb workflow journal enabled", zap.String("db", cfg.MongoDB.DBName))
	} else {
		baseLogger.Warn("MONGODB_URI missing, sale workflows are not journaled")
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, loc, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sinks.Exporter = sheetsRepo
	}

	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		sinks.Notifier = whatsappclient.NewManagerNotifier(whatsClient, cfg.WhatsApp.ManagerNumber)
	}

	salesSvc := salessvc.NewService(saleStore, billingSvc, stockSvc, journal, salessvc.Options{
		RecoveryGrace: cfg.Reporting.RecoveryGrace,
	}, baseLogger.Named("svc.sales"))
	if journal != nil {
		recoverer = salesSvc
	}

	reportingSvc := reportingsvc.NewService(billingSvc, stockSvc, sinks, loc, baseLogger.Named("svc.reporting"))

	engine := router.New(router.Handlers{
		Stock:     handlers.NewStockHandler(stockSvc, baseLogger.Named("handlers.stock")),
		Sales:     handlers.NewSalesHandler(salesSvc, historySvc, baseLogger.Named("handlers.sales")),
		Billing:   handlers.NewBillingHandler(billingSvc, baseLogger.Named("handlers.billing")),
		Customers: handlers.NewCustomerHandler(customerSvc, baseLogger.Named("handlers.customers")),
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, loc, reportingSvc, recoverer, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
