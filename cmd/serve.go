package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"tenant-deployment-system/internal/config"
	"tenant-deployment-system/internal/credential"
	"tenant-deployment-system/internal/database"
	"tenant-deployment-system/internal/deploy"
	"tenant-deployment-system/internal/handler"
	"tenant-deployment-system/internal/licensing"
	"tenant-deployment-system/internal/logger"
	"tenant-deployment-system/internal/metrics"
	"tenant-deployment-system/internal/repository"
	"tenant-deployment-system/internal/service"
	"tenant-deployment-system/internal/template"
	"tenant-deployment-system/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := database.EnsureAdmin(db, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	store := repository.New(db)
	gatekeeper := licensing.NewGatekeeper(store, store)
	catalog := template.NewCatalog(cfg.Templates.Dir, cfg.Templates.CacheTTL)

	provider, err := credential.NewProvider(cfg)
	if err != nil {
		return err
	}

	sheetSync, err := service.NewSheetSyncService(ctx, cfg.Sheets.Enabled, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName)
	if err != nil {
		return err
	}

	deps := deploy.Deps{
		Admitter:    gatekeeper,
		Tenants:     store,
		Ledger:      store,
		Templates:   catalog,
		Params:      template.ParameterizerFunc(template.Parameterize),
		Credentials: provider,
		Client:      deploy.NewResourceClient(cfg.Azure.ManagementEndpoint, cfg.Azure.APIVersion, cfg.Azure.RequestTimeout),
	}
	if sheetSync != nil {
		if err := sheetSync.Verify(ctx); err != nil {
			log.Warn("sheet sync disabled", zap.Error(err))
		} else {
			deps.Observers = append(deps.Observers, sheetSync)
			defer sheetSync.Start(ctx)()
		}
	}

	orchestrator := deploy.NewOrchestrator(deps, cfg.Deploy.LicenseIdentifier, cfg.Azure.RequestTimeout)

	app := handler.NewApp(&handler.Handler{
		DB:         db,
		Store:      store,
		Gatekeeper: gatekeeper,
		Deployer:   orchestrator,
		Templates:  catalog,
		Tokens:     util.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Logs:       service.NewOperationLogService(db),
		Stats:      service.NewStatisticsService(db),
	}, fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if err := metrics.Register(reg); err != nil {
			return err
		}
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return app.Shutdown()
}

func exportSheet(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg)
	defer log.Sync()

	if !cfg.Sheets.Enabled {
		return errors.New("sheets.enabled is false")
	}

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	sheetSync, err := service.NewSheetSyncService(ctx, true, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName)
	if err != nil {
		return err
	}
	if err := sheetSync.Verify(ctx); err != nil {
		return err
	}

	records, err := repository.New(db).ListAll(ctx)
	if err != nil {
		return err
	}
	if err := sheetSync.ExportDeployments(ctx, records); err != nil {
		return err
	}
	log.Info("deployment ledger exported", zap.Int("rows", len(records)))
	return nil
}
