package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"go.uber.org/zap"

	"adminservice/internal/app/config"
	httpapi "adminservice/internal/app/http"
	"adminservice/internal/app/http/handler"
	"adminservice/internal/domain/deploy"
	"adminservice/internal/domain/offboard"
	"adminservice/internal/domain/report"
	"adminservice/internal/domain/tagsync"
	"adminservice/internal/infrastructure/async"
	"adminservice/internal/infrastructure/db/pg"
	"adminservice/internal/infrastructure/directory"
	"adminservice/internal/infrastructure/logging"
	"adminservice/internal/infrastructure/mailbox"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db open error", zap.Error(err))
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("db ping error", zap.Error(err))
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("goose dialect error", zap.Error(err))
	}
	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatal("goose up error", zap.Error(err))
	}

	uow := pg.NewTxManager(db)

	eventBus := async.NewAsyncEventBus(ctx, async.Options{Size: cfg.EventWorkers}, log)
	defer eventBus.Close()

	dirClient, err := directory.NewClient(directory.Config{
		BaseURL:           cfg.DirectoryURL,
		Token:             cfg.DirectoryToken,
		RequestsPerSecond: cfg.DirectoryRPS,
	})
	if err != nil {
		log.Fatal("directory client error", zap.Error(err))
	}

	mailClient, err := mailbox.NewClient(mailbox.Config{
		BaseURL: cfg.MailboxURL,
		Token:   cfg.MailboxToken,
	})
	if err != nil {
		log.Fatal("mailbox client error", zap.Error(err))
	}

	reportRepo := pg.NewReportRepository(db)
	markerRepo := pg.NewMarkerRepository(db)

	syncSvc := tagsync.NewService(tagsync.Config{
		TagName:        cfg.TagName,
		TagDescription: cfg.TagDescription,
		ControlGroupID: cfg.ControlGroupID,
		SeedMemberID:   cfg.SeedMemberID,
		TeamFilter:     cfg.TeamFilter,
		Parallelism:    cfg.SyncParallelism,
		CreateSettle:   cfg.TagCreateSettle,
		DeleteSettle:   cfg.TagDeleteSettle,
		SettleTimeout:  cfg.SettleTimeout,
	}, dirClient, reportRepo, uow, eventBus)
	offboardSvc := offboard.NewService(dirClient, mailClient, reportRepo, uow, eventBus)
	deploySvc := deploy.NewService(uow, markerRepo, eventBus)
	reportSvc := report.NewService(reportRepo)

	h := handler.New(syncSvc, offboardSvc, deploySvc, reportSvc, log)
	router := httpapi.NewRouter(h, log)

	// A manual sync run holds the response open across settle waits, so the
	// write timeout must cover several settle windows.
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	if cfg.SyncInterval > 0 {
		go runSyncLoop(ctx, cfg.SyncInterval, syncSvc, log)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

func runSyncLoop(ctx context.Context, interval time.Duration, svc tagsync.Service, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancelRun := context.WithTimeout(ctx, interval)
			run, err := svc.SyncAll(runCtx)
			cancelRun()
			if err != nil {
				log.Error("scheduled sync failed", zap.Error(err))
				continue
			}
			log.Info("scheduled sync finished",
				zap.String("run_id", run.ID),
				zap.Int("teams_total", run.TeamsTotal),
				zap.Int("teams_failed", run.TeamsFailed),
			)
		}
	}
}
