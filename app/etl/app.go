package etl

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pulso-data/pulso-etl/pkg/cache"
	"github.com/pulso-data/pulso-etl/pkg/config"
	"github.com/pulso-data/pulso-etl/pkg/dedup"
	"github.com/pulso-data/pulso-etl/pkg/extractor"
	"github.com/pulso-data/pulso-etl/pkg/loader"
	"github.com/pulso-data/pulso-etl/pkg/logging"
	"github.com/pulso-data/pulso-etl/pkg/mart"
	"github.com/pulso-data/pulso-etl/pkg/pipeline"
	"github.com/pulso-data/pulso-etl/pkg/retry"
	"github.com/pulso-data/pulso-etl/pkg/staging"
	"github.com/pulso-data/pulso-etl/pkg/utils"
	"github.com/pulso-data/pulso-etl/pkg/warehouse"
	"github.com/pulso-data/pulso-etl/pkg/watermark"
)

// App owns every component of the ETL service and drives full runs either
// on demand or on the cron schedule.
type App struct {
	Logger *zap.Logger
	Config *config.Config

	Warehouse  *warehouse.Client
	Staging    *staging.Client
	Watermarks *watermark.Store
	Pipeline   *pipeline.Pipeline
	Dedup      *dedup.Engine
	Mart       *mart.Builder
	Cache      *cache.Client

	Cron     *cron.Cron
	CronSpec string

	retention   time.Duration
	runTimeout  time.Duration
	staleMaxAge time.Duration
}

// Initialize wires the application from environment configuration.
func Initialize(ctx context.Context) (*App, error) {
	logger, err := logging.New()
	if err != nil {
		panic(err)
	}

	cfg, err := config.New()
	if err != nil {
		logger.Fatal("Unable to load configuration", zap.Error(err))
	}

	wh, err := warehouse.New(ctx, logger.Named("warehouse"))
	if err != nil {
		logger.Fatal("Unable to connect to warehouse", zap.Error(err))
	}

	stg, err := staging.New(ctx, logger.Named("staging"), staging.GetPoolConfigForComponent("pipeline"))
	if err != nil {
		logger.Fatal("Unable to connect to staging", zap.Error(err))
	}
	if err := stg.InitSchema(ctx); err != nil {
		logger.Fatal("Unable to initialize staging schema", zap.Error(err))
	}

	wms := watermark.NewStore(logger.Named("watermark"), stg)
	ext := extractor.New(logger.Named("extractor"), wh)
	ld := loader.New(logger.Named("loader"), stg)

	app := &App{
		Logger:      logger,
		Config:      cfg,
		Warehouse:   wh,
		Staging:     stg,
		Watermarks:  wms,
		Pipeline:    pipeline.New(logger.Named("pipeline"), cfg, ext, ld, wms),
		Dedup:       dedup.NewEngine(logger.Named("dedup"), stg),
		Mart:        mart.NewBuilder(logger.Named("mart"), stg),
		CronSpec:    utils.Env("ETL_CRON", "0 */30 * * * *"),
		retention:   utils.EnvDuration("ETL_RETENTION", 400*24*time.Hour),
		runTimeout:  utils.EnvDuration("ETL_RUN_TIMEOUT", 20*time.Minute),
		staleMaxAge: utils.EnvDuration("ETL_STALE_MAX_AGE", 2*time.Hour),
	}

	// Redis is ancillary: without it runs still work, dashboards just lose
	// real-time notifications.
	if utils.EnvBool("REDIS_ENABLED", true) {
		rc, cacheErr := cache.NewClient(ctx, logger.Named("cache"))
		if cacheErr != nil {
			logger.Warn("Redis unavailable, continuing without cache", zap.Error(cacheErr))
		} else {
			app.Cache = rc
		}
	}

	if err := app.SetupScheduler(ctx, cron.DefaultLogger, app.CronSpec); err != nil {
		return nil, err
	}
	return app, nil
}

// RunOnce executes one complete cycle: stale cleanup, extraction, derived
// rebuilds, mart build, retention purge and notifications.
func (a *App) RunOnce(ctx context.Context, opts pipeline.RunOptions) (*pipeline.RunReport, error) {
	if _, err := a.Watermarks.CleanupStale(ctx, a.staleMaxAge); err != nil {
		a.Logger.Warn("Stale watermark cleanup failed", zap.Error(err))
	}
	if _, err := a.Watermarks.CleanupOrphaned(ctx, a.Config.TableNames()); err != nil {
		a.Logger.Warn("Orphaned watermark cleanup failed", zap.Error(err))
	}

	report, err := a.Pipeline.Run(ctx, opts)
	if err != nil {
		return report, err
	}

	today := time.Now().UTC()
	err = retry.WithBackoff(ctx, retry.ShortConfig(), a.Logger, "derived_rebuild", func() error {
		return a.Dedup.RebuildAll(ctx, today)
	})
	if err != nil {
		return report, err
	}
	err = retry.WithBackoff(ctx, retry.ShortConfig(), a.Logger, "mart_build", func() error {
		return a.Mart.BuildAll(ctx, today)
	})
	if err != nil {
		return report, err
	}

	if _, err := a.Staging.PurgeOldRows(ctx, a.retention); err != nil {
		a.Logger.Warn("Retention purge failed", zap.Error(err))
	}

	if a.Cache != nil {
		a.Cache.StoreReport(ctx, report)
		a.Cache.Publish(ctx, cache.ChannelMartRebuilt, today.Format(time.RFC3339))
		if status, statusErr := a.Watermarks.Status(ctx); statusErr == nil {
			a.Cache.StoreWatermarkStatus(ctx, status)
		}
	}
	return report, nil
}

// CatchUp resets watermarks for the given tables and re-extracts them in
// full, then rebuilds everything downstream. Marts are backfilled for every
// day of the campaign windows, not just today, so historical snapshot rows
// get their own cumulative totals.
func (a *App) CatchUp(ctx context.Context, tables []string) (*pipeline.RunReport, error) {
	report, err := a.Pipeline.CatchUp(ctx, a.Watermarks, tables)
	if err != nil {
		return report, err
	}
	today := time.Now().UTC()
	if err := a.Dedup.RebuildAll(ctx, today); err != nil {
		return report, err
	}
	return report, a.Mart.BuildBackfill(ctx, today)
}

// SetupScheduler registers the periodic run on the cron scheduler.
func (a *App) SetupScheduler(ctx context.Context, logger cron.Logger, cronSpec string) error {
	a.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(logger)))

	_, err := a.Cron.AddFunc(cronSpec, func() {
		// keep each run bounded
		rctx, cancel := context.WithTimeout(ctx, a.runTimeout)
		defer cancel()
		if _, err := a.RunOnce(rctx, pipeline.RunOptions{}); err != nil {
			logger.Info("[etl] scheduled run error", "error", err)
		}
	})
	return err
}

// StartCron starts the cron scheduler.
func (a *App) StartCron() {
	a.Cron.Start()
	a.Logger.Info("[etl] Cron started", zap.String("cronSpec", a.CronSpec))
}

// StopCron stops the cron scheduler and waits for in-flight runs.
func (a *App) StopCron() {
	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
}

// Start blocks until the context is cancelled, then shuts down cleanly.
func (a *App) Start(ctx context.Context) {
	<-ctx.Done()
	a.Logger.Info("[etl] shutting down…")
	a.StopCron()
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	_ = a.Warehouse.Close()
	a.Staging.Close()
}
