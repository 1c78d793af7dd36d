package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/pulso-data/pulso-etl/pkg/config"
	"github.com/pulso-data/pulso-etl/pkg/extractor"
	"github.com/pulso-data/pulso-etl/pkg/loader"
	"github.com/pulso-data/pulso-etl/pkg/models"
	"github.com/pulso-data/pulso-etl/pkg/warehouse"
)

// TableState is the lifecycle of a single table inside one run.
type TableState string

const (
	StatePending         TableState = "pending"
	StateExtracting      TableState = "extracting"
	StateLoading         TableState = "loading"
	StateWatermarkUpdate TableState = "watermark_update"
	StateSuccess         TableState = "success"
	StateFailed          TableState = "failed"
)

// WatermarkStore is the subset of the watermark store the pipeline needs.
type WatermarkStore interface {
	Ensure(ctx context.Context, tableName string) error
	Get(ctx context.Context, tableName string) (*models.Watermark, error)
	MarkRunning(ctx context.Context, tableName, extractionID string) error
	RecordSuccess(ctx context.Context, tableName string, extractedAt time.Time, records int64, duration time.Duration, extractionID string) error
	RecordFailure(ctx context.Context, tableName, errMsg string, duration time.Duration, extractionID string) error
}

// TableExtractor streams table rows for a derived range.
type TableExtractor interface {
	Extract(ctx context.Context, tc *config.TableConfig, rng extractor.Range, fn warehouse.BatchFunc) (int64, error)
}

// TableLoader lands extracted batches into staging.
type TableLoader interface {
	Load(ctx context.Context, tc *config.TableConfig, rows []warehouse.Row) (loader.Result, error)
	Truncate(ctx context.Context, tc *config.TableConfig) error
}

// Pipeline runs incremental extractions for the configured tables with
// bounded parallelism. Tables fail independently: one table's error never
// aborts the rest of the run.
type Pipeline struct {
	Logger     *zap.Logger
	Config     *config.Config
	Extractor  TableExtractor
	Loader     TableLoader
	Watermarks WatermarkStore

	pool pond.Pool
}

// New wires a pipeline from its parts.
func New(logger *zap.Logger, cfg *config.Config, ext TableExtractor, ld TableLoader, wms WatermarkStore) *Pipeline {
	return &Pipeline{
		Logger:     logger,
		Config:     cfg,
		Extractor:  ext,
		Loader:     ld,
		Watermarks: wms,
		pool:       pond.NewPool(cfg.Parallel, pond.WithQueueSize(len(cfg.Tables)+1)),
	}
}

// RunOptions selects what one run covers.
type RunOptions struct {
	// Tables restricts the run; empty means every configured table.
	Tables []string
	// Force discards watermarks and re-extracts the lookback window.
	Force bool
}

// Run executes one pipeline pass and reports per-table outcomes. The upper
// range bound is captured once so every table shares it; anything landing
// in the source after this instant belongs to the next run.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	runID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.New(rand.NewSource(time.Now().UnixNano()))).String()
	now := time.Now().UTC()

	tables := opts.Tables
	if len(tables) == 0 {
		tables = p.Config.TableNames()
	}

	p.Logger.Info("Pipeline run starting",
		zap.String("run_id", runID),
		zap.Strings("tables", tables),
		zap.Bool("force", opts.Force),
		zap.Time("range_upper", now))

	results := xsync.NewMapOf[string, *TableResult]()
	group := p.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for _, name := range tables {
		tc, err := p.Config.Table(name)
		if err != nil {
			results.Store(name, &TableResult{Table: name, State: StateFailed, Error: err.Error()})
			continue
		}
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				results.Store(tc.Name, &TableResult{Table: tc.Name, State: StateFailed, Error: err.Error()})
				return
			}
			results.Store(tc.Name, p.runTable(groupCtx, tc, runID, now, opts.Force))
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		p.Logger.Warn("Pipeline group finished with error", zap.String("run_id", runID), zap.Error(err))
	}

	report := buildReport(runID, now, tables, results)
	p.Logger.Info("Pipeline run finished",
		zap.String("run_id", runID),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int64("records", report.TotalRecords),
		zap.Duration("duration", report.Duration))
	return report, ctx.Err()
}

// runTable drives one table through the extraction lifecycle.
func (p *Pipeline) runTable(ctx context.Context, tc *config.TableConfig, runID string, now time.Time, force bool) *TableResult {
	started := time.Now()
	res := &TableResult{Table: tc.Name, State: StatePending}

	fail := func(stage string, err error) *TableResult {
		res.State = StateFailed
		res.Error = fmt.Sprintf("%s: %v", stage, err)
		res.Duration = time.Since(started)
		p.Logger.Error("Table extraction failed",
			zap.String("run_id", runID),
			zap.String("table", tc.Name),
			zap.String("stage", stage),
			zap.Error(err))
		if wmErr := p.Watermarks.RecordFailure(ctx, tc.Name, res.Error, res.Duration, runID); wmErr != nil {
			p.Logger.Error("Failed to record watermark failure",
				zap.String("table", tc.Name), zap.Error(wmErr))
		}
		return res
	}

	if err := p.Watermarks.Ensure(ctx, tc.Name); err != nil {
		return fail("ensure", err)
	}
	wm, err := p.Watermarks.Get(ctx, tc.Name)
	if err != nil {
		return fail("watermark", err)
	}
	if err := p.Watermarks.MarkRunning(ctx, tc.Name, runID); err != nil {
		return fail("watermark", err)
	}

	rng := extractor.DeriveRange(tc, wm, now, force)
	res.Range = rng

	if rng.FullRefresh {
		if err := p.Loader.Truncate(ctx, tc); err != nil {
			return fail("truncate", err)
		}
	}

	res.State = StateExtracting
	rows, err := p.Extractor.Extract(ctx, tc, rng, func(batchCtx context.Context, batch []warehouse.Row) error {
		res.State = StateLoading
		lr, loadErr := p.Loader.Load(batchCtx, tc, batch)
		res.Loaded += lr.Loaded
		res.Skipped += lr.Skipped
		return loadErr
	})
	res.Extracted = rows
	if err != nil {
		return fail("extract", err)
	}

	res.State = StateWatermarkUpdate
	res.Duration = time.Since(started)
	if err := p.Watermarks.RecordSuccess(ctx, tc.Name, now, rows, res.Duration, runID); err != nil {
		return fail("watermark", err)
	}

	res.State = StateSuccess
	p.Logger.Info("Table extracted",
		zap.String("run_id", runID),
		zap.String("table", tc.Name),
		zap.Int64("extracted", res.Extracted),
		zap.Int64("loaded", res.Loaded),
		zap.Int64("skipped", res.Skipped),
		zap.Duration("duration", res.Duration))
	return res
}
