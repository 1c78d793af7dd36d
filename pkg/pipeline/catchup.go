package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Resetter extends the watermark store with the reset operation the
// catch-up path needs.
type Resetter interface {
	Reset(ctx context.Context, tableName string) error
}

// CatchUp re-extracts the named tables from scratch: watermarks are reset
// so the next range derivation falls back to the full lookback window, then
// a forced run covers them. Used after campaign reopenings or source
// backfills that rewrite history beyond the normal lookback.
func (p *Pipeline) CatchUp(ctx context.Context, resetter Resetter, tables []string) (*RunReport, error) {
	if len(tables) == 0 {
		tables = p.Config.TableNames()
	}
	for _, name := range tables {
		if _, err := p.Config.Table(name); err != nil {
			return nil, err
		}
		if err := resetter.Reset(ctx, name); err != nil {
			return nil, fmt.Errorf("catch-up reset %s: %w", name, err)
		}
	}
	p.Logger.Info("Catch-up re-extraction starting", zap.Strings("tables", tables))
	return p.Run(ctx, RunOptions{Tables: tables, Force: true})
}
