package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/pulso-data/pulso-etl/pkg/config"
	"github.com/pulso-data/pulso-etl/pkg/staging"
	"github.com/pulso-data/pulso-etl/pkg/warehouse"
)

// Loader lands extracted batches in staging with idempotent upserts.
// Conflicts on a table's natural key update in place, so re-extracting an
// overlapping range never duplicates rows.
type Loader struct {
	Logger *zap.Logger
	Db     *staging.Client
}

// New returns a loader writing to the staging client.
func New(logger *zap.Logger, db *staging.Client) *Loader {
	return &Loader{Logger: logger, Db: db}
}

// Result summarizes one loaded batch.
type Result struct {
	Loaded  int64
	Skipped int64
}

// Load upserts one batch into the table's staging target. Rows with a
// missing or empty natural key value are skipped and logged, never failed:
// one bad source row must not poison the batch.
func (l *Loader) Load(ctx context.Context, tc *config.TableConfig, rows []warehouse.Row) (Result, error) {
	var res Result
	if len(rows) == 0 {
		return res, nil
	}

	query := l.upsertQuery(tc)
	batch := &pgx.Batch{}

	for _, row := range rows {
		if key, ok := missingKey(tc, row); ok {
			l.Logger.Warn("Skipping row with invalid natural key",
				zap.String("table", tc.Name),
				zap.String("key_column", key))
			res.Skipped++
			continue
		}
		args := make([]interface{}, len(tc.Columns))
		for i, col := range tc.Columns {
			args[i] = row[col]
		}
		batch.Queue(query, args...)
	}
	if batch.Len() == 0 {
		return res, nil
	}

	results := l.Db.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return res, fmt.Errorf("upsert into %s: %w", tc.StagingTable, err)
		}
		res.Loaded++
	}
	return res, nil
}

// upsertQuery builds the INSERT ... ON CONFLICT statement for a table.
// Payment sightings additionally bump their counters on conflict so the
// dedup stage can see how often each payment was re-loaded.
func (l *Loader) upsertQuery(tc *config.TableConfig) string {
	cols := strings.Join(tc.Columns, ", ")
	placeholders := make([]string, len(tc.Columns))
	for i := range tc.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	var updates []string
	for _, col := range tc.Columns {
		if contains(tc.NaturalKeys, col) {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	if tc.StagingTable == "stg_pagos" {
		updates = append(updates,
			fmt.Sprintf("veces_visto = %s.veces_visto + 1", tc.StagingTable),
			"ultima_carga = now()")
	}
	updates = append(updates, "loaded_at = now()")

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		tc.StagingTable, cols, strings.Join(placeholders, ", "),
		strings.Join(tc.NaturalKeys, ", "), strings.Join(updates, ", "))
}

// Truncate clears a staging table ahead of a full refresh so rows deleted
// at the source disappear from staging too.
func (l *Loader) Truncate(ctx context.Context, tc *config.TableConfig) error {
	if err := l.Db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", tc.StagingTable)); err != nil {
		return fmt.Errorf("truncate %s: %w", tc.StagingTable, err)
	}
	return nil
}

// missingKey reports the first natural key column that is absent, nil or
// empty in the row.
func missingKey(tc *config.TableConfig, row warehouse.Row) (string, bool) {
	for _, key := range tc.NaturalKeys {
		v, ok := row[key]
		if !ok || v == nil {
			return key, true
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return key, true
		}
	}
	return "", false
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
