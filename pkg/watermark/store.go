package watermark

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pulso-data/pulso-etl/pkg/models"
	"github.com/pulso-data/pulso-etl/pkg/staging"
)

// Store persists per-table extraction watermarks in the staging database.
// A watermark only ever moves forward on success; failed runs record their
// error without touching the timestamp so the next run re-covers the range.
type Store struct {
	Logger *zap.Logger
	Db     *staging.Client
}

// NewStore returns a watermark store backed by the staging client.
func NewStore(logger *zap.Logger, db *staging.Client) *Store {
	return &Store{Logger: logger, Db: db}
}

// Ensure registers a table with an empty watermark if none exists yet.
func (s *Store) Ensure(ctx context.Context, tableName string) error {
	query := `
		INSERT INTO etl_watermarks (table_name, last_extracted_at, status)
		VALUES ($1, NULL, $2)
		ON CONFLICT (table_name) DO NOTHING
	`
	if err := s.Db.Exec(ctx, query, tableName, models.StatusSuccess); err != nil {
		return fmt.Errorf("ensure watermark %s: %w", tableName, err)
	}
	return nil
}

// Get returns the watermark for a table. The LastExtractedAt pointer is nil
// when the table has never been successfully extracted.
func (s *Store) Get(ctx context.Context, tableName string) (*models.Watermark, error) {
	query := `
		SELECT table_name, last_extracted_at, status, records_extracted,
		       duration_seconds, error_message, extraction_id, updated_at
		FROM etl_watermarks
		WHERE table_name = $1
	`
	var wm models.Watermark
	err := s.Db.QueryRow(ctx, query, tableName).Scan(
		&wm.TableName,
		&wm.LastExtractedAt,
		&wm.Status,
		&wm.RecordsExtracted,
		&wm.DurationSeconds,
		&wm.ErrorMessage,
		&wm.ExtractionID,
		&wm.UpdatedAt,
	)
	if err != nil {
		if staging.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get watermark %s: %w", tableName, err)
	}
	return &wm, nil
}

// GetAll returns every stored watermark.
func (s *Store) GetAll(ctx context.Context) ([]*models.Watermark, error) {
	query := `
		SELECT table_name, last_extracted_at, status, records_extracted,
		       duration_seconds, error_message, extraction_id, updated_at
		FROM etl_watermarks
		ORDER BY table_name
	`
	rows, err := s.Db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list watermarks: %w", err)
	}
	defer rows.Close()

	var out []*models.Watermark
	for rows.Next() {
		var wm models.Watermark
		if err := rows.Scan(
			&wm.TableName,
			&wm.LastExtractedAt,
			&wm.Status,
			&wm.RecordsExtracted,
			&wm.DurationSeconds,
			&wm.ErrorMessage,
			&wm.ExtractionID,
			&wm.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan watermark: %w", err)
		}
		out = append(out, &wm)
	}
	return out, rows.Err()
}

// MarkRunning flags a table as being extracted by the given run.
func (s *Store) MarkRunning(ctx context.Context, tableName, extractionID string) error {
	query := `
		INSERT INTO etl_watermarks (table_name, status, extraction_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (table_name) DO UPDATE SET
			status = EXCLUDED.status,
			extraction_id = EXCLUDED.extraction_id,
			error_message = '',
			updated_at = now()
	`
	if err := s.Db.Exec(ctx, query, tableName, models.StatusRunning, extractionID); err != nil {
		return fmt.Errorf("mark running %s: %w", tableName, err)
	}
	return nil
}

// RecordSuccess advances the watermark to extractedAt. The GREATEST guard
// keeps the watermark monotonic even if runs finish out of order.
func (s *Store) RecordSuccess(ctx context.Context, tableName string, extractedAt time.Time, records int64, duration time.Duration, extractionID string) error {
	query := `
		INSERT INTO etl_watermarks
			(table_name, last_extracted_at, status, records_extracted, duration_seconds, error_message, extraction_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, '', $6, now())
		ON CONFLICT (table_name) DO UPDATE SET
			last_extracted_at = GREATEST(COALESCE(etl_watermarks.last_extracted_at, EXCLUDED.last_extracted_at), EXCLUDED.last_extracted_at),
			status = EXCLUDED.status,
			records_extracted = EXCLUDED.records_extracted,
			duration_seconds = EXCLUDED.duration_seconds,
			error_message = '',
			extraction_id = EXCLUDED.extraction_id,
			updated_at = now()
	`
	err := s.Db.Exec(ctx, query,
		tableName, extractedAt, models.StatusSuccess, records, duration.Seconds(), extractionID)
	if err != nil {
		return fmt.Errorf("record success %s: %w", tableName, err)
	}
	s.Logger.Debug("Watermark advanced",
		zap.String("table", tableName),
		zap.Time("last_extracted_at", extractedAt),
		zap.Int64("records", records))
	return nil
}

// RecordFailure records a failed run. The watermark timestamp is left
// untouched so the failed range is re-extracted next run.
func (s *Store) RecordFailure(ctx context.Context, tableName, errMsg string, duration time.Duration, extractionID string) error {
	query := `
		INSERT INTO etl_watermarks
			(table_name, status, duration_seconds, error_message, extraction_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (table_name) DO UPDATE SET
			status = EXCLUDED.status,
			duration_seconds = EXCLUDED.duration_seconds,
			error_message = EXCLUDED.error_message,
			extraction_id = EXCLUDED.extraction_id,
			updated_at = now()
	`
	if err := s.Db.Exec(ctx, query, tableName, models.StatusFailed, duration.Seconds(), errMsg, extractionID); err != nil {
		return fmt.Errorf("record failure %s: %w", tableName, err)
	}
	return nil
}

// Reset clears the timestamp for a table, forcing a full re-extraction on
// the next run.
func (s *Store) Reset(ctx context.Context, tableName string) error {
	query := `
		UPDATE etl_watermarks
		SET last_extracted_at = NULL, status = $2, error_message = '', updated_at = now()
		WHERE table_name = $1
	`
	if err := s.Db.Exec(ctx, query, tableName, models.StatusSuccess); err != nil {
		return fmt.Errorf("reset watermark %s: %w", tableName, err)
	}
	s.Logger.Info("Watermark reset", zap.String("table", tableName))
	return nil
}

// Delete removes a table's watermark entirely.
func (s *Store) Delete(ctx context.Context, tableName string) error {
	if err := s.Db.Exec(ctx, `DELETE FROM etl_watermarks WHERE table_name = $1`, tableName); err != nil {
		return fmt.Errorf("delete watermark %s: %w", tableName, err)
	}
	return nil
}

// Status summarizes all watermarks for operational visibility.
func (s *Store) Status(ctx context.Context) (*models.WatermarkStatus, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	status := &models.WatermarkStatus{Watermarks: all}
	for _, wm := range all {
		switch wm.Status {
		case models.StatusFailed:
			status.Failed++
		case models.StatusRunning:
			status.Running++
		default:
			status.Healthy++
		}
	}
	return status, nil
}

// CleanupStale resets tables stuck in running state longer than maxAge.
// A crashed run leaves its watermark in running forever otherwise.
func (s *Store) CleanupStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	query := `
		UPDATE etl_watermarks
		SET status = $1, error_message = 'extraction abandoned', updated_at = now()
		WHERE status = $2 AND updated_at < $3
	`
	tag, err := s.Db.GetExecutor(ctx).Exec(ctx, query,
		models.StatusFailed, models.StatusRunning, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("cleanup stale watermarks: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		s.Logger.Warn("Reset stale running watermarks", zap.Int64("count", n))
		return n, nil
	}
	return 0, nil
}

// CleanupOrphaned deletes watermarks for tables no longer configured.
func (s *Store) CleanupOrphaned(ctx context.Context, configured []string) (int64, error) {
	query := `DELETE FROM etl_watermarks WHERE NOT (table_name = ANY($1))`
	tag, err := s.Db.GetExecutor(ctx).Exec(ctx, query, configured)
	if err != nil {
		return 0, fmt.Errorf("cleanup orphaned watermarks: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		s.Logger.Info("Deleted orphaned watermarks", zap.Int64("count", n))
		return n, nil
	}
	return 0, nil
}
