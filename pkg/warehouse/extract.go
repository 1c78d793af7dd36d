package warehouse

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Row is one extracted record keyed by source column name.
type Row map[string]interface{}

// BatchFunc receives one batch of extracted rows. Returning an error
// aborts the extraction.
type BatchFunc func(ctx context.Context, rows []Row) error

// Extract streams the result of a source query in batches of batchSize.
// Rows are materialized generically from the driver's column types, so one
// code path serves every configured table.
func (c *Client) Extract(ctx context.Context, query string, batchSize int, fn BatchFunc) (int64, error) {
	rows, err := c.Query(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("extract query: %w", err)
	}
	defer rows.Close()

	columns := rows.Columns()
	types := rows.ColumnTypes()

	var total int64
	batch := make([]Row, 0, batchSize)

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		dest := make([]interface{}, len(types))
		for i, t := range types {
			dest[i] = reflect.New(t.ScanType()).Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return total, fmt.Errorf("scan row %d: %w", total, err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = reflect.ValueOf(dest[i]).Elem().Interface()
		}
		batch = append(batch, row)
		total++

		if len(batch) >= batchSize {
			if err := fn(ctx, batch); err != nil {
				return total, err
			}
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return total, fmt.Errorf("extract rows: %w", err)
	}

	if len(batch) > 0 {
		if err := fn(ctx, batch); err != nil {
			return total, err
		}
	}

	c.Logger.Debug("Extraction stream complete", zap.Int64("rows", total))
	return total, nil
}

// Count returns the number of rows a source query would extract.
func (c *Client) Count(ctx context.Context, query string) (uint64, error) {
	var count uint64
	wrapped := fmt.Sprintf("SELECT count() FROM (%s)", query)
	if err := c.QueryRow(ctx, wrapped).Scan(&count); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return count, nil
}
