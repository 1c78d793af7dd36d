package staging

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// retentionTargets maps purgeable tables to the column the cutoff applies to.
// Dimension and mart tables are excluded: they are small and rebuilt in full.
var retentionTargets = map[string]string{
	"stg_asignaciones":       "fecha_asignacion",
	"stg_trandeuda":          "fecha_proceso",
	"stg_pagos":              "fecha_pago",
	"stg_voicebot_gestiones": "date",
	"stg_mibotair_gestiones": "date",
}

// PurgeOldRows deletes staged rows older than the retention period.
// Returns rows deleted per table.
func (c *Client) PurgeOldRows(ctx context.Context, retention time.Duration) (map[string]int64, error) {
	cutoff := time.Now().Add(-retention)
	deleted := make(map[string]int64, len(retentionTargets))

	for table, column := range retentionTargets {
		query := fmt.Sprintf("DELETE FROM %s WHERE %s < $1", table, column)
		tag, err := c.GetExecutor(ctx).Exec(ctx, query, cutoff)
		if err != nil {
			return deleted, fmt.Errorf("purge %s: %w", table, err)
		}
		if n := tag.RowsAffected(); n > 0 {
			c.Logger.Info("Purged old staged rows",
				zap.String("table", table),
				zap.Int64("rows", n),
				zap.Time("cutoff", cutoff))
		}
		deleted[table] = tag.RowsAffected()
	}
	return deleted, nil
}
