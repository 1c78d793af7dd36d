package extractor

import (
	"fmt"
	"time"

	"github.com/pulso-data/pulso-etl/pkg/config"
	"github.com/pulso-data/pulso-etl/pkg/models"
)

// Range is the half-open interval [From, To) one extraction covers.
// FullRefresh ranges ignore the interval and re-extract everything.
type Range struct {
	From        time.Time
	To          time.Time
	FullRefresh bool
}

// Filter renders the range as a SQL predicate over the timestamp column.
func (r Range) Filter(column string) string {
	if r.FullRefresh {
		return "1=1"
	}
	const layout = "2006-01-02 15:04:05"
	return fmt.Sprintf("%s >= '%s' AND %s < '%s'",
		column, r.From.UTC().Format(layout),
		column, r.To.UTC().Format(layout))
}

// DeriveRange computes the extraction range for one table. now is captured
// once per run by the caller so every table in the run shares the same
// upper bound. force discards the stored watermark and falls back to the
// lookback window.
func DeriveRange(tc *config.TableConfig, wm *models.Watermark, now time.Time, force bool) Range {
	if !tc.Incremental() {
		return Range{FullRefresh: true}
	}

	lookback := time.Duration(tc.LookbackDays) * 24 * time.Hour
	from := now.Add(-lookback)
	if !force && wm != nil && wm.LastExtractedAt != nil {
		from = *wm.LastExtractedAt
	}
	return Range{From: from, To: now}
}
