package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pulso-data/pulso-etl/pkg/config"
	"github.com/pulso-data/pulso-etl/pkg/models"
)

func incrementalTable() *config.TableConfig {
	return &config.TableConfig{
		Name:            "pagos",
		Mode:            config.ModeIncremental,
		TimestampColumn: "fecha_archivo",
		LookbackDays:    7,
	}
}

func TestDeriveRange_NoWatermarkUsesLookback(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	rng := DeriveRange(incrementalTable(), nil, now, false)
	assert.False(t, rng.FullRefresh)
	assert.Equal(t, now.AddDate(0, 0, -7), rng.From)
	assert.Equal(t, now, rng.To)
}

func TestDeriveRange_WatermarkWins(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	last := now.Add(-3 * time.Hour)
	wm := &models.Watermark{TableName: "pagos", LastExtractedAt: &last}

	rng := DeriveRange(incrementalTable(), wm, now, false)
	assert.Equal(t, last, rng.From)
	assert.Equal(t, now, rng.To)
}

func TestDeriveRange_NilTimestampFallsBack(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	wm := &models.Watermark{TableName: "pagos"}

	rng := DeriveRange(incrementalTable(), wm, now, false)
	assert.Equal(t, now.AddDate(0, 0, -7), rng.From)
}

func TestDeriveRange_ForceIgnoresWatermark(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	last := now.Add(-time.Hour)
	wm := &models.Watermark{TableName: "pagos", LastExtractedAt: &last}

	rng := DeriveRange(incrementalTable(), wm, now, true)
	assert.Equal(t, now.AddDate(0, 0, -7), rng.From)
}

func TestDeriveRange_FullRefreshTable(t *testing.T) {
	tc := &config.TableConfig{Name: "ejecutivos", Mode: config.ModeFullRefresh}
	now := time.Now()
	last := now.Add(-time.Hour)

	rng := DeriveRange(tc, &models.Watermark{LastExtractedAt: &last}, now, false)
	assert.True(t, rng.FullRefresh)
	assert.Equal(t, "1=1", rng.Filter(""))
}

func TestRangeFilter(t *testing.T) {
	rng := Range{
		From: time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	assert.Equal(t,
		"fecha_archivo >= '2025-06-08 12:00:00' AND fecha_archivo < '2025-06-15 12:00:00'",
		rng.Filter("fecha_archivo"))
}
