package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pulso-data/pulso-etl/pkg/config"
	"github.com/pulso-data/pulso-etl/pkg/extractor"
	"github.com/pulso-data/pulso-etl/pkg/loader"
	"github.com/pulso-data/pulso-etl/pkg/models"
	"github.com/pulso-data/pulso-etl/pkg/warehouse"
)

// MockWatermarks is a mock implementation of WatermarkStore for testing
type MockWatermarks struct {
	mock.Mock
}

func (m *MockWatermarks) Ensure(ctx context.Context, tableName string) error {
	args := m.Called(ctx, tableName)
	return args.Error(0)
}

func (m *MockWatermarks) Get(ctx context.Context, tableName string) (*models.Watermark, error) {
	args := m.Called(ctx, tableName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Watermark), args.Error(1)
}

func (m *MockWatermarks) MarkRunning(ctx context.Context, tableName, extractionID string) error {
	args := m.Called(ctx, tableName, extractionID)
	return args.Error(0)
}

func (m *MockWatermarks) RecordSuccess(ctx context.Context, tableName string, extractedAt time.Time, records int64, duration time.Duration, extractionID string) error {
	args := m.Called(ctx, tableName, extractedAt, records, duration, extractionID)
	return args.Error(0)
}

func (m *MockWatermarks) RecordFailure(ctx context.Context, tableName, errMsg string, duration time.Duration, extractionID string) error {
	args := m.Called(ctx, tableName, errMsg, duration, extractionID)
	return args.Error(0)
}

func (m *MockWatermarks) Reset(ctx context.Context, tableName string) error {
	args := m.Called(ctx, tableName)
	return args.Error(0)
}

// MockExtractor is a mock implementation of TableExtractor for testing
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, tc *config.TableConfig, rng extractor.Range, fn warehouse.BatchFunc) (int64, error) {
	args := m.Called(ctx, tc, rng, fn)
	return args.Get(0).(int64), args.Error(1)
}

// MockLoader is a mock implementation of TableLoader for testing
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, tc *config.TableConfig, rows []warehouse.Row) (loader.Result, error) {
	args := m.Called(ctx, tc, rows)
	return args.Get(0).(loader.Result), args.Error(1)
}

func (m *MockLoader) Truncate(ctx context.Context, tc *config.TableConfig) error {
	args := m.Called(ctx, tc)
	return args.Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		Parallel: 2,
		Tables: map[string]*config.TableConfig{
			"pagos": {
				Name:            "pagos",
				QueryName:       "pagos",
				StagingTable:    "stg_pagos",
				Mode:            config.ModeIncremental,
				TimestampColumn: "fecha_archivo",
				NaturalKeys:     []string{"nro_documento"},
				Columns:         []string{"nro_documento"},
				LookbackDays:    7,
				BatchSize:       100,
				Priority:        70,
			},
			"ejecutivos": {
				Name:         "ejecutivos",
				QueryName:    "ejecutivos",
				StagingTable: "stg_ejecutivos",
				Mode:         config.ModeFullRefresh,
				NaturalKeys:  []string{"correo_name"},
				Columns:      []string{"correo_name"},
				BatchSize:    100,
				Priority:     40,
			},
		},
	}
}

func TestRun_AllTablesSucceed(t *testing.T) {
	wms := new(MockWatermarks)
	ext := new(MockExtractor)
	ld := new(MockLoader)

	wms.On("Ensure", mock.Anything, mock.Anything).Return(nil)
	wms.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
	wms.On("MarkRunning", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	wms.On("RecordSuccess", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ld.On("Truncate", mock.Anything, mock.Anything).Return(nil)
	ext.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(10), nil)

	p := New(zaptest.NewLogger(t), testConfig(), ext, ld, wms)
	report, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.True(t, report.Ok())
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, int64(20), report.TotalRecords)
	assert.NotEmpty(t, report.RunID)

	for _, res := range report.Tables {
		assert.Equal(t, StateSuccess, res.State)
	}

	// Every table advances its watermark to the shared upper bound.
	wms.AssertNumberOfCalls(t, "RecordSuccess", 2)
	for _, call := range wms.Calls {
		if call.Method == "RecordSuccess" {
			assert.Equal(t, report.RangeUpper, call.Arguments.Get(2).(time.Time))
		}
	}
}

func TestRun_TableFailureIsIsolated(t *testing.T) {
	wms := new(MockWatermarks)
	ext := new(MockExtractor)
	ld := new(MockLoader)

	wms.On("Ensure", mock.Anything, mock.Anything).Return(nil)
	wms.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
	wms.On("MarkRunning", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	wms.On("RecordSuccess", mock.Anything, "ejecutivos", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	wms.On("RecordFailure", mock.Anything, "pagos", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ld.On("Truncate", mock.Anything, mock.Anything).Return(nil)

	ext.On("Extract", mock.Anything, mock.MatchedBy(func(tc *config.TableConfig) bool {
		return tc.Name == "pagos"
	}), mock.Anything, mock.Anything).Return(int64(0), errors.New("warehouse timeout"))
	ext.On("Extract", mock.Anything, mock.MatchedBy(func(tc *config.TableConfig) bool {
		return tc.Name == "ejecutivos"
	}), mock.Anything, mock.Anything).Return(int64(5), nil)

	p := New(zaptest.NewLogger(t), testConfig(), ext, ld, wms)
	report, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.False(t, report.Ok())
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, StateFailed, report.Tables["pagos"].State)
	assert.Contains(t, report.Tables["pagos"].Error, "warehouse timeout")
	assert.Equal(t, StateSuccess, report.Tables["ejecutivos"].State)

	wms.AssertCalled(t, "RecordFailure", mock.Anything, "pagos", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_FullRefreshTruncatesFirst(t *testing.T) {
	wms := new(MockWatermarks)
	ext := new(MockExtractor)
	ld := new(MockLoader)

	wms.On("Ensure", mock.Anything, mock.Anything).Return(nil)
	wms.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
	wms.On("MarkRunning", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	wms.On("RecordSuccess", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ld.On("Truncate", mock.Anything, mock.Anything).Return(nil)
	ext.On("Extract", mock.Anything, mock.Anything, mock.MatchedBy(func(rng extractor.Range) bool {
		return rng.FullRefresh
	}), mock.Anything).Return(int64(3), nil)

	p := New(zaptest.NewLogger(t), testConfig(), ext, ld, wms)
	report, err := p.Run(context.Background(), RunOptions{Tables: []string{"ejecutivos"}})
	require.NoError(t, err)

	assert.True(t, report.Ok())
	ld.AssertNumberOfCalls(t, "Truncate", 1)
}

func TestRun_LoaderResultsAccumulate(t *testing.T) {
	wms := new(MockWatermarks)
	ext := new(MockExtractor)
	ld := new(MockLoader)

	wms.On("Ensure", mock.Anything, mock.Anything).Return(nil)
	wms.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
	wms.On("MarkRunning", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	wms.On("RecordSuccess", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ld.On("Load", mock.Anything, mock.Anything, mock.Anything).Return(loader.Result{Loaded: 4, Skipped: 1}, nil)

	ext.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			fn := args.Get(3).(warehouse.BatchFunc)
			_ = fn(context.Background(), []warehouse.Row{{"nro_documento": "D1"}})
			_ = fn(context.Background(), []warehouse.Row{{"nro_documento": "D2"}})
		}).
		Return(int64(10), nil)

	p := New(zaptest.NewLogger(t), testConfig(), ext, ld, wms)
	report, err := p.Run(context.Background(), RunOptions{Tables: []string{"pagos"}})
	require.NoError(t, err)

	res := report.Tables["pagos"]
	assert.Equal(t, int64(10), res.Extracted)
	assert.Equal(t, int64(8), res.Loaded)
	assert.Equal(t, int64(2), res.Skipped)
}

func TestRun_UnknownTableFails(t *testing.T) {
	p := New(zaptest.NewLogger(t), testConfig(), new(MockExtractor), new(MockLoader), new(MockWatermarks))
	report, err := p.Run(context.Background(), RunOptions{Tables: []string{"nope"}})
	require.NoError(t, err)

	assert.False(t, report.Ok())
	assert.Equal(t, StateFailed, report.Tables["nope"].State)
}

func TestCatchUp_ResetsBeforeForcedRun(t *testing.T) {
	wms := new(MockWatermarks)
	ext := new(MockExtractor)
	ld := new(MockLoader)

	wms.On("Reset", mock.Anything, "pagos").Return(nil)
	wms.On("Ensure", mock.Anything, mock.Anything).Return(nil)
	wms.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
	wms.On("MarkRunning", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	wms.On("RecordSuccess", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ext.On("Extract", mock.Anything, mock.Anything, mock.MatchedBy(func(rng extractor.Range) bool {
		return !rng.FullRefresh
	}), mock.Anything).Return(int64(2), nil)

	p := New(zaptest.NewLogger(t), testConfig(), ext, ld, wms)
	report, err := p.CatchUp(context.Background(), wms, []string{"pagos"})
	require.NoError(t, err)

	assert.True(t, report.Ok())
	wms.AssertCalled(t, "Reset", mock.Anything, "pagos")
}
