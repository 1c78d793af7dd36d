package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsAreValid(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Len(t, cfg.Tables, 9)
	assert.Equal(t, 3, cfg.Parallel)

	for _, tc := range cfg.Tables {
		assert.NoError(t, tc.Validate(), tc.Name)
	}
}

func TestTable_Unknown(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	_, err = cfg.Table("no_such_table")
	assert.Error(t, err)
}

func TestTableConfig_Validate(t *testing.T) {
	tc := &TableConfig{
		Name:         "x",
		StagingTable: "stg_x",
		Mode:         ModeIncremental,
		NaturalKeys:  []string{"id"},
		Columns:      []string{"id", "value"},
		BatchSize:    100,
	}
	// Incremental without a timestamp column must fail.
	assert.Error(t, tc.Validate())

	tc.TimestampColumn = "updated_at"
	assert.NoError(t, tc.Validate())

	tc.NaturalKeys = []string{"missing"}
	assert.Error(t, tc.Validate())

	tc.NaturalKeys = nil
	assert.Error(t, tc.Validate())
}

func TestTableNames_PriorityOrder(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	names := cfg.TableNames()
	require.Len(t, names, 9)
	// Calendario defines the campaign windows everything joins against.
	assert.Equal(t, TableCalendario, names[0])

	for i := 1; i < len(names); i++ {
		prev, cur := cfg.Tables[names[i-1]], cfg.Tables[names[i]]
		assert.GreaterOrEqual(t, prev.Priority, cur.Priority)
	}
}

func TestNew_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
parallel: 5
tables:
  pagos:
    batch_size: 12345
    lookback_days: 14
`), 0o600))

	t.Setenv("ETL_CONFIG_FILE", path)
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Parallel)
	pagos, err := cfg.Table(TablePagos)
	require.NoError(t, err)
	assert.Equal(t, 12345, pagos.BatchSize)
	assert.Equal(t, 14, pagos.LookbackDays)
}

func TestNew_UnknownOverrideFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tables:
  nope:
    batch_size: 1
`), 0o600))

	t.Setenv("ETL_CONFIG_FILE", path)
	_, err := New()
	assert.Error(t, err)
}
