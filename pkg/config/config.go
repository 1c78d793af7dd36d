package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pulso-data/pulso-etl/pkg/utils"
)

// ExtractionMode selects how the source range is derived for a table.
type ExtractionMode string

const (
	// ModeIncremental extracts rows newer than the stored watermark.
	ModeIncremental ExtractionMode = "incremental"
	// ModeFullRefresh re-extracts the entire table on every run.
	ModeFullRefresh ExtractionMode = "full_refresh"
)

// TableConfig describes one extractable source table.
type TableConfig struct {
	Name            string         `yaml:"name"`
	QueryName       string         `yaml:"query_name"`
	StagingTable    string         `yaml:"staging_table"`
	Mode            ExtractionMode `yaml:"mode"`
	TimestampColumn string         `yaml:"timestamp_column"`
	NaturalKeys     []string       `yaml:"natural_keys"`
	Columns         []string       `yaml:"columns"`
	LookbackDays    int            `yaml:"lookback_days"`
	BatchSize       int            `yaml:"batch_size"`
	Priority        int            `yaml:"priority"`
}

// Incremental reports whether the table uses watermark-driven ranges.
func (t *TableConfig) Incremental() bool { return t.Mode == ModeIncremental }

// Validate checks structural requirements before a config is registered.
func (t *TableConfig) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table config missing name")
	}
	if t.StagingTable == "" {
		return fmt.Errorf("table %s: missing staging_table", t.Name)
	}
	if len(t.NaturalKeys) == 0 {
		return fmt.Errorf("table %s: missing natural_keys", t.Name)
	}
	if t.Incremental() && t.TimestampColumn == "" {
		return fmt.Errorf("table %s: incremental mode requires timestamp_column", t.Name)
	}
	if t.BatchSize <= 0 {
		return fmt.Errorf("table %s: batch_size must be positive", t.Name)
	}
	for _, k := range t.NaturalKeys {
		if !contains(t.Columns, k) {
			return fmt.Errorf("table %s: natural key %s not in columns", t.Name, k)
		}
	}
	return nil
}

// Config holds everything the pipeline needs for one run.
type Config struct {
	Tables   map[string]*TableConfig
	Parallel int
	Lookback time.Duration
}

// New builds the default configuration from the built-in table registry,
// applies env overrides, then merges an optional YAML override file pointed
// to by ETL_CONFIG_FILE.
func New() (*Config, error) {
	c := &Config{
		Tables:   defaultTables(),
		Parallel: utils.EnvInt("ETL_PARALLEL_WORKERS", 3),
		Lookback: utils.EnvDuration("ETL_LOOKBACK", 7*24*time.Hour),
	}
	if path := utils.Env("ETL_CONFIG_FILE", ""); path != "" {
		if err := c.mergeFile(path); err != nil {
			return nil, fmt.Errorf("loading config overrides: %w", err)
		}
	}
	for name, tc := range c.Tables {
		if tc.Name == "" {
			tc.Name = name
		}
		if err := tc.Validate(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type fileOverrides struct {
	Parallel int                     `yaml:"parallel"`
	Tables   map[string]*TableConfig `yaml:"tables"`
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var ov fileOverrides
	if err := yaml.Unmarshal(raw, &ov); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if ov.Parallel > 0 {
		c.Parallel = ov.Parallel
	}
	for name, tc := range ov.Tables {
		base, ok := c.Tables[name]
		if !ok {
			return fmt.Errorf("override for unknown table %s", name)
		}
		if tc.BatchSize > 0 {
			base.BatchSize = tc.BatchSize
		}
		if tc.LookbackDays > 0 {
			base.LookbackDays = tc.LookbackDays
		}
		if tc.Priority != 0 {
			base.Priority = tc.Priority
		}
	}
	return nil
}

// Table returns the config for a registered table.
func (c *Config) Table(name string) (*TableConfig, error) {
	tc, ok := c.Tables[name]
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", name)
	}
	return tc, nil
}

// TableNames returns all registered table names ordered by priority, then name.
func (c *Config) TableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for name := range c.Tables {
		names = append(names, name)
	}
	sortByPriority(names, c.Tables)
	return names
}

func sortByPriority(names []string, tables map[string]*TableConfig) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0; j-- {
			a, b := tables[names[j-1]], tables[names[j]]
			if a.Priority < b.Priority || (a.Priority == b.Priority && names[j-1] < names[j]) {
				break
			}
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
