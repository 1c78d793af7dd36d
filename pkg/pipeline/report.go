package pipeline

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/pulso-data/pulso-etl/pkg/extractor"
)

// TableResult is the outcome of one table inside a run.
type TableResult struct {
	Table     string          `json:"table"`
	State     TableState      `json:"state"`
	Range     extractor.Range `json:"range"`
	Extracted int64           `json:"extracted"`
	Loaded    int64           `json:"loaded"`
	Skipped   int64           `json:"skipped"`
	Duration  time.Duration   `json:"duration"`
	Error     string          `json:"error,omitempty"`
}

// RunReport summarizes one pipeline pass.
type RunReport struct {
	RunID        string                  `json:"run_id"`
	RangeUpper   time.Time               `json:"range_upper"`
	StartedAt    time.Time               `json:"started_at"`
	Duration     time.Duration           `json:"duration"`
	Succeeded    int                     `json:"succeeded"`
	Failed       int                     `json:"failed"`
	TotalRecords int64                   `json:"total_records"`
	Tables       map[string]*TableResult `json:"tables"`
}

// Ok reports whether every table in the run succeeded.
func (r *RunReport) Ok() bool { return r.Failed == 0 }

func buildReport(runID string, rangeUpper time.Time, tables []string, results *xsync.MapOf[string, *TableResult]) *RunReport {
	report := &RunReport{
		RunID:      runID,
		RangeUpper: rangeUpper,
		StartedAt:  rangeUpper,
		Tables:     make(map[string]*TableResult, len(tables)),
	}
	var maxDuration time.Duration
	for _, name := range tables {
		res, ok := results.Load(name)
		if !ok {
			res = &TableResult{Table: name, State: StateFailed, Error: "no result recorded"}
		}
		report.Tables[name] = res
		if res.State == StateSuccess {
			report.Succeeded++
			report.TotalRecords += res.Extracted
		} else {
			report.Failed++
		}
		if res.Duration > maxDuration {
			maxDuration = res.Duration
		}
	}
	report.Duration = maxDuration
	return report
}
