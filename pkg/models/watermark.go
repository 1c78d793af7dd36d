package models

import "time"

// ExtractionStatus is the terminal (or in-flight) state of the last extraction
// attempt recorded on a watermark row.
type ExtractionStatus string

const (
	StatusSuccess ExtractionStatus = "success"
	StatusFailed  ExtractionStatus = "failed"
	StatusRunning ExtractionStatus = "running"
)

// Watermark tracks incremental-extraction progress for one source table.
// There is at most one row per table; LastExtractedAt is nil until the first
// successful extraction and never moves backwards afterwards.
type Watermark struct {
	TableName        string           `json:"table_name"`
	LastExtractedAt  *time.Time       `json:"last_extracted_at,omitempty"`
	Status           ExtractionStatus `json:"last_extraction_status"`
	RecordsExtracted int64            `json:"records_extracted"`
	DurationSeconds  float64          `json:"extraction_duration_seconds"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	ExtractionID     string           `json:"extraction_id,omitempty"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// WatermarkStatus is an aggregate health snapshot over all watermark rows.
type WatermarkStatus struct {
	Healthy    int          `json:"healthy"`
	Failed     int          `json:"failed"`
	Running    int          `json:"running"`
	Watermarks []*Watermark `json:"watermarks"`
}
