package api

import "time"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// State is "ok" after a successful run, "failing" when the latest run
	// failed and "pending" before the first run.
	State          string     `json:"state"`
	Event          string     `json:"event,omitempty"`
	Error          string     `json:"error,omitempty"`
	FromCache      bool       `json:"from_cache"`
	CalculatedAt   *time.Time `json:"calculated_at,omitempty"`
	FileCount      int        `json:"file_count"`
	BibCount       int        `json:"bib_count"`
	SectionCount   int        `json:"section_count"`
	OverlapCount   int        `json:"overlap_count"`
	DuplicateCount int        `json:"duplicate_count"`
	SkippedFiles   int        `json:"skipped_files"`
	AlertCount     int        `json:"alert_count"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
