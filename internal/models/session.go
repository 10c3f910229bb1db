package models

import (
	"time"
)

// RawRow is one data row of an uploaded CSV: 1-based position in the file
// and the column values exactly as parsed, with no type coercion.
type RawRow struct {
	Index  int               `json:"index"`
	Values map[string]string `json:"values"`
}

// RowError is a single field-level validation failure tied to a CSV row.
type RowError struct {
	Row     int    `json:"row_index"`
	Field   string `json:"field"`
	Message string `json:"error"`
}

// ValidationSession is the parsed-but-not-yet-imported representation of an
// uploaded CSV. It is import-eligible only once Validated is true.
type ValidationSession struct {
	ID          string    `json:"validation_id"`
	SubmittedBy string    `json:"submitted_by"`
	Rows        []RawRow  `json:"rows"`
	TotalRows   int       `json:"total_rows"`
	Validated   bool      `json:"validated"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ValidationResult is the outcome of running the validation engine over a
// session. Valid is true iff ErrorCount is zero.
type ValidationResult struct {
	Valid      bool       `json:"valid"`
	TotalRows  int        `json:"total_rows"`
	ErrorCount int        `json:"error_count"`
	Errors     []RowError `json:"errors"`
}
