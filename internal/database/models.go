package database

import (
	"database/sql"
	"time"
)

// RunStatus represents the outcome of a pipeline run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded invocation of the pipeline
type Run struct {
	ID           string     `json:"id"`
	Query        string     `json:"query"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Status       RunStatus  `json:"status"`
	MessageCount int        `json:"message_count"`
	ErrorCount   int        `json:"error_count"`
	PhoneCount   int        `json:"phone_count"`
	Truncated    bool       `json:"truncated"`
	OutputPath   *string    `json:"output_path,omitempty"`
	Failure      *string    `json:"failure,omitempty"`
}

// Duration returns how long the run took, zero while it is running
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// NullString is a helper to convert *string to sql.NullString
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr converts sql.NullString to *string
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// TimePtr converts sql.NullTime to *time.Time
func TimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Time
}
