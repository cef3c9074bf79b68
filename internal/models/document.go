// Package models defines the domain types shared across mdxfix packages.
package models

import "time"

// DocumentMeta is a lightweight representation returned by list operations.
type DocumentMeta struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status classifies the outcome of one operation on one document.
type Status string

const (
	StatusUpdated Status = "updated"
	StatusSkipped Status = "skipped"
	StatusWarning Status = "warning"
)

// Result is the outcome of applying an operation to a single document.
type Result struct {
	Path           string `json:"path"`
	Operation      string `json:"operation"`
	Status         Status `json:"status"`
	Message        string `json:"message,omitempty"`
	ChecksumBefore string `json:"checksum_before,omitempty"`
	ChecksumAfter  string `json:"checksum_after,omitempty"`
	DryRun         bool   `json:"dry_run,omitempty"`
}

// Summary aggregates the results of one pass over a set of documents.
type Summary struct {
	RunID     string   `json:"run_id,omitempty"`
	Operation string   `json:"operation"`
	Total     int      `json:"total"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Warned    int      `json:"warned"`
	Results   []Result `json:"results,omitempty"`
}

// Add counts r into the summary.
func (s *Summary) Add(r Result) {
	s.Total++
	switch r.Status {
	case StatusUpdated:
		s.Updated++
	case StatusSkipped:
		s.Skipped++
	case StatusWarning:
		s.Warned++
	}
	s.Results = append(s.Results, r)
}
