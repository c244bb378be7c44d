package core

import "time"

const (
	StatusStripped  = "stripped"
	StatusDegraded  = "degraded"
	StatusSkipped   = "skipped"
	StatusSimulated = "simulated"
	StatusFailed    = "failed"
)

// Report is the stable, JSON-serialisable summary of a run.
type Report struct {
	RunID  string `json:"run_id"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Stats Stats        `json:"stats"`
	Files []FileReport `json:"files"`
}

// FileReport is one file's entry in a Report.
type FileReport struct {
	Path     string   `json:"path"`
	Category Category `json:"category"`
	Output   string   `json:"output,omitempty"`
	Status   string   `json:"status"`
	Items    []string `json:"items"`
	Error    string   `json:"error,omitempty"`
}

// NewReport builds a Report from outcomes in input order. Stats are
// recomputed from outcomes; times are stored in UTC.
func NewReport(runID string, dryRun bool, started, finished time.Time, outcomes []Outcome) Report {
	r := Report{
		RunID:      runID,
		DryRun:     dryRun,
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		Stats:      ComputeStats(outcomes),
		Files:      make([]FileReport, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		fr := FileReport{
			Path:     o.File.Path,
			Category: o.File.Category,
			Output:   o.Output,
			Status:   StatusOf(o),
			Items:    o.Items,
		}
		if fr.Items == nil {
			fr.Items = []string{}
		}
		if o.Err != nil {
			fr.Error = o.Err.Error()
		}
		r.Files = append(r.Files, fr)
	}
	return r
}

// StatusOf returns the report status string for an outcome.
func StatusOf(o Outcome) string {
	switch {
	case o.Err != nil:
		return StatusFailed
	case o.Simulated:
		return StatusSimulated
	case o.Skipped:
		return StatusSkipped
	case o.Degraded:
		return StatusDegraded
	default:
		return StatusStripped
	}
}
