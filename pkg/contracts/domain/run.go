package domain

import (
	"time"
)

// ProbeResult is one best-effort environment observation. Value is the
// literal "unavailable" marker when collection failed; collection failures
// never abort a run.
type ProbeResult struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Unavailable is the recorded value for a probe that could not be collected.
const Unavailable = "unavailable"

// RunMetadata is the provenance record written at the end of a run. It is
// keyed by RunID and chains runs together through the input hashes and the
// paths of every artifact produced. Written once, never mutated.
type RunMetadata struct {
	RunID        string            `json:"run_id"`
	TimestampUTC time.Time         `json:"timestamp_utc"`
	Version      string            `json:"version"`
	Environment  []ProbeResult     `json:"environment"`
	InputHashes  map[string]string `json:"input_hashes"`
	Rows         int               `json:"rows"`
	Cols         int               `json:"cols"`
	LoadSec      float64           `json:"load_time_s"`
	ElapsedSec   float64           `json:"elapsed_s"`
	Outputs      map[string]string `json:"outputs"`
	Success      bool              `json:"success"`
}
