package domain

import (
	"time"
)

// TemporalOrderProof captures the state of the timestamp axis at one point
// in the pipeline. It is taken both before and after sorting so the two can
// be compared for audit: min/max must be unchanged by a sort, only order and
// the monotonicity verdict may differ.
type TemporalOrderProof struct {
	Min            time.Time `json:"min"`
	Max            time.Time `json:"max"`
	DuplicateCount int       `json:"duplicate_count"`
	Monotonic      bool      `json:"monotonic"`
}

// CanonicalizationReport is the full ordering evidence for one run.
type CanonicalizationReport struct {
	Column   string             `json:"column"`
	Rows     int                `json:"rows"`
	Before   TemporalOrderProof `json:"before"`
	After    TemporalOrderProof `json:"after"`
	SortedAt time.Time          `json:"sorted_at"`
}
