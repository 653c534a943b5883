package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunIDFormat is the timestamp layout used to key one execution's evidence.
// Lexicographic order of run ids follows wall-clock order.
const RunIDFormat = "20060102_150405"

// Paths holds every filesystem location for one run, resolved once at
// startup and threaded through stage constructors. Evidence from prior runs
// is never overwritten: all per-run files carry the run id.
type Paths struct {
	RunID string

	// EvidenceDir is the root output directory shared across runs.
	EvidenceDir string
	// LogsDir, TablesDir and MetadataDir are the per-category subdirectories,
	// mirroring the evidence layout of the reference pipeline.
	LogsDir     string
	TablesDir   string
	MetadataDir string
}

// NewPaths resolves the per-run path set under dir using now as run key.
func NewPaths(dir string, now time.Time) *Paths {
	runID := now.Format(RunIDFormat)
	return &Paths{
		RunID:       runID,
		EvidenceDir: dir,
		LogsDir:     filepath.Join(dir, "logs"),
		TablesDir:   filepath.Join(dir, "tables"),
		MetadataDir: filepath.Join(dir, "metadata"),
	}
}

// EnsureDirectories creates every output directory if absent.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.EvidenceDir, p.LogsDir, p.TablesDir, p.MetadataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// RunLogPath is the forensic log file for this run.
func (p *Paths) RunLogPath() string {
	return filepath.Join(p.LogsDir, fmt.Sprintf("run_%s.log", p.RunID))
}

// SummaryPath is the human-readable summary report.
func (p *Paths) SummaryPath() string {
	return filepath.Join(p.EvidenceDir, fmt.Sprintf("summary_%s.txt", p.RunID))
}

// TablePath returns the per-run path of a machine-readable table.
func (p *Paths) TablePath(name, ext string) string {
	return filepath.Join(p.TablesDir, fmt.Sprintf("%s_%s.%s", name, p.RunID, ext))
}

// MetadataPath is the provenance record for this run.
func (p *Paths) MetadataPath() string {
	return filepath.Join(p.MetadataDir, fmt.Sprintf("run_%s.json", p.RunID))
}

// WorkbookPath is the optional consolidated xlsx artifact.
func (p *Paths) WorkbookPath() string {
	return filepath.Join(p.EvidenceDir, fmt.Sprintf("evidence_%s.xlsx", p.RunID))
}
