package infrastructure

import (
	"context"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"meteoval/pkg/contracts"
	"meteoval/pkg/contracts/domain"
)

// EnvironmentProbe collects best-effort provenance about the machine a run
// executed on. Collection is never allowed to fail a run: any probe that
// errors records the literal "unavailable" value instead.
type EnvironmentProbe interface {
	Collect(ctx context.Context) []domain.ProbeResult
}

// CommandRunner abstracts external process invocation so probes can be
// tested without the underlying tools installed.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// execRunner runs a command and returns its combined trimmed output.
func execRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// SystemProbe is the default EnvironmentProbe. It records the Go runtime,
// platform, git revision and accelerator driver info when available.
type SystemProbe struct {
	logger *slog.Logger
	run    CommandRunner
}

// NewSystemProbe creates the default probe. A nil runner uses os/exec.
func NewSystemProbe(logger *slog.Logger, runner CommandRunner) *SystemProbe {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = execRunner
	}
	return &SystemProbe{logger: logger, run: runner}
}

// Collect gathers every probe value. Individual failures are logged at
// debug level and recorded as unavailable.
func (p *SystemProbe) Collect(ctx context.Context) []domain.ProbeResult {
	results := []domain.ProbeResult{
		{Name: "go_version", Value: runtime.Version()},
		{Name: "platform", Value: runtime.GOOS + "/" + runtime.GOARCH},
		{Name: "app_version", Value: contracts.Version},
	}

	commands := []struct {
		name string
		cmd  string
		args []string
	}{
		{"git_head", "git", []string{"rev-parse", "HEAD"}},
		{"git_branch", "git", []string{"branch", "--show-current"}},
		{"nvidia_smi", "nvidia-smi", []string{"--query-gpu=name,driver_version", "--format=csv,noheader"}},
	}

	for _, c := range commands {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		out, err := p.run(probeCtx, c.cmd, c.args...)
		cancel()
		if err != nil || out == "" {
			p.logger.DebugContext(ctx, "environment probe unavailable",
				slog.String("probe", c.name),
				slog.Any("error", err))
			results = append(results, domain.ProbeResult{Name: c.name, Value: domain.Unavailable})
			continue
		}
		results = append(results, domain.ProbeResult{Name: c.name, Value: out})
	}

	return results
}

// NopProbe returns no observations. Useful in tests.
type NopProbe struct{}

func (NopProbe) Collect(context.Context) []domain.ProbeResult { return nil }
