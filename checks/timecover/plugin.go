package timecover

import (
	"fmt"

	"github.com/gridops/nc-check/check"
	"github.com/gridops/nc-check/registry"
)

// Plugin registers the time-coverage atomic checks with a registry.
// Each check is scoped per data variable.
type Plugin struct {
	TimeName string
}

// NewPlugin creates the time-cover plugin with the default time
// coordinate name.
func NewPlugin() *Plugin {
	return &Plugin{TimeName: "time"}
}

// Name implements registry.Plugin.
func (p *Plugin) Name() string { return "time_cover" }

// CheckNames returns the atomic check names this plugin registers.
func CheckNames() []string {
	return []string{"time.missing_slices", "time.monotonic_increasing", "time.regular_spacing"}
}

// Register implements registry.Plugin.
func (p *Plugin) Register(r *registry.Registry) error {
	timeName := p.TimeName
	if timeName == "" {
		timeName = "time"
	}

	if err := r.RegisterCheck(registry.Descriptor{
		Name:   "time.missing_slices",
		Plugin: p.Name(),
		Scope:  registry.ScopeDataVars,
		Fn: func(target registry.Target) check.AtomicResult {
			report, err := MissingSlicesReport(target.Dataset, target.Item, timeName)
			if err != nil {
				return check.FailedResult("time.missing_slices", err.Error(), nil)
			}
			return resultFromReport("time.missing_slices", "missing_slice_count", report)
		},
	}); err != nil {
		return err
	}

	if err := r.RegisterCheck(registry.Descriptor{
		Name:   "time.monotonic_increasing",
		Plugin: p.Name(),
		Scope:  registry.ScopeDataVars,
		Fn: func(target registry.Target) check.AtomicResult {
			report, err := MonotonicReport(target.Dataset, target.Item, timeName)
			if err != nil {
				return check.FailedResult("time.monotonic_increasing", err.Error(), nil)
			}
			return resultFromReport("time.monotonic_increasing", "order_violation_count", report)
		},
	}); err != nil {
		return err
	}

	return r.RegisterCheck(registry.Descriptor{
		Name:   "time.regular_spacing",
		Plugin: p.Name(),
		Scope:  registry.ScopeDataVars,
		Fn: func(target registry.Target) check.AtomicResult {
			report, err := RegularSpacingReport(target.Dataset, target.Item, timeName)
			if err != nil {
				return check.FailedResult("time.regular_spacing", err.Error(), nil)
			}
			return resultFromReport("time.regular_spacing", "irregular_interval_count", report)
		},
	})
}

// resultFromReport folds a leaf time report into an atomic result.
func resultFromReport(name, countKey string, report map[string]any) check.AtomicResult {
	status := stringFrom(report["status"])
	count := intFrom(report[countKey])
	details := map[string]any{"report": report}
	switch status {
	case "pass":
		return check.PassedResult(name, fmt.Sprintf("%s=0", countKey), details)
	case "fail":
		return check.FailedResult(name, fmt.Sprintf("%s=%d", countKey, count), details)
	default:
		return check.SkippedResult(name, fmt.Sprintf("check skipped (%s)", status), details)
	}
}
