package oceancover

import (
	"fmt"

	"github.com/gridops/nc-check/check"
	"github.com/gridops/nc-check/registry"
)

// Plugin registers the ocean-coverage atomic checks with a registry.
// Each check is scoped per data variable.
type Plugin struct {
	Config Config
}

// NewPlugin creates the ocean-cover plugin with the default coordinate
// names and both checks enabled.
func NewPlugin() *Plugin {
	cfg, _ := ConfigFromOptions(nil)
	return &Plugin{Config: cfg}
}

// Name implements registry.Plugin.
func (p *Plugin) Name() string { return "ocean_cover" }

// CheckNames returns the atomic check names this plugin registers.
func CheckNames() []string {
	return []string{"ocean.edge_of_map", "ocean.land_ocean_offset"}
}

// Register implements registry.Plugin.
func (p *Plugin) Register(r *registry.Registry) error {
	cfg := p.Config
	if cfg.LonName == "" || cfg.LatName == "" {
		cfg, _ = ConfigFromOptions(nil)
	}

	if err := r.RegisterCheck(registry.Descriptor{
		Name:   "ocean.edge_of_map",
		Plugin: p.Name(),
		Scope:  registry.ScopeDataVars,
		Fn: func(target registry.Target) check.AtomicResult {
			report, err := EdgeOfMapReport(target.Dataset, cfg, target.Item)
			if err != nil {
				return check.FailedResult("ocean.edge_of_map", err.Error(), nil)
			}
			return resultFromReport("ocean.edge_of_map", "missing_longitude_count", report)
		},
	}); err != nil {
		return err
	}

	return r.RegisterCheck(registry.Descriptor{
		Name:   "ocean.land_ocean_offset",
		Plugin: p.Name(),
		Scope:  registry.ScopeDataVars,
		Fn: func(target registry.Target) check.AtomicResult {
			report, err := LandOceanOffsetReport(target.Dataset, cfg, target.Item)
			if err != nil {
				return check.FailedResult("ocean.land_ocean_offset", err.Error(), nil)
			}
			return resultFromReport("ocean.land_ocean_offset", "mismatch_count", report)
		},
	})
}

// resultFromReport folds a leaf coverage report into an atomic result.
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
