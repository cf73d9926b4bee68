// Package checks wires the built-in suite families into a runner and
// a registry, and owns the per-family status and detail resolvers.
package checks

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gridops/nc-check/checks/cf"
	"github.com/gridops/nc-check/checks/oceancover"
	"github.com/gridops/nc-check/checks/timecover"
	"github.com/gridops/nc-check/checks/valuerange"
	"github.com/gridops/nc-check/registry"
	"github.com/gridops/nc-check/runner"
)

// Suite keys for the built-in families.
const (
	KeyCompliance = "compliance"
	KeyOceanCover = "ocean_cover"
	KeyTimeCover  = "time_cover"
	KeyValueRange = "value_range"
)

// DefaultOrder returns the built-in suite keys in registration order.
func DefaultOrder() []string {
	return []string{KeyCompliance, KeyOceanCover, KeyTimeCover, KeyValueRange}
}

// RegisterDefaultChecks registers the four built-in suite families
// with a runner.
func RegisterDefaultChecks(r *runner.Runner) error {
	registrations := []runner.RegisteredCheck{
		{
			Key:           KeyCompliance,
			RunReport:     cf.RunComplianceReport,
			ResolveStatus: ComplianceStatus,
			ResolveDetail: ComplianceDetail,
		},
		{
			Key:           KeyOceanCover,
			RunReport:     oceancover.RunReport,
			ResolveStatus: CoverageStatus,
			ResolveDetail: oceanDetail,
		},
		{
			Key:           KeyTimeCover,
			RunReport:     timecover.RunReport,
			ResolveStatus: CoverageStatus,
			ResolveDetail: timeDetail,
		},
		{
			Key:           KeyValueRange,
			RunReport:     valuerange.RunReport,
			ResolveStatus: CoverageStatus,
			ResolveDetail: valueDetail,
		},
	}
	for _, rc := range registrations {
		if err := r.Register(rc); err != nil {
			return err
		}
	}
	return nil
}

// NewDefaultRunner creates a runner with the built-in families
// registered.
func NewDefaultRunner(log logrus.FieldLogger) (*runner.Runner, error) {
	r := runner.New(log)
	if err := RegisterDefaultChecks(r); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultRegistry creates a registry with every built-in plugin's
// atomic checks registered.
func DefaultRegistry() (*registry.Registry, error) {
	reg := registry.New()
	plugins := []registry.Plugin{
		cf.NewPlugin(),
		oceancover.NewPlugin(),
		timecover.NewPlugin(),
		valuerange.NewPlugin(),
	}
	for _, p := range plugins {
		if err := reg.RegisterPlugin(p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// ComplianceStatus maps a compliance report to a suite status. A
// report carrying a checker_error is a fail regardless of counts.
func ComplianceStatus(report map[string]any) runner.Status {
	if _, ok := report["checker_error"]; ok {
		return runner.StatusFail
	}
	counts, _ := report["counts"].(map[string]any)
	fatal := countToInt(counts["fatal"])
	errs := countToInt(counts["error"])
	warns := countToInt(counts["warn"])
	switch {
	case fatal > 0 || errs > 0:
		return runner.StatusFail
	case warns > 0:
		return runner.StatusWarn
	default:
		return runner.StatusPass
	}
}

// ComplianceDetail renders the compliance severity counts.
func ComplianceDetail(report map[string]any) string {
	if msg, ok := report["checker_error"].(string); ok {
		return msg
	}
	counts, _ := report["counts"].(map[string]any)
	return fmt.Sprintf("fatal=%d error=%d warn=%d",
		countToInt(counts["fatal"]), countToInt(counts["error"]), countToInt(counts["warn"]))
}

// CoverageStatus maps a coverage-family report to a suite status. It
// prefers the embedded suite summary and falls back to a leaf status
// string for single-check report shapes.
func CoverageStatus(report map[string]any) runner.Status {
	if summary, ok := report["summary"].(map[string]any); ok {
		if !boolOf(summary["overall_ok"], true) {
			return runner.StatusFail
		}
		switch fmt.Sprint(summary["overall_status"]) {
		case "fail":
			return runner.StatusFail
		case "warn", "skip":
			return runner.StatusWarn
		}
		return runner.StatusPass
	}
	return statusFromLeaf(report["status"])
}

func statusFromLeaf(v any) runner.Status {
	switch s := fmt.Sprint(v); {
	case s == "fail" || s == "failed" || s == "error" || s == "fatal" || s == "false":
		return runner.StatusFail
	case s == "warn" || s == "warning":
		return runner.StatusWarn
	case len(s) >= 4 && s[:4] == "skip":
		return runner.StatusWarn
	default:
		return runner.StatusPass
	}
}

func summaryDetail(report map[string]any) (string, bool) {
	summary, ok := report["summary"].(map[string]any)
	if !ok {
		return "", false
	}
	detail := fmt.Sprintf("checks=%d fail=%d warn_or_skip=%d",
		countToInt(summary["checks_run"]),
		countToInt(summary["failing_checks"]),
		countToInt(summary["warnings_or_skips"]))
	if fmt.Sprint(report["mode"]) == "all_variables" {
		detail = fmt.Sprintf("variables=%d %s",
			countToInt(report["checked_variable_count"]), detail)
	}
	return detail, true
}

func oceanDetail(report map[string]any) string {
	if detail, ok := summaryDetail(report); ok {
		return detail
	}
	return fmt.Sprintf("missing_longitudes=%d mismatches=%d",
		countToInt(report["missing_longitude_count"]),
		countToInt(report["mismatch_count"]))
}

func timeDetail(report map[string]any) string {
	if detail, ok := summaryDetail(report); ok {
		return detail
	}
	return fmt.Sprintf("missing_slices=%d", countToInt(report["missing_slice_count"]))
}

func valueDetail(report map[string]any) string {
	if detail, ok := summaryDetail(report); ok {
		return detail
	}
	return fmt.Sprintf("out_of_bounds=%d", countToInt(report["out_of_bounds_count"]))
}

func countToInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case uint64:
		return int(n)
	}
	return 0
}

func boolOf(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}
