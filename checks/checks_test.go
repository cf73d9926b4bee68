package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridops/nc-check/dataset"
	"github.com/gridops/nc-check/runner"
	"github.com/gridops/nc-check/suite"
)

func oceanDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds := dataset.New()
	ds.Attrs["Conventions"] = "CF-1.8"

	coords := []struct {
		name   string
		values []float64
		units  string
	}{
		{"time", []float64{0, 1}, "days since 2020-01-01"},
		{"lat", []float64{-20, -26}, "degrees_north"},
		{"lon", []float64{-160, -37}, "degrees_east"},
	}
	for _, c := range coords {
		a, err := dataset.NewArray(c.name, []string{c.name}, []int{len(c.values)}, c.values)
		require.NoError(t, err)
		a.Attrs["units"] = c.units
		ds.AddCoord(a)
	}

	sst, err := dataset.NewArray("sst", []string{"time", "lat", "lon"}, []int{2, 2, 2},
		[]float64{10, 11, 12, 13, 14, 15, 16, 17})
	require.NoError(t, err)
	ds.AddVar(sst)
	return ds
}

func TestDefaultOrder(t *testing.T) {
	assert.Equal(t, []string{"compliance", "ocean_cover", "time_cover", "value_range"}, DefaultOrder())
}

func TestNewDefaultRunner(t *testing.T) {
	r, err := NewDefaultRunner(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOrder(), r.Keys())
}

func TestDefaultRegistry(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	names := reg.ListChecks()
	assert.Contains(t, names, "cf.conventions")
	assert.Contains(t, names, "ocean.edge_of_map")
	assert.Contains(t, names, "time.missing_slices")
	assert.Contains(t, names, "value.in_bounds")
}

func TestComplianceStatus(t *testing.T) {
	tests := []struct {
		name     string
		report   map[string]any
		expected runner.Status
	}{
		{
			name:     "checker error fails",
			report:   map[string]any{"checker_error": "crashed"},
			expected: runner.StatusFail,
		},
		{
			name: "errors fail",
			report: map[string]any{
				"counts": map[string]any{"fatal": 0, "error": 2, "warn": 0},
			},
			expected: runner.StatusFail,
		},
		{
			name: "fatals fail",
			report: map[string]any{
				"counts": map[string]any{"fatal": 1, "error": 0, "warn": 0},
			},
			expected: runner.StatusFail,
		},
		{
			name: "warnings warn",
			report: map[string]any{
				"counts": map[string]any{"fatal": 0, "error": 0, "warn": 3},
			},
			expected: runner.StatusWarn,
		},
		{
			name: "clean passes",
			report: map[string]any{
				"counts": map[string]any{"fatal": 0, "error": 0, "warn": 0},
			},
			expected: runner.StatusPass,
		},
		{
			name:     "missing counts pass",
			report:   map[string]any{},
			expected: runner.StatusPass,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComplianceStatus(tt.report))
		})
	}
}

func TestComplianceDetail(t *testing.T) {
	t.Run("renders counts", func(t *testing.T) {
		detail := ComplianceDetail(map[string]any{
			"counts": map[string]any{"fatal": 1, "error": 2, "warn": 3},
		})
		assert.Equal(t, "fatal=1 error=2 warn=3", detail)
	})

	t.Run("checker error message wins", func(t *testing.T) {
		detail := ComplianceDetail(map[string]any{"checker_error": "parser exploded"})
		assert.Equal(t, "parser exploded", detail)
	})
}

func TestCoverageStatus(t *testing.T) {
	t.Run("summary overall_ok false fails", func(t *testing.T) {
		report := map[string]any{
			"summary": map[string]any{"overall_status": "fail", "overall_ok": false},
		}
		assert.Equal(t, runner.StatusFail, CoverageStatus(report))
	})

	t.Run("summary warn maps to warn", func(t *testing.T) {
		report := map[string]any{
			"summary": map[string]any{"overall_status": "warn", "overall_ok": true},
		}
		assert.Equal(t, runner.StatusWarn, CoverageStatus(report))
	})

	t.Run("summary pass maps to pass", func(t *testing.T) {
		report := map[string]any{
			"summary": map[string]any{"overall_status": "pass", "overall_ok": true},
		}
		assert.Equal(t, runner.StatusPass, CoverageStatus(report))
	})

	t.Run("leaf status fallback", func(t *testing.T) {
		assert.Equal(t, runner.StatusFail, CoverageStatus(map[string]any{"status": "fail"}))
		assert.Equal(t, runner.StatusWarn, CoverageStatus(map[string]any{"status": "skipped_no_time"}))
		assert.Equal(t, runner.StatusPass, CoverageStatus(map[string]any{"status": "pass"}))
	})
}

func TestDetailResolvers(t *testing.T) {
	summaryReport := func(mode bool) map[string]any {
		report := map[string]any{
			"summary": map[string]any{
				"checks_run":        4,
				"failing_checks":    1,
				"warnings_or_skips": 2,
			},
		}
		if mode {
			report["mode"] = "all_variables"
			report["checked_variable_count"] = 3
		}
		return report
	}

	t.Run("summary detail", func(t *testing.T) {
		assert.Equal(t, "checks=4 fail=1 warn_or_skip=2", timeDetail(summaryReport(false)))
	})

	t.Run("all variables prefix", func(t *testing.T) {
		assert.Equal(t, "variables=3 checks=4 fail=1 warn_or_skip=2", oceanDetail(summaryReport(true)))
	})

	t.Run("leaf fallbacks", func(t *testing.T) {
		assert.Equal(t, "missing_slices=5", timeDetail(map[string]any{"missing_slice_count": 5}))
		assert.Equal(t, "missing_longitudes=2 mismatches=1", oceanDetail(map[string]any{
			"missing_longitude_count": 2,
			"mismatch_count":          1,
		}))
		assert.Equal(t, "out_of_bounds=3", valueDetail(map[string]any{"out_of_bounds_count": 3}))
	})
}

func TestDefaultRunnerEndToEnd(t *testing.T) {
	r, err := NewDefaultRunner(nil)
	require.NoError(t, err)
	ds := oceanDataset(t)

	t.Run("value_range scenario", func(t *testing.T) {
		series := dataset.New()
		v, err := dataset.NewArray("sst", []string{"time"}, []int{3}, []float64{1.0, 2.0, 3.0})
		require.NoError(t, err)
		series.AddVar(v)

		report, err := r.RunSuiteChecks(series, map[string]bool{"value_range": true},
			map[string]map[string]any{
				"value_range": {"var_name": "sst", "min_allowed": 0.0, "max_allowed": 2.5},
			})
		require.NoError(t, err)

		assert.False(t, report.OK)
		assert.Equal(t, suite.KindFail, report.Summary.OverallStatus)
		require.Len(t, report.Checks, 1)
		assert.Equal(t, "value.in_bounds", report.Checks[0].ID)
		assert.Equal(t, "fail", report.Checks[0].Status)

		raw := report.Reports["value_range"]
		bounds, ok := raw["in_bounds"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 1, bounds["out_of_bounds_count"])
	})

	t.Run("all suites over a healthy grid", func(t *testing.T) {
		enabled := map[string]bool{}
		for _, key := range DefaultOrder() {
			enabled[key] = true
		}

		report, err := r.RunSuiteChecks(ds, enabled, map[string]map[string]any{
			"time_cover": {"check_time_monotonic": true, "check_time_regular_spacing": true},
		})
		require.NoError(t, err)

		assert.Len(t, report.Reports, 4)
		// ocean reference points sit outside this tiny grid, so the
		// offset check skips and the run warns rather than failing
		assert.True(t, report.OK)
		assert.Contains(t, []suite.Kind{suite.KindPass, suite.KindWarn}, report.Summary.OverallStatus)
	})

	t.Run("disabled suites never run", func(t *testing.T) {
		report, err := r.RunSuiteChecks(ds, map[string]bool{
			"compliance": true,
			"time_cover": false,
		}, nil)
		require.NoError(t, err)

		assert.Contains(t, report.Reports, "compliance")
		assert.NotContains(t, report.Reports, "time_cover")
	})
}
