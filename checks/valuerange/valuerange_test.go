package valuerange

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridops/nc-check/check"
	"github.com/gridops/nc-check/dataset"
	"github.com/gridops/nc-check/registry"
)

func floatPtr(v float64) *float64 { return &v }

func buildDataset(t *testing.T, name string, values []float64) *dataset.Dataset {
	t.Helper()
	ds := dataset.New()
	v, err := dataset.NewArray(name, []string{"time"}, []int{len(values)}, values)
	require.NoError(t, err)
	ds.AddVar(v)
	return ds
}

func TestBoundsReport(t *testing.T) {
	t.Run("one value above the maximum fails", func(t *testing.T) {
		ds := buildDataset(t, "sst", []float64{1.0, 2.0, 3.0})

		report, err := BoundsReport(ds, "sst", floatPtr(0.0), floatPtr(2.5))
		require.NoError(t, err)

		assert.Equal(t, "fail", report["status"])
		assert.Equal(t, 1, report["out_of_bounds_count"])
		assert.Equal(t, []int{2}, report["out_of_bounds_indices"])
		assert.Equal(t, 1.0, report["value_min"])
		assert.Equal(t, 3.0, report["value_max"])
	})

	t.Run("all within bounds passes", func(t *testing.T) {
		ds := buildDataset(t, "sst", []float64{1.0, 2.0})

		report, err := BoundsReport(ds, "sst", floatPtr(0.0), floatPtr(2.5))
		require.NoError(t, err)

		assert.Equal(t, "pass", report["status"])
		assert.Equal(t, 0, report["out_of_bounds_count"])
	})

	t.Run("missing values are ignored", func(t *testing.T) {
		ds := buildDataset(t, "sst", []float64{1.0, math.NaN(), 99.0})
		sst, _ := ds.Var("sst")
		sst.Attrs["_FillValue"] = 99.0

		report, err := BoundsReport(ds, "sst", floatPtr(0.0), floatPtr(2.5))
		require.NoError(t, err)

		assert.Equal(t, "pass", report["status"])
		assert.Equal(t, 1, report["checked_value_count"])
	})

	t.Run("no bounds skips", func(t *testing.T) {
		ds := buildDataset(t, "sst", []float64{1.0})

		report, err := BoundsReport(ds, "sst", nil, nil)
		require.NoError(t, err)

		assert.Equal(t, "skipped_no_bounds", report["status"])
	})

	t.Run("open-ended minimum", func(t *testing.T) {
		ds := buildDataset(t, "sst", []float64{-100, 1})

		report, err := BoundsReport(ds, "sst", nil, floatPtr(2.5))
		require.NoError(t, err)

		assert.Equal(t, "pass", report["status"])
	})

	t.Run("unknown variable errors", func(t *testing.T) {
		ds := buildDataset(t, "sst", []float64{1})
		_, err := BoundsReport(ds, "nope", nil, floatPtr(1))
		require.Error(t, err)
	})
}

func TestSingleVariableReport(t *testing.T) {
	ds := buildDataset(t, "sst", []float64{1.0, 2.0, 3.0})
	cfg := Config{MinAllowed: floatPtr(0.0), MaxAllowed: floatPtr(2.5)}

	report, err := SingleVariableReport(ds, cfg, "sst")
	require.NoError(t, err)

	assert.Equal(t, "sst", report["variable"])
	require.Contains(t, report, "in_bounds")

	summary, ok := report["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, summary["checks_run"])
	assert.Equal(t, 1, summary["failing_checks"])
	assert.Equal(t, false, summary["overall_ok"])
	assert.Equal(t, false, report["ok"])
}

func TestRunReport(t *testing.T) {
	t.Run("named variable yields single shape", func(t *testing.T) {
		ds := buildDataset(t, "sst", []float64{1.0, 2.0, 3.0})

		report, err := RunReport(ds, map[string]any{
			"var_name":    "sst",
			"min_allowed": 0.0,
			"max_allowed": 2.5,
		})
		require.NoError(t, err)

		assert.Equal(t, "sst", report["variable"])
		assert.NotContains(t, report, "mode")
		assert.Equal(t, false, report["ok"])
	})

	t.Run("all variables shape", func(t *testing.T) {
		ds := buildDataset(t, "sst", []float64{1.0, 2.0})
		chl, err := dataset.NewArray("chl", []string{"time"}, []int{2}, []float64{5, 6})
		require.NoError(t, err)
		ds.AddVar(chl)

		report, err := RunReport(ds, map[string]any{"min_allowed": 0.0, "max_allowed": 4.0})
		require.NoError(t, err)

		assert.Equal(t, "all_variables", report["mode"])
		assert.Equal(t, 2, report["checked_variable_count"])

		summary, ok := report["summary"].(map[string]any)
		require.True(t, ok)
		// chl exceeds the shared maximum
		assert.Equal(t, 1, summary["failing_checks"])
	})
}

func TestPluginRegister(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.RegisterPlugin(NewPlugin()))
	assert.Equal(t, []string{"value.in_bounds"}, reg.ListChecks())
}

func TestPluginUsesValidRangeAttrs(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.RegisterPlugin(NewPlugin()))
	desc, err := reg.GetCheck("value.in_bounds")
	require.NoError(t, err)

	t.Run("fails outside valid_max", func(t *testing.T) {
		ds := buildDataset(t, "sst", []float64{1.0, 2.0, 3.0})
		sst, _ := ds.Var("sst")
		sst.Attrs["valid_min"] = 0.0
		sst.Attrs["valid_max"] = 2.5

		result := desc.Fn(registry.Target{
			Scope:   registry.ScopeDataVars,
			Item:    "sst",
			Array:   sst,
			Dataset: ds,
		})

		assert.Equal(t, check.StatusFailed, result.Status)
		assert.Contains(t, result.Info, "1 values outside")
	})

	t.Run("skips without bounds attrs", func(t *testing.T) {
		ds := buildDataset(t, "sst", []float64{1.0})
		sst, _ := ds.Var("sst")

		result := desc.Fn(registry.Target{
			Scope:   registry.ScopeDataVars,
			Item:    "sst",
			Array:   sst,
			Dataset: ds,
		})

		assert.Equal(t, check.StatusSkipped, result.Status)
	})
}
