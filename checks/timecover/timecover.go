// Package timecover implements time-coverage checks: missing time
// slices, monotonic time order, and regular time spacing.
package timecover

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gridops/nc-check/dataset"
	"github.com/gridops/nc-check/suite"
)

// Config controls which time checks run and over which variables.
type Config struct {
	VarName             string `mapstructure:"var_name"`
	TimeName            string `mapstructure:"time_name"`
	CheckMonotonic      bool   `mapstructure:"check_time_monotonic"`
	CheckRegularSpacing bool   `mapstructure:"check_time_regular_spacing"`
}

// ConfigFromOptions decodes a per-check option map.
func ConfigFromOptions(options map[string]any) (Config, error) {
	cfg := Config{TimeName: "time"}
	if options == nil {
		return cfg, nil
	}
	if err := mapstructure.Decode(options, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding time_cover options")
	}
	if cfg.TimeName == "" {
		cfg.TimeName = "time"
	}
	return cfg, nil
}

// resolveTimeDim finds the time dimension of a variable: the preferred
// name if present, then "time", then any dimension whose coordinate
// carries standard_name=time.
func resolveTimeDim(ds *dataset.Dataset, a *dataset.Array, preferred string) string {
	if preferred != "" && a.DimIndex(preferred) >= 0 {
		return preferred
	}
	if a.DimIndex("time") >= 0 {
		return "time"
	}
	for _, dim := range a.Dims {
		coord, ok := ds.Coord(dim)
		if !ok {
			continue
		}
		if coord.AttrString("standard_name") == "time" {
			return dim
		}
	}
	return ""
}

// MissingSlicesReport finds time indices where every value of the
// variable is missing.
func MissingSlicesReport(ds *dataset.Dataset, varName, timeName string) (map[string]any, error) {
	a, ok := ds.Var(varName)
	if !ok {
		return nil, errors.Errorf("data variable %q not found", varName)
	}
	timeDim := resolveTimeDim(ds, a, timeName)
	if timeDim == "" {
		return map[string]any{
			"enabled":              true,
			"status":               "skipped_no_time",
			"missing_slice_count":  0,
			"missing_slice_ranges": []map[string]any{},
		}, nil
	}

	size := a.Size(timeDim)
	present := make([]bool, size)
	for i := 0; i < a.Len(); i++ {
		if !a.IsMissing(i) {
			present[a.DimIndexAt(timeDim, i)] = true
		}
	}
	var missingIndices []int
	for t := 0; t < size; t++ {
		if !present[t] {
			missingIndices = append(missingIndices, t)
		}
	}

	status := "pass"
	if len(missingIndices) > 0 {
		status = "fail"
	}
	coord, _ := ds.Coord(timeDim)
	return map[string]any{
		"enabled":              true,
		"status":               status,
		"missing_slice_count":  len(missingIndices),
		"missing_slice_ranges": rangeRecords(missingIndices, coord),
	}, nil
}

// MonotonicReport checks that time coordinate values are monotonic
// increasing.
func MonotonicReport(ds *dataset.Dataset, varName, timeName string) (map[string]any, error) {
	a, ok := ds.Var(varName)
	if !ok {
		return nil, errors.Errorf("data variable %q not found", varName)
	}
	timeDim := resolveTimeDim(ds, a, timeName)
	if timeDim == "" {
		return map[string]any{
			"enabled":                true,
			"status":                 "skipped_no_time",
			"order_violation_count":  0,
			"order_violation_ranges": []map[string]any{},
		}, nil
	}

	values := timeValues(ds, a, timeDim)
	var violations []int
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			violations = append(violations, i)
		}
	}
	status := "pass"
	if len(violations) > 0 {
		status = "fail"
	}
	coord, _ := ds.Coord(timeDim)
	return map[string]any{
		"enabled":                true,
		"status":                 status,
		"order_violation_count":  len(violations),
		"order_violation_ranges": rangeRecords(violations, coord),
	}, nil
}

// RegularSpacingReport checks that consecutive time values are evenly
// spaced, using the first interval as the expected spacing.
func RegularSpacingReport(ds *dataset.Dataset, varName, timeName string) (map[string]any, error) {
	a, ok := ds.Var(varName)
	if !ok {
		return nil, errors.Errorf("data variable %q not found", varName)
	}
	timeDim := resolveTimeDim(ds, a, timeName)
	if timeDim == "" {
		return map[string]any{
			"enabled":                   true,
			"status":                    "skipped_no_time",
			"irregular_interval_count":  0,
			"irregular_interval_ranges": []map[string]any{},
			"expected_interval":         nil,
		}, nil
	}

	values := timeValues(ds, a, timeDim)
	if len(values) <= 2 {
		return map[string]any{
			"enabled":                   true,
			"status":                    "pass",
			"irregular_interval_count":  0,
			"irregular_interval_ranges": []map[string]any{},
			"expected_interval":         nil,
		}, nil
	}

	expected := values[1] - values[0]
	var irregular []int
	for i := 1; i < len(values); i++ {
		if !approxEqual(values[i]-values[i-1], expected) {
			irregular = append(irregular, i)
		}
	}
	status := "pass"
	if len(irregular) > 0 {
		status = "fail"
	}
	coord, _ := ds.Coord(timeDim)
	return map[string]any{
		"enabled":                   true,
		"status":                    status,
		"irregular_interval_count":  len(irregular),
		"irregular_interval_ranges": rangeRecords(irregular, coord),
		"expected_interval":         expected,
	}, nil
}

func approxEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	scale := b
	if scale < 0 {
		scale = -scale
	}
	return diff <= 1e-9*(1+scale)
}

// timeValues returns the time coordinate values, or ascending indices
// when the dimension has no coordinate.
func timeValues(ds *dataset.Dataset, a *dataset.Array, timeDim string) []float64 {
	if coord, ok := ds.Coord(timeDim); ok {
		return coord.Values
	}
	n := a.Size(timeDim)
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	return values
}

// rangeRecords compresses sorted indices into contiguous ranges with
// coordinate labels at the boundaries.
func rangeRecords(indices []int, coord *dataset.Array) []map[string]any {
	out := []map[string]any{}
	if len(indices) == 0 {
		return out
	}
	ordered := append([]int(nil), indices...)
	sort.Ints(ordered)

	label := func(idx int) string {
		if coord != nil && idx < len(coord.Values) {
			return fmt.Sprintf("%g", coord.Values[idx])
		}
		return fmt.Sprintf("%d", idx)
	}
	start, end := ordered[0], ordered[0]
	flush := func() {
		out = append(out, map[string]any{
			"start_index": start,
			"end_index":   end,
			"start":       label(start),
			"end":         label(end),
		})
	}
	for _, idx := range ordered[1:] {
		if idx == end+1 {
			end = idx
			continue
		}
		flush()
		start, end = idx, idx
	}
	flush()
	return out
}

// SingleVariableReport runs the configured time checks for one
// variable through a suite, so its summary follows the engine-wide
// status law.
func SingleVariableReport(ds *dataset.Dataset, cfg Config, varName string) (map[string]any, error) {
	a, ok := ds.Var(varName)
	if !ok {
		return nil, errors.Errorf("data variable %q not found", varName)
	}
	timeDim := resolveTimeDim(ds, a, cfg.TimeName)

	checks := []suite.Check{{
		ID:   "time.missing_slices",
		Name: "Missing Time Slices",
		Run: func() (map[string]any, error) {
			return MissingSlicesReport(ds, varName, cfg.TimeName)
		},
		Detail: func(result map[string]any) string {
			return fmt.Sprintf("missing_slices=%d", intFrom(result["missing_slice_count"]))
		},
	}}
	if cfg.CheckMonotonic {
		checks = append(checks, suite.Check{
			ID:   "time.monotonic_increasing",
			Name: "Monotonic Time Order",
			Run: func() (map[string]any, error) {
				return MonotonicReport(ds, varName, cfg.TimeName)
			},
			Detail: func(result map[string]any) string {
				return fmt.Sprintf("order_violations=%d", intFrom(result["order_violation_count"]))
			},
		})
	}
	if cfg.CheckRegularSpacing {
		checks = append(checks, suite.Check{
			ID:   "time.regular_spacing",
			Name: "Regular Time Spacing",
			Run: func() (map[string]any, error) {
				return RegularSpacingReport(ds, varName, cfg.TimeName)
			},
			Detail: func(result map[string]any) string {
				return fmt.Sprintf("irregular_intervals=%d", intFrom(result["irregular_interval_count"]))
			},
		})
	}

	report := suite.New("time_cover", checks).Run()
	out := report.AsMap()
	out["variable"] = varName
	out["time_dim"] = timeDim
	out["checks_enabled"] = map[string]any{
		"time_missing":         true,
		"time_monotonic":       cfg.CheckMonotonic,
		"time_regular_spacing": cfg.CheckRegularSpacing,
	}
	for _, item := range report.Checks {
		switch item.ID {
		case "time.missing_slices":
			out["time_missing"] = item.Result
		case "time.monotonic_increasing":
			out["time_monotonic"] = item.Result
		case "time.regular_spacing":
			out["time_regular_spacing"] = item.Result
		}
	}
	return out, nil
}

// RunReport builds the time_cover report. A named variable yields the
// single-variable shape; otherwise every data variable is checked and
// the per-variable items are folded into one all-variables report.
// Per-variable runs are independent, so they fan out concurrently and
// the output order is restored afterwards.
func RunReport(ds *dataset.Dataset, options map[string]any) (map[string]any, error) {
	cfg, err := ConfigFromOptions(options)
	if err != nil {
		return nil, err
	}
	if cfg.VarName != "" {
		return SingleVariableReport(ds, cfg, cfg.VarName)
	}

	names := ds.VarNames()
	if len(names) == 0 {
		return nil, errors.New("dataset has no data variables to check")
	}

	reports := make(map[string]map[string]any, len(names))
	var mu sync.Mutex
	var g errgroup.Group
	for _, name := range names {
		name := name
		g.Go(func() error {
			perVar, err := SingleVariableReport(ds, cfg, name)
			if err != nil {
				return err
			}
			mu.Lock()
			reports[name] = perVar
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var items []suite.Item
	for _, name := range names {
		for _, raw := range checksOf(reports[name]) {
			item := raw
			item.Variable = name
			items = append(items, item)
		}
	}
	combined := suite.ReportFromItems("time_cover", items)
	out := combined.AsMap()
	out["mode"] = "all_variables"
	out["checked_variable_count"] = len(names)
	out["checked_variables"] = names
	perVariable := make(map[string]any, len(reports))
	for name, perVar := range reports {
		perVariable[name] = perVar
	}
	out["reports"] = perVariable
	return out, nil
}

// checksOf re-reads the items a report map carries under "checks".
func checksOf(report map[string]any) []suite.Item {
	raw, ok := report["checks"].([]map[string]any)
	if !ok {
		return nil
	}
	items := make([]suite.Item, 0, len(raw))
	for _, m := range raw {
		item := suite.Item{
			ID:     stringFrom(m["id"]),
			Name:   stringFrom(m["name"]),
			Status: stringFrom(m["status"]),
			Detail: stringFrom(m["detail"]),
		}
		if result, ok := m["result"].(map[string]any); ok {
			item.Result = result
		}
		items = append(items, item)
	}
	return items
}

func stringFrom(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func intFrom(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
