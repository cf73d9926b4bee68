// Package valuerange implements the value_range suite: per-variable
// bounds checks over non-missing values.
package valuerange

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gridops/nc-check/check"
	"github.com/gridops/nc-check/dataset"
	"github.com/gridops/nc-check/registry"
	"github.com/gridops/nc-check/suite"
)

// Config carries the bounds for one value_range run. Nil bounds are
// open-ended on that side.
type Config struct {
	VarName    string   `mapstructure:"var_name"`
	MinAllowed *float64 `mapstructure:"min_allowed"`
	MaxAllowed *float64 `mapstructure:"max_allowed"`
}

// ConfigFromOptions decodes a per-check option map.
func ConfigFromOptions(options map[string]any) (Config, error) {
	var cfg Config
	if options == nil {
		return cfg, nil
	}
	if err := mapstructure.Decode(options, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding value_range options")
	}
	return cfg, nil
}

// BoundsReport counts values of one variable that fall outside
// [min_allowed, max_allowed]. Missing values are ignored.
func BoundsReport(ds *dataset.Dataset, varName string, minAllowed, maxAllowed *float64) (map[string]any, error) {
	a, ok := ds.Var(varName)
	if !ok {
		return nil, errors.Errorf("data variable %q not found", varName)
	}
	if minAllowed == nil && maxAllowed == nil {
		return map[string]any{
			"enabled":               true,
			"status":                "skipped_no_bounds",
			"out_of_bounds_count":   0,
			"out_of_bounds_indices": []int{},
		}, nil
	}

	var outIndices []int
	observedMin := math.Inf(1)
	observedMax := math.Inf(-1)
	checked := 0
	for i := 0; i < a.Len(); i++ {
		if a.IsMissing(i) {
			continue
		}
		v := a.Values[i]
		checked++
		if v < observedMin {
			observedMin = v
		}
		if v > observedMax {
			observedMax = v
		}
		if (minAllowed != nil && v < *minAllowed) || (maxAllowed != nil && v > *maxAllowed) {
			outIndices = append(outIndices, i)
		}
	}
	sort.Ints(outIndices)

	status := "pass"
	switch {
	case checked == 0:
		status = "skipped_all_missing"
	case len(outIndices) > 0:
		status = "fail"
	}
	report := map[string]any{
		"enabled":               true,
		"status":                status,
		"out_of_bounds_count":   len(outIndices),
		"out_of_bounds_indices": outIndices,
		"checked_value_count":   checked,
	}
	if minAllowed != nil {
		report["min_allowed"] = *minAllowed
	}
	if maxAllowed != nil {
		report["max_allowed"] = *maxAllowed
	}
	if checked > 0 {
		report["value_min"] = observedMin
		report["value_max"] = observedMax
	}
	return report, nil
}

// SingleVariableReport runs the bounds check for one variable through
// a suite so its summary follows the engine-wide status law.
func SingleVariableReport(ds *dataset.Dataset, cfg Config, varName string) (map[string]any, error) {
	if _, ok := ds.Var(varName); !ok {
		return nil, errors.Errorf("data variable %q not found", varName)
	}

	checks := []suite.Check{{
		ID:   "value.in_bounds",
		Name: "Values Within Bounds",
		Run: func() (map[string]any, error) {
			return BoundsReport(ds, varName, cfg.MinAllowed, cfg.MaxAllowed)
		},
		Detail: func(result map[string]any) string {
			return fmt.Sprintf("out_of_bounds=%d", intFrom(result["out_of_bounds_count"]))
		},
	}}

	report := suite.New("value_range", checks).Run()
	out := report.AsMap()
	out["variable"] = varName
	for _, item := range report.Checks {
		if item.ID == "value.in_bounds" {
			out["in_bounds"] = item.Result
		}
	}
	return out, nil
}

// RunReport builds the value_range report, fanning out over all data
// variables unless one is named in the options.
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
	combined := suite.ReportFromItems("value_range", items)
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

// Plugin registers the bounds check as an atomic per-variable check.
// Without explicit options it reads bounds from the variable's
// valid_min/valid_max attributes and skips when neither is set.
type Plugin struct{}

// NewPlugin creates the value-range plugin.
func NewPlugin() *Plugin { return &Plugin{} }

// Name implements registry.Plugin.
func (p *Plugin) Name() string { return "value_range" }

// CheckNames returns the atomic check names this plugin registers.
func CheckNames() []string {
	return []string{"value.in_bounds"}
}

// Register implements registry.Plugin.
func (p *Plugin) Register(r *registry.Registry) error {
	return r.RegisterCheck(registry.Descriptor{
		Name:   "value.in_bounds",
		Plugin: p.Name(),
		Scope:  registry.ScopeDataVars,
		Fn: func(target registry.Target) check.AtomicResult {
			minAllowed := attrFloat(target.Array, "valid_min")
			maxAllowed := attrFloat(target.Array, "valid_max")
			report, err := BoundsReport(target.Dataset, target.Item, minAllowed, maxAllowed)
			if err != nil {
				return check.FailedResult("value.in_bounds", err.Error(), nil)
			}
			details := map[string]any{"report": report}
			count := intFrom(report["out_of_bounds_count"])
			switch stringFrom(report["status"]) {
			case "pass":
				return check.PassedResult("value.in_bounds", "all values within bounds", details)
			case "fail":
				return check.FailedResult("value.in_bounds",
					fmt.Sprintf("%d values outside allowed bounds", count), details)
			default:
				return check.SkippedResult("value.in_bounds",
					"no bounds configured for variable", details)
			}
		},
	})
}

func attrFloat(a *dataset.Array, key string) *float64 {
	if a == nil {
		return nil
	}
	switch v := a.Attrs[key].(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

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
