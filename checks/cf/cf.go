// Package cf implements the compliance suite: CF-convention metadata
// checks over a dataset's attributes, coordinates and variable names.
package cf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/gridops/nc-check/check"
	"github.com/gridops/nc-check/dataset"
	"github.com/gridops/nc-check/registry"
)

// Config selects which metadata checks run. All default to enabled.
type Config struct {
	CheckConventions   bool `mapstructure:"check_conventions"`
	CheckCoordinates   bool `mapstructure:"check_coordinates"`
	CheckUnits         bool `mapstructure:"check_units"`
	CheckVariableNames bool `mapstructure:"check_variable_names"`
}

// ConfigFromOptions decodes a per-check option map. Toggles absent
// from the options stay enabled.
func ConfigFromOptions(options map[string]any) (Config, error) {
	cfg := Config{
		CheckConventions:   true,
		CheckCoordinates:   true,
		CheckUnits:         true,
		CheckVariableNames: true,
	}
	if options == nil {
		return cfg, nil
	}
	if err := mapstructure.Decode(options, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding compliance options")
	}
	for key, field := range map[string]*bool{
		"check_conventions":    &cfg.CheckConventions,
		"check_coordinates":    &cfg.CheckCoordinates,
		"check_units":          &cfg.CheckUnits,
		"check_variable_names": &cfg.CheckVariableNames,
	} {
		if _, present := options[key]; !present {
			*field = true
		}
	}
	return cfg, nil
}

var (
	// "hours since 1990-01-01 00:00:00" and the like.
	timeUnitsPattern = regexp.MustCompile(`^(seconds?|minutes?|hours?|days?|months?|years?)\s+since\s+.+$`)

	// CF identifiers begin with a letter and continue with letters,
	// digits or underscores.
	variableNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

// ConventionsCheck verifies the global Conventions attribute names a
// CF version.
func ConventionsCheck(target registry.Target) check.AtomicResult {
	raw, ok := target.Dataset.Attrs["Conventions"]
	if !ok {
		return check.FailedResult("cf.conventions",
			"global Conventions attribute is missing", nil)
	}
	value := fmt.Sprint(raw)
	for _, token := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		if strings.HasPrefix(token, "CF-") {
			return check.PassedResult("cf.conventions",
				fmt.Sprintf("dataset declares %s", token),
				map[string]any{"conventions": value})
		}
	}
	return check.FailedResult("cf.conventions",
		fmt.Sprintf("Conventions attribute %q does not name a CF version", value),
		map[string]any{"conventions": value})
}

// CoordinatesPresentCheck verifies the canonical time, lat and lon
// coordinates exist.
func CoordinatesPresentCheck(target registry.Target) check.AtomicResult {
	var missing []string
	for _, name := range []string{"time", "lat", "lon"} {
		if _, ok := target.Dataset.Coord(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return check.FailedResult("cf.coordinates_present",
			fmt.Sprintf("missing coordinates: %s", strings.Join(missing, ", ")),
			map[string]any{"missing": missing})
	}
	return check.PassedResult("cf.coordinates_present",
		"time, lat and lon coordinates present", nil)
}

// CoordinateUnitsCheck verifies the units attribute of one coordinate.
func CoordinateUnitsCheck(name string, target registry.Target) check.AtomicResult {
	checkName := "cf." + name + "_units"
	coord, ok := target.Dataset.Coord(name)
	if !ok {
		return check.SkippedResult(checkName,
			fmt.Sprintf("coordinate %q not present", name), nil)
	}
	units := coord.AttrString("units")
	if units == "" {
		return check.FailedResult(checkName,
			fmt.Sprintf("coordinate %q has no units attribute", name),
			nil)
	}
	if unitsValid(name, units) {
		return check.PassedResult(checkName,
			fmt.Sprintf("units %q", units),
			map[string]any{"units": units})
	}
	return check.FailedResult(checkName,
		fmt.Sprintf("coordinate %q has non-conforming units %q", name, units),
		map[string]any{"units": units})
}

func unitsValid(name, units string) bool {
	switch name {
	case "lat":
		return units == "degrees_north"
	case "lon":
		return units == "degrees_east"
	case "time":
		return timeUnitsPattern.MatchString(units) || looksLikeDatetimeUnits(units)
	}
	return true
}

// looksLikeDatetimeUnits accepts time coordinates already decoded to
// datetimes, which carry a datetime64 marker instead of CF units.
func looksLikeDatetimeUnits(units string) bool {
	return strings.HasPrefix(units, "datetime64")
}

// VariableNameCheck verifies one data variable's name is a valid CF
// identifier.
func VariableNameCheck(target registry.Target) check.AtomicResult {
	if variableNamePattern.MatchString(target.Item) {
		return check.PassedResult("cf.variable_name",
			fmt.Sprintf("variable name %q is well formed", target.Item), nil)
	}
	return check.FailedResult("cf.variable_name",
		fmt.Sprintf("variable name %q is not a valid CF identifier", target.Item),
		nil)
}

// Plugin registers the metadata checks with a registry.
type Plugin struct{}

// NewPlugin creates the compliance plugin.
func NewPlugin() *Plugin { return &Plugin{} }

// Name implements registry.Plugin.
func (p *Plugin) Name() string { return "compliance" }

// CheckNames returns the atomic check names this plugin registers.
func CheckNames() []string {
	return []string{
		"cf.conventions",
		"cf.coordinates_present",
		"cf.lat_units",
		"cf.lon_units",
		"cf.time_units",
		"cf.variable_name",
	}
}

// Register implements registry.Plugin.
func (p *Plugin) Register(r *registry.Registry) error {
	descriptors := []registry.Descriptor{
		{Name: "cf.conventions", Plugin: p.Name(), Scope: registry.ScopeDataset, Fn: ConventionsCheck},
		{Name: "cf.coordinates_present", Plugin: p.Name(), Scope: registry.ScopeDataset, Fn: CoordinatesPresentCheck},
		{Name: "cf.lat_units", Plugin: p.Name(), Scope: registry.ScopeDataset, Fn: func(t registry.Target) check.AtomicResult {
			return CoordinateUnitsCheck("lat", t)
		}},
		{Name: "cf.lon_units", Plugin: p.Name(), Scope: registry.ScopeDataset, Fn: func(t registry.Target) check.AtomicResult {
			return CoordinateUnitsCheck("lon", t)
		}},
		{Name: "cf.time_units", Plugin: p.Name(), Scope: registry.ScopeDataset, Fn: func(t registry.Target) check.AtomicResult {
			return CoordinateUnitsCheck("time", t)
		}},
		{Name: "cf.variable_name", Plugin: p.Name(), Scope: registry.ScopeDataVars, Fn: VariableNameCheck},
	}
	for _, desc := range descriptors {
		if err := r.RegisterCheck(desc); err != nil {
			return err
		}
	}
	return nil
}

// RunComplianceReport runs the metadata checks through a fresh
// registry suite and folds the outcome into the compliance report
// shape: severity counts plus the flat check items.
func RunComplianceReport(ds *dataset.Dataset, options map[string]any) (map[string]any, error) {
	cfg, err := ConfigFromOptions(options)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	if err := reg.RegisterPlugin(NewPlugin()); err != nil {
		return nil, errors.Wrap(err, "registering compliance checks")
	}
	names := enabledCheckNames(cfg)
	if len(names) == 0 {
		return map[string]any{
			"status": "skipped",
			"counts": map[string]any{"fatal": 0, "error": 0, "warn": 0},
			"checks": []map[string]any{},
		}, nil
	}
	scopeSuite, err := reg.BuildSuite("compliance", names, "compliance")
	if err != nil {
		return nil, err
	}
	report := scopeSuite.Run(ds)

	counts := map[string]any{
		"fatal": 0,
		"error": report.Summary.Failed,
		"warn":  report.Summary.Skipped,
	}
	items := make([]map[string]any, 0, len(report.Checks))
	for _, result := range report.Checks {
		items = append(items, map[string]any{
			"id":     result.Name,
			"name":   result.Name,
			"status": complianceStatus(result.Status),
			"detail": result.Info,
			"result": result.AsMap(),
		})
	}

	return map[string]any{
		"status":     overallCompliance(report.Summary),
		"counts":     counts,
		"checks":     items,
		"checks_run": report.Summary.ChecksRun,
	}, nil
}

func enabledCheckNames(cfg Config) []string {
	var names []string
	if cfg.CheckConventions {
		names = append(names, "cf.conventions")
	}
	if cfg.CheckCoordinates {
		names = append(names, "cf.coordinates_present")
	}
	if cfg.CheckUnits {
		names = append(names, "cf.lat_units", "cf.lon_units", "cf.time_units")
	}
	if cfg.CheckVariableNames {
		names = append(names, "cf.variable_name")
	}
	return names
}

func complianceStatus(status check.Status) string {
	switch status {
	case check.StatusPassed:
		return "pass"
	case check.StatusFailed:
		return "fail"
	default:
		return "skip"
	}
}

func overallCompliance(summary check.SuiteSummary) string {
	switch {
	case summary.Failed > 0:
		return "fail"
	case summary.Skipped > 0:
		return "warn"
	default:
		return "pass"
	}
}
