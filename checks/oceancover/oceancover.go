// Package oceancover implements the ocean_cover suite: spatial
// coverage checks for gridded ocean variables.
package oceancover

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gridops/nc-check/dataset"
	"github.com/gridops/nc-check/suite"
)

// Config selects the coordinate names and toggles for one ocean_cover
// run. Both checks default to enabled.
type Config struct {
	VarName             string `mapstructure:"var_name"`
	LonName             string `mapstructure:"lon_name"`
	LatName             string `mapstructure:"lat_name"`
	TimeName            string `mapstructure:"time_name"`
	CheckEdgeOfMap      bool   `mapstructure:"check_edge_of_map"`
	CheckLandOceanShift bool   `mapstructure:"check_land_ocean_offset"`
}

// ConfigFromOptions decodes a per-check option map, filling in the
// conventional coordinate names and enabling both checks unless the
// options say otherwise.
func ConfigFromOptions(options map[string]any) (Config, error) {
	cfg := Config{
		LonName:             "lon",
		LatName:             "lat",
		TimeName:            "time",
		CheckEdgeOfMap:      true,
		CheckLandOceanShift: true,
	}
	if options == nil {
		return cfg, nil
	}
	if err := mapstructure.Decode(options, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding ocean_cover options")
	}
	if _, present := options["check_edge_of_map"]; !present {
		cfg.CheckEdgeOfMap = true
	}
	if _, present := options["check_land_ocean_offset"]; !present {
		cfg.CheckLandOceanShift = true
	}
	return cfg, nil
}

// referencePoint is a location with a known surface type used to
// detect a shifted land/ocean mask.
type referencePoint struct {
	Name string
	Lat  float64
	Lon  float64
	Land bool
}

// Continental interiors and open-ocean basins far from any coastline,
// so a mask shifted by a few grid cells still disagrees.
var referencePoints = []referencePoint{
	{Name: "australia", Lat: -25, Lon: 135, Land: true},
	{Name: "south_america", Lat: -15, Lon: -60, Land: true},
	{Name: "north_america", Lat: 40, Lon: -100, Land: true},
	{Name: "africa", Lat: 0, Lon: 20, Land: true},
	{Name: "pacific", Lat: -20, Lon: -160, Land: false},
	{Name: "atlantic", Lat: -26, Lon: -37, Land: false},
	{Name: "indian", Lat: -20, Lon: 80, Land: false},
}

// EdgeOfMapReport finds longitude bands where the variable is missing
// at every latitude (and every time step), which indicates a dataset
// cropped or wrapped at the wrong meridian.
func EdgeOfMapReport(ds *dataset.Dataset, cfg Config, varName string) (map[string]any, error) {
	a, ok := ds.Var(varName)
	if !ok {
		return nil, errors.Errorf("data variable %q not found", varName)
	}
	lonDim := a.DimIndex(cfg.LonName)
	if lonDim < 0 {
		return map[string]any{
			"enabled":                 true,
			"status":                  "skipped_no_longitude",
			"missing_longitude_count": 0,
		}, nil
	}
	lon, _ := ds.Coord(cfg.LonName)

	lonSize := a.Size(cfg.LonName)
	allMissing := make([]bool, lonSize)
	for j := range allMissing {
		allMissing[j] = true
	}
	for i := 0; i < a.Len(); i++ {
		if !a.IsMissing(i) {
			allMissing[a.DimIndexAt(cfg.LonName, i)] = false
		}
	}

	var missing []int
	for j, m := range allMissing {
		if m {
			missing = append(missing, j)
		}
	}
	report := map[string]any{
		"enabled":                  true,
		"status":                   "pass",
		"missing_longitude_count":  len(missing),
		"missing_longitude_ranges": rangeRecords(missing, lon),
	}
	if len(missing) > 0 {
		report["status"] = "fail"
	}
	return report, nil
}

// LandOceanOffsetReport samples the variable at reference points with
// a known surface type. Land points should be missing and ocean points
// should hold data; any disagreement suggests an offset grid.
func LandOceanOffsetReport(ds *dataset.Dataset, cfg Config, varName string) (map[string]any, error) {
	a, ok := ds.Var(varName)
	if !ok {
		return nil, errors.Errorf("data variable %q not found", varName)
	}
	lat, latOK := ds.Coord(cfg.LatName)
	lon, lonOK := ds.Coord(cfg.LonName)
	if !latOK || !lonOK || a.DimIndex(cfg.LatName) < 0 || a.DimIndex(cfg.LonName) < 0 {
		return map[string]any{
			"enabled":        true,
			"status":         "skipped_no_grid",
			"mismatch_count": 0,
		}, nil
	}

	var mismatches []map[string]any
	checked := 0
	for _, ref := range referencePoints {
		latIdx, latDist := nearestIndex(lat.Values, ref.Lat)
		lonIdx, lonDist := nearestIndex(lon.Values, ref.Lon)
		if latDist > 5 || lonDist > 5 {
			continue
		}
		checked++
		missing := cellMissing(a, cfg, latIdx, lonIdx)
		if missing != ref.Land {
			kind := "ocean_point_missing"
			if ref.Land {
				kind = "land_point_has_data"
			}
			mismatches = append(mismatches, map[string]any{
				"point":    ref.Name,
				"lat":      ref.Lat,
				"lon":      ref.Lon,
				"expected": surfaceLabel(ref.Land),
				"kind":     kind,
			})
		}
	}

	report := map[string]any{
		"enabled":             true,
		"status":              "pass",
		"mismatch_count":      len(mismatches),
		"mismatches":          mismatches,
		"checked_point_count": checked,
	}
	switch {
	case checked == 0:
		report["status"] = "skipped_outside_grid"
	case len(mismatches) > 0:
		report["status"] = "fail"
	}
	return report, nil
}

// SingleVariableReport runs the enabled ocean checks for one variable.
func SingleVariableReport(ds *dataset.Dataset, cfg Config, varName string) (map[string]any, error) {
	if _, ok := ds.Var(varName); !ok {
		return nil, errors.Errorf("data variable %q not found", varName)
	}

	var checks []suite.Check
	if cfg.CheckEdgeOfMap {
		checks = append(checks, suite.Check{
			ID:   "ocean.edge_of_map",
			Name: "Edge Of Map Coverage",
			Run: func() (map[string]any, error) {
				return EdgeOfMapReport(ds, cfg, varName)
			},
			Detail: func(result map[string]any) string {
				return fmt.Sprintf("missing_longitudes=%d", intFrom(result["missing_longitude_count"]))
			},
		})
	}
	if cfg.CheckLandOceanShift {
		checks = append(checks, suite.Check{
			ID:   "ocean.land_ocean_offset",
			Name: "Land Ocean Offset",
			Run: func() (map[string]any, error) {
				return LandOceanOffsetReport(ds, cfg, varName)
			},
			Detail: func(result map[string]any) string {
				return fmt.Sprintf("mismatches=%d", intFrom(result["mismatch_count"]))
			},
		})
	}

	report := suite.New("ocean_cover", checks).Run()
	out := report.AsMap()
	out["variable"] = varName
	out["checks_enabled"] = map[string]bool{
		"edge_of_map":       cfg.CheckEdgeOfMap,
		"land_ocean_offset": cfg.CheckLandOceanShift,
	}
	for _, item := range report.Checks {
		switch item.ID {
		case "ocean.edge_of_map":
			out["edge_of_map"] = item.Result
		case "ocean.land_ocean_offset":
			out["land_ocean_offset"] = item.Result
		}
	}
	if !cfg.CheckEdgeOfMap {
		out["edge_of_map"] = map[string]any{"enabled": false, "status": "skipped"}
	}
	if !cfg.CheckLandOceanShift {
		out["land_ocean_offset"] = map[string]any{"enabled": false, "status": "skipped"}
	}
	return out, nil
}

// RunReport builds the ocean_cover report, fanning out over all data
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
	combined := suite.ReportFromItems("ocean_cover", items)
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

// cellMissing reports whether the variable is missing at the given
// grid cell for every time step.
func cellMissing(a *dataset.Array, cfg Config, latIdx, lonIdx int) bool {
	for i := 0; i < a.Len(); i++ {
		if a.DimIndexAt(cfg.LatName, i) != latIdx || a.DimIndexAt(cfg.LonName, i) != lonIdx {
			continue
		}
		if !a.IsMissing(i) {
			return false
		}
	}
	return true
}

// nearestIndex finds the coordinate index closest to target and the
// distance to it.
func nearestIndex(values []float64, target float64) (int, float64) {
	best := 0
	bestDist := math.Inf(1)
	for i, v := range values {
		d := math.Abs(v - target)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}

// rangeRecords collapses sorted indices into contiguous ranges with
// coordinate labels when the coordinate is available.
func rangeRecords(indices []int, coord *dataset.Array) []map[string]any {
	records := []map[string]any{}
	if len(indices) == 0 {
		return records
	}
	start := indices[0]
	prev := indices[0]
	flush := func(end int) {
		rec := map[string]any{
			"start_index": start,
			"end_index":   end,
		}
		if coord != nil && start < len(coord.Values) && end < len(coord.Values) {
			rec["start"] = coord.Values[start]
			rec["end"] = coord.Values[end]
		}
		records = append(records, rec)
	}
	for _, idx := range indices[1:] {
		if idx != prev+1 {
			flush(prev)
			start = idx
		}
		prev = idx
	}
	flush(prev)
	return records
}

func surfaceLabel(land bool) string {
	if land {
		return "land"
	}
	return "ocean"
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
