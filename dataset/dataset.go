// Package dataset provides the in-memory, coordinate-indexed data
// container that checks run against. Datasets are read-only inputs:
// the engine never mutates them.
package dataset

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Canonical coordinate names and the aliases renamed onto them.
var aliasGroups = map[string][]string{
	"time": {"time", "t"},
	"lat":  {"lat", "latitude", "y"},
	"lon":  {"lon", "longitude", "x"},
}

// Array is a named n-dimensional array stored row-major. NaN values
// (or values equal to the _FillValue attribute) are treated as missing.
type Array struct {
	Name   string
	Dims   []string
	Shape  []int
	Values []float64
	Attrs  map[string]any
}

// NewArray builds an array and validates that the value count matches
// the shape.
func NewArray(name string, dims []string, shape []int, values []float64) (*Array, error) {
	if len(dims) != len(shape) {
		return nil, errors.Errorf("array %q: %d dims but %d shape entries", name, len(dims), len(shape))
	}
	want := 1
	for _, n := range shape {
		if n < 0 {
			return nil, errors.Errorf("array %q: negative dimension size %d", name, n)
		}
		want *= n
	}
	if want != len(values) {
		return nil, errors.Errorf("array %q: shape wants %d values, got %d", name, want, len(values))
	}
	return &Array{
		Name:   name,
		Dims:   append([]string(nil), dims...),
		Shape:  append([]int(nil), shape...),
		Values: values,
		Attrs:  map[string]any{},
	}, nil
}

// Len returns the number of elements in the array.
func (a *Array) Len() int { return len(a.Values) }

// DimIndex returns the position of dim in the array's dimension list,
// or -1 if the array does not have that dimension.
func (a *Array) DimIndex(dim string) int {
	for i, d := range a.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// Size returns the length of the named dimension, or 0 if absent.
func (a *Array) Size(dim string) int {
	if i := a.DimIndex(dim); i >= 0 {
		return a.Shape[i]
	}
	return 0
}

// Stride returns the row-major stride of the named dimension.
func (a *Array) Stride(dim string) int {
	pos := a.DimIndex(dim)
	if pos < 0 {
		return 0
	}
	stride := 1
	for i := len(a.Shape) - 1; i > pos; i-- {
		stride *= a.Shape[i]
	}
	return stride
}

// DimIndexAt maps a flat value index to its index along dim.
func (a *Array) DimIndexAt(dim string, flat int) int {
	stride := a.Stride(dim)
	if stride == 0 {
		return 0
	}
	return (flat / stride) % a.Size(dim)
}

// FillValue returns the array's _FillValue attribute, if numeric.
func (a *Array) FillValue() (float64, bool) {
	raw, ok := a.Attrs["_FillValue"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// IsMissing reports whether the value at flat index i counts as
// missing data.
func (a *Array) IsMissing(i int) bool {
	v := a.Values[i]
	if math.IsNaN(v) {
		return true
	}
	if fill, ok := a.FillValue(); ok && v == fill {
		return true
	}
	return false
}

// AttrString returns a string attribute, with surrounding space trimmed.
func (a *Array) AttrString(key string) string {
	raw, ok := a.Attrs[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(raw))
}

// Dataset holds named data variables, coordinate arrays and global
// attributes. Insertion order of variables and coordinates is
// preserved so that check output is deterministic.
type Dataset struct {
	vars       map[string]*Array
	coords     map[string]*Array
	varOrder   []string
	coordOrder []string
	Attrs      map[string]any
}

// New creates an empty dataset.
func New() *Dataset {
	return &Dataset{
		vars:   make(map[string]*Array),
		coords: make(map[string]*Array),
		Attrs:  make(map[string]any),
	}
}

// AddVar inserts a data variable, replacing any previous one with the
// same name.
func (d *Dataset) AddVar(a *Array) {
	if _, exists := d.vars[a.Name]; !exists {
		d.varOrder = append(d.varOrder, a.Name)
	}
	d.vars[a.Name] = a
}

// AddCoord inserts a coordinate array.
func (d *Dataset) AddCoord(a *Array) {
	if _, exists := d.coords[a.Name]; !exists {
		d.coordOrder = append(d.coordOrder, a.Name)
	}
	d.coords[a.Name] = a
}

// Var returns the named data variable.
func (d *Dataset) Var(name string) (*Array, bool) {
	a, ok := d.vars[name]
	return a, ok
}

// Coord returns the named coordinate array.
func (d *Dataset) Coord(name string) (*Array, bool) {
	a, ok := d.coords[name]
	return a, ok
}

// VarNames returns data variable names in insertion order.
func (d *Dataset) VarNames() []string {
	return append([]string(nil), d.varOrder...)
}

// CoordNames returns coordinate names in insertion order.
func (d *Dataset) CoordNames() []string {
	return append([]string(nil), d.coordOrder...)
}

// DimNames returns every dimension name referenced by a variable or
// coordinate, coordinates first, without duplicates.
func (d *Dataset) DimNames() []string {
	seen := make(map[string]bool)
	var dims []string
	collect := func(a *Array) {
		for _, dim := range a.Dims {
			if !seen[dim] {
				seen[dim] = true
				dims = append(dims, dim)
			}
		}
	}
	for _, name := range d.coordOrder {
		collect(d.coords[name])
	}
	for _, name := range d.varOrder {
		collect(d.vars[name])
	}
	return dims
}

// CanonicalizeOptions controls alias renaming behavior.
type CanonicalizeOptions struct {
	RenameAliases bool
	Strict        bool
}

// Canonicalize returns a copy of the dataset with alias coordinate
// names (latitude, longitude, t, x, y) renamed onto the canonical
// time/lat/lon set. With Strict set, all three canonical coordinates
// must be present after renaming.
func Canonicalize(d *Dataset, opts CanonicalizeOptions) (*Dataset, error) {
	renames := map[string]string{}
	if opts.RenameAliases {
		lowered := map[string]string{}
		for _, name := range d.coordOrder {
			lowered[strings.ToLower(name)] = name
		}
		for canonical, aliases := range aliasGroups {
			if _, ok := d.coords[canonical]; ok {
				continue
			}
			for _, alias := range aliases {
				if source, ok := lowered[alias]; ok {
					renames[source] = canonical
					break
				}
			}
		}
	}

	out := New()
	for k, v := range d.Attrs {
		out.Attrs[k] = v
	}
	renameDims := func(a *Array) *Array {
		copied := &Array{
			Name:   a.Name,
			Dims:   append([]string(nil), a.Dims...),
			Shape:  append([]int(nil), a.Shape...),
			Values: a.Values,
			Attrs:  a.Attrs,
		}
		if to, ok := renames[copied.Name]; ok {
			copied.Name = to
		}
		for i, dim := range copied.Dims {
			if to, ok := renames[dim]; ok {
				copied.Dims[i] = to
			}
		}
		return copied
	}
	for _, name := range d.coordOrder {
		out.AddCoord(renameDims(d.coords[name]))
	}
	for _, name := range d.varOrder {
		out.AddVar(renameDims(d.vars[name]))
	}

	if opts.Strict {
		var missing []string
		for _, canonical := range []string{"time", "lat", "lon"} {
			if _, ok := out.coords[canonical]; !ok {
				missing = append(missing, canonical)
			}
		}
		if len(missing) > 0 {
			return nil, errors.Errorf("dataset is missing canonical coordinates: %s", strings.Join(missing, ", "))
		}
	}
	return out, nil
}
