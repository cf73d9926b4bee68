package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustArray(t *testing.T, name string, dims []string, shape []int, values []float64) *Array {
	t.Helper()
	a, err := NewArray(name, dims, shape, values)
	require.NoError(t, err)
	return a
}

func TestNewArrayValidatesShape(t *testing.T) {
	t.Run("value count must match shape", func(t *testing.T) {
		_, err := NewArray("sst", []string{"time", "lat"}, []int{2, 3}, []float64{1, 2, 3})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "shape wants 6 values")
	})

	t.Run("dims and shape lengths must match", func(t *testing.T) {
		_, err := NewArray("sst", []string{"time"}, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
		require.Error(t, err)
	})
}

func TestArrayIndexing(t *testing.T) {
	// 2 time steps, 3 latitudes, 4 longitudes, row-major
	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(i)
	}
	a := mustArray(t, "sst", []string{"time", "lat", "lon"}, []int{2, 3, 4}, values)

	assert.Equal(t, 24, a.Len())
	assert.Equal(t, 0, a.DimIndex("time"))
	assert.Equal(t, 2, a.DimIndex("lon"))
	assert.Equal(t, -1, a.DimIndex("depth"))
	assert.Equal(t, 3, a.Size("lat"))
	assert.Equal(t, 12, a.Stride("time"))
	assert.Equal(t, 4, a.Stride("lat"))
	assert.Equal(t, 1, a.Stride("lon"))

	// flat index 17 = time 1, lat 1, lon 1
	assert.Equal(t, 1, a.DimIndexAt("time", 17))
	assert.Equal(t, 1, a.DimIndexAt("lat", 17))
	assert.Equal(t, 1, a.DimIndexAt("lon", 17))
}

func TestIsMissing(t *testing.T) {
	a := mustArray(t, "sst", []string{"time"}, []int{3}, []float64{1, math.NaN(), -999})

	t.Run("NaN is missing", func(t *testing.T) {
		assert.False(t, a.IsMissing(0))
		assert.True(t, a.IsMissing(1))
		assert.False(t, a.IsMissing(2))
	})

	t.Run("fill value is missing", func(t *testing.T) {
		a.Attrs["_FillValue"] = -999.0
		assert.True(t, a.IsMissing(2))
		assert.False(t, a.IsMissing(0))
	})
}

func TestDatasetOrdering(t *testing.T) {
	ds := New()
	ds.AddCoord(mustArray(t, "time", []string{"time"}, []int{2}, []float64{0, 1}))
	ds.AddVar(mustArray(t, "sst", []string{"time"}, []int{2}, []float64{1, 2}))
	ds.AddVar(mustArray(t, "chl", []string{"time"}, []int{2}, []float64{3, 4}))

	assert.Equal(t, []string{"sst", "chl"}, ds.VarNames())
	assert.Equal(t, []string{"time"}, ds.CoordNames())

	_, ok := ds.Var("sst")
	assert.True(t, ok)
	_, ok = ds.Var("missing")
	assert.False(t, ok)
}

func TestCanonicalize(t *testing.T) {
	build := func(coordNames ...string) *Dataset {
		ds := New()
		for _, name := range coordNames {
			ds.AddCoord(mustArray(t, name, []string{name}, []int{2}, []float64{0, 1}))
		}
		dims := append([]string(nil), coordNames...)
		shape := []int{2, 2, 2}[:len(coordNames)]
		size := 1
		for _, n := range shape {
			size *= n
		}
		ds.AddVar(mustArray(t, "sst", dims, shape, make([]float64, size)))
		return ds
	}

	t.Run("renames aliases onto canonical names", func(t *testing.T) {
		ds := build("t", "latitude", "longitude")

		out, err := Canonicalize(ds, CanonicalizeOptions{RenameAliases: true})
		require.NoError(t, err)

		assert.Equal(t, []string{"time", "lat", "lon"}, out.CoordNames())
		sst, ok := out.Var("sst")
		require.True(t, ok)
		assert.Equal(t, []string{"time", "lat", "lon"}, sst.Dims)
	})

	t.Run("canonical names win over aliases", func(t *testing.T) {
		ds := build("lat", "y")

		out, err := Canonicalize(ds, CanonicalizeOptions{RenameAliases: true})
		require.NoError(t, err)

		_, ok := out.Coord("lat")
		assert.True(t, ok)
		_, ok = out.Coord("y")
		assert.True(t, ok)
	})

	t.Run("strict requires all canonical coordinates", func(t *testing.T) {
		ds := build("time", "lat")

		_, err := Canonicalize(ds, CanonicalizeOptions{RenameAliases: true, Strict: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lon")
	})

	t.Run("input dataset is not mutated", func(t *testing.T) {
		ds := build("latitude")

		_, err := Canonicalize(ds, CanonicalizeOptions{RenameAliases: true})
		require.NoError(t, err)

		_, ok := ds.Coord("latitude")
		assert.True(t, ok)
	})
}

func TestLoad(t *testing.T) {
	snapshot := `
attrs:
  Conventions: CF-1.8
coords:
  - name: time
    dims: [time]
    values: [0, 1, 2]
    attrs:
      units: "days since 2020-01-01"
vars:
  - name: sst
    dims: [time]
    values: [10.5, 11.0, 11.5]
    attrs:
      units: degC
`
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0644))

	ds, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "CF-1.8", ds.Attrs["Conventions"])
	timeCoord, ok := ds.Coord("time")
	require.True(t, ok)
	assert.Equal(t, []int{3}, timeCoord.Shape)
	assert.Equal(t, "days since 2020-01-01", timeCoord.AttrString("units"))

	sst, ok := ds.Var("sst")
	require.True(t, ok)
	assert.Equal(t, []float64{10.5, 11.0, 11.5}, sst.Values)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
