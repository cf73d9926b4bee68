package dataset

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// snapshotFile is the on-disk YAML layout consumed by the CLI. It is a
// plain serialization of a Dataset, not a netCDF decoder.
type snapshotFile struct {
	Attrs  map[string]any  `yaml:"attrs,omitempty"`
	Coords []snapshotArray `yaml:"coords,omitempty"`
	Vars   []snapshotArray `yaml:"vars"`
}

type snapshotArray struct {
	Name   string         `yaml:"name"`
	Dims   []string       `yaml:"dims"`
	Shape  []int          `yaml:"shape,omitempty"`
	Values []float64      `yaml:"values"`
	Attrs  map[string]any `yaml:"attrs,omitempty"`
}

// Load reads a dataset snapshot from a YAML file. A one-dimensional
// array may omit its shape.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading dataset snapshot")
	}
	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parsing dataset snapshot")
	}

	ds := New()
	for k, v := range file.Attrs {
		ds.Attrs[k] = v
	}
	for _, raw := range file.Coords {
		a, err := buildArray(raw)
		if err != nil {
			return nil, err
		}
		ds.AddCoord(a)
	}
	for _, raw := range file.Vars {
		a, err := buildArray(raw)
		if err != nil {
			return nil, err
		}
		ds.AddVar(a)
	}
	return ds, nil
}

func buildArray(raw snapshotArray) (*Array, error) {
	shape := raw.Shape
	if len(shape) == 0 && len(raw.Dims) == 1 {
		shape = []int{len(raw.Values)}
	}
	a, err := NewArray(raw.Name, raw.Dims, shape, raw.Values)
	if err != nil {
		return nil, err
	}
	for k, v := range raw.Attrs {
		a.Attrs[k] = v
	}
	return a, nil
}
