package ncheck

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/gridops/nc-check/checks"
	"github.com/gridops/nc-check/flags"
)

// CheckPlan is the on-disk plan format: which suites run and with
// which options.
type CheckPlan struct {
	ChecksEnabled map[string]bool           `yaml:"checks_enabled"`
	Options       map[string]map[string]any `yaml:"options"`
}

type Config struct {
	// Input config
	DatasetPath  string
	StrictCoords bool

	// Plan config
	ChecksEnabled  map[string]bool
	OptionsByCheck map[string]map[string]any

	// Output config
	OutputDir string
	EmitHTML  bool

	Log logrus.FieldLogger
}

// NewConfig creates a new Config instance
func NewConfig(ctx *cli.Context, log logrus.FieldLogger, datasetPath string) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if datasetPath == "" {
		return nil, errors.New("dataset path is required")
	}

	absDataset, err := filepath.Abs(datasetPath)
	if err != nil {
		return nil, errors.Wrap(err, "resolving dataset path")
	}

	plan := &CheckPlan{}
	if planPath := ctx.String(flags.Plan.Name); planPath != "" {
		plan, err = parsePlan(planPath)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing check plan %s", planPath)
		}
	}

	enabled := plan.ChecksEnabled
	if keys := ctx.StringSlice(flags.Checks.Name); len(keys) > 0 {
		enabled = make(map[string]bool, len(keys))
		for _, key := range keys {
			enabled[key] = true
		}
	}
	if len(enabled) == 0 {
		enabled = make(map[string]bool)
		for _, key := range checks.DefaultOrder() {
			enabled[key] = true
		}
	}

	options := plan.Options
	if options == nil {
		options = make(map[string]map[string]any)
	}

	return &Config{
		DatasetPath:    absDataset,
		StrictCoords:   ctx.Bool(flags.StrictCoords.Name),
		ChecksEnabled:  enabled,
		OptionsByCheck: options,
		OutputDir:      ctx.String(flags.OutputDir.Name),
		EmitHTML:       ctx.Bool(flags.HTML.Name),
		Log:            log,
	}, nil
}

func parsePlan(planPath string) (*CheckPlan, error) {
	content, err := os.ReadFile(planPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading plan file")
	}
	var plan CheckPlan
	if err := yaml.Unmarshal(content, &plan); err != nil {
		return nil, errors.Wrap(err, "unmarshaling plan")
	}
	return &plan, nil
}
