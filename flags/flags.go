package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "NCHECK"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Dataset = &cli.StringFlag{
		Name:     "dataset",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("DATASET"),
		Usage:    "Path to the dataset snapshot to check (eg. 'sst.yaml')",
	}
	Plan = &cli.StringFlag{
		Name:    "plan",
		Value:   "",
		EnvVars: prefixEnvVars("PLAN"),
		Usage:   "Path to a check plan file enabling suites and setting their options (eg. 'plan.yaml')",
	}
	Checks = &cli.StringSliceFlag{
		Name:    "check",
		EnvVars: prefixEnvVars("CHECKS"),
		Usage:   "Suite key to enable, repeatable (eg. 'compliance'). Overrides the plan's enabled set",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		Value:   "",
		EnvVars: prefixEnvVars("OUTPUT_DIR"),
		Usage:   "Directory for JSON and HTML report output. Empty disables file output",
	}
	HTML = &cli.BoolFlag{
		Name:    "html",
		Value:   false,
		EnvVars: prefixEnvVars("HTML"),
		Usage:   "Also write an HTML summary under the output directory",
	}
	StrictCoords = &cli.BoolFlag{
		Name:    "strict-coords",
		Value:   false,
		EnvVars: prefixEnvVars("STRICT_COORDS"),
		Usage:   "Fail when the canonical time, lat or lon coordinates are missing",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "Log level (trace, debug, info, warn, error)",
	}
	LogFormat = &cli.StringFlag{
		Name:    "log-format",
		Value:   "text",
		EnvVars: prefixEnvVars("LOG_FORMAT"),
		Usage:   "Log format (text, json)",
	}
)

var requiredFlags = []cli.Flag{
	Dataset,
}

var optionalFlags = []cli.Flag{
	Plan,
	Checks,
	OutputDir,
	HTML,
	StrictCoords,
	LogLevel,
	LogFormat,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
