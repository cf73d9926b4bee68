// Package ncheck wires the check engine into a runnable service: it
// loads a dataset snapshot, runs the enabled suites and renders the
// combined report.
package ncheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/gridops/nc-check/checks"
	"github.com/gridops/nc-check/dataset"
	"github.com/gridops/nc-check/metrics"
	"github.com/gridops/nc-check/reporting"
	"github.com/gridops/nc-check/runner"
	"github.com/gridops/nc-check/suite"
)

type ncheck struct {
	ctx     context.Context
	config  *Config
	version string
	runner  *runner.Runner
	result  *runner.CombinedReport

	running atomic.Bool
}

func New(ctx context.Context, config *Config, version string) (*ncheck, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.WithFields(map[string]any{
		"dataset": config.DatasetPath,
		"checks":  config.ChecksEnabled,
	}).Debug("creating ncheck")

	r, err := checks.NewDefaultRunner(config.Log)
	if err != nil {
		return nil, errors.Wrap(err, "creating runner")
	}

	return &ncheck{
		ctx:     ctx,
		config:  config,
		version: version,
		runner:  r,
	}, nil
}

// Start loads the dataset, runs the enabled checks and renders the
// results. A failing run returns a CheckFailureError so the caller
// can map it to an exit code.
func (n *ncheck) Start(ctx context.Context) error {
	n.config.Log.Info("starting ncheck")
	n.ctx = ctx
	n.running.Store(true)

	ds, err := dataset.Load(n.config.DatasetPath)
	if err != nil {
		return NewRuntimeError(errors.Wrap(err, "loading dataset"))
	}
	ds, err = dataset.Canonicalize(ds, dataset.CanonicalizeOptions{
		RenameAliases: true,
		Strict:        n.config.StrictCoords,
	})
	if err != nil {
		return NewRuntimeError(errors.Wrap(err, "canonicalizing dataset"))
	}

	result, err := n.runner.RunSuiteChecks(ds, n.config.ChecksEnabled, n.config.OptionsByCheck)
	if err != nil {
		n.config.Log.WithError(err).Error("error running checks")
		return NewRuntimeError(err)
	}
	n.result = result

	datasetName := filepath.Base(n.config.DatasetPath)
	data := reporting.NewReportBuilder(datasetName).Build(result)
	reporting.NewTableReporter(os.Stdout).Render(data)

	if err := n.emitReports(result, data); err != nil {
		return NewRuntimeError(err)
	}
	n.emitMetrics(datasetName, result)

	n.config.Log.WithFields(map[string]any{
		"run_id": result.RunID,
		"status": result.Summary.OverallStatus,
	}).Info("ncheck finished")

	if !result.OK {
		return NewCheckFailureError(fmt.Sprintf("%d of %d checks failed",
			result.Summary.FailingChecks, result.Summary.ChecksRun))
	}
	return nil
}

func (n *ncheck) emitReports(result *runner.CombinedReport, data *reporting.ReportData) error {
	if n.config.OutputDir == "" {
		return nil
	}
	if err := reporting.NewJSONSink(n.config.OutputDir).Complete(result); err != nil {
		return errors.Wrap(err, "writing JSON report")
	}
	if n.config.EmitHTML {
		sink, err := reporting.NewHTMLSink(n.config.OutputDir)
		if err != nil {
			return err
		}
		if err := sink.Complete(data); err != nil {
			return errors.Wrap(err, "writing HTML summary")
		}
	}
	return nil
}

func (n *ncheck) emitMetrics(datasetName string, result *runner.CombinedReport) {
	for _, item := range result.Checks {
		metrics.RecordCheck(datasetName, result.RunID, item.Group, item.Name, suite.KindOf(item.Status))
	}
	metrics.RecordRun(
		datasetName,
		result.RunID,
		string(result.Summary.OverallStatus),
		result.Summary.ChecksRun,
		result.Summary.FailingChecks,
		result.Duration,
	)
}

// Stop stops the ncheck service.
func (n *ncheck) Stop(ctx context.Context) error {
	n.running.Store(false)
	n.config.Log.Info("ncheck stopped")
	return nil
}

// Stopped returns true if the ncheck service is stopped.
func (n *ncheck) Stopped() bool {
	return !n.running.Load()
}
