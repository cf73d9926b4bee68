package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	ncheck "github.com/gridops/nc-check"
	"github.com/gridops/nc-check/exitcodes"
	"github.com/gridops/nc-check/flags"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "ncheck"
	app.Usage = "Dataset Quality Checker"
	app.Description = "ncheck runs quality check suites against gridded dataset snapshots"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if ncheck.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if ncheck.IsCheckFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.CheckFailure))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.CheckFailure))
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}

func run(ctx *cli.Context) error {
	log, err := newLogger(ctx)
	if err != nil {
		return ncheck.NewRuntimeError(err)
	}

	cfg, err := ncheck.NewConfig(ctx, log, ctx.String(flags.Dataset.Name))
	if err != nil {
		return ncheck.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	svc, err := ncheck.New(ctx.Context, cfg, Version)
	if err != nil {
		return ncheck.NewRuntimeError(fmt.Errorf("failed to create ncheck: %w", err))
	}

	if err := svc.Start(ctx.Context); err != nil {
		return err
	}
	return svc.Stop(ctx.Context)
}

func newLogger(ctx *cli.Context) (logrus.FieldLogger, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(ctx.String(flags.LogLevel.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	if ctx.String(flags.LogFormat.Name) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, nil
}
