// Package main patches a title's server URL from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/micromdm/nanolib/envflag"
	"github.com/micromdm/nanolib/log"
	"github.com/micromdm/nanolib/log/stdlogfmt"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-refresher/internal/config"
	"github.com/askiada/go-refresher/internal/logkeys"
	"github.com/askiada/go-refresher/pkg/accessor/ftp"
	"github.com/askiada/go-refresher/pkg/pipeline"
	"github.com/askiada/go-refresher/pkg/pipeline/drawer"
	"github.com/askiada/go-refresher/pkg/pipeline/measure"
	"github.com/askiada/go-refresher/pkg/pipeline/model"
	"github.com/askiada/go-refresher/pkg/pipelines"
	"github.com/askiada/go-refresher/pkg/workspace"
)

// overridden by -ldflags -X
var version = "unknown"

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	envflag.Parse("REFRESHER_", []string{"version"})

	if flags.Version {
		fmt.Println(version)
		return
	}

	cfg, err := flags.Config()
	if err != nil {
		stdlogfmt.New().Info(logkeys.Message, "configuration", logkeys.Error, err)
		os.Exit(1)
	}
	logger := stdlogfmt.New(stdlogfmt.WithDebugFlag(cfg.Debug))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, logger)
	if err != nil {
		logger.Info(logkeys.Message, "refresher failed", logkeys.Error, err)
		stop()
		os.Exit(1)
	}
}

func ftpOptions(cfg *config.Config) []ftp.Option {
	opts := []ftp.Option{ftp.WithTimeout(cfg.FTPTimeout)}
	if cfg.FTPUser != "" {
		opts = append(opts, ftp.WithCredentials(cfg.FTPUser, cfg.FTPPassword))
	}

	return opts
}

func run(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	def, err := pipelines.Lookup(cfg.Pipeline, pipelines.Options{
		CompanionFile: cfg.Companion,
		FTPOptions:    ftpOptions(cfg),
	})
	if err != nil {
		return err
	}

	msr := measure.NewDefaultMeasure()
	hooks := []model.PipelineOption{measure.PipelineMeasure(msr)}
	if cfg.Graph != "" {
		hooks = append(hooks, drawer.PipelineDrawer(drawer.NewDOTDrawer(cfg.Graph), msr))
	}

	pipe, err := pipeline.New(def,
		pipeline.WithLogger(logger.With("service", "pipeline")),
		pipeline.WithWorkspace(workspace.New(cfg.Workspace, cfg.WorkspaceCache)),
		pipeline.WithHooks(hooks...),
	)
	if err != nil {
		return errors.Wrap(err, "unable to create pipeline")
	}
	pipe.Initialize()
	defer pipe.Reset()

	for id, value := range cfg.Inputs {
		pipe.SetInput(id, value)
	}

	if cfg.List {
		return listTitles(ctx, pipe)
	}

	if cfg.Discover != "" {
		resp, err := pipe.InvokeAutoDiscover(ctx, cfg.Discover)
		if err != nil {
			return err
		}
		if resp == nil {
			logger.Info(logkeys.Message, "server does not support autodiscover", logkeys.Endpoint, cfg.Discover)
		} else {
			logger.Info(logkeys.Message, "autodiscovered", "server", resp.ServerBrand, logkeys.Endpoint, resp.URL)
		}
	}

	err = execute(ctx, pipe, cfg.ProgressInterval, logger)
	if err != nil {
		var missing *pipeline.MissingInputError
		if errors.As(err, &missing) {
			logMissing(pipe, missing.ID, logger)
		}
		return err
	}

	if pipe.State() == pipeline.Cancelled {
		logger.Info(logkeys.Message, "run cancelled")
		return nil
	}
	report(pipe, msr, logger)

	return nil
}

// execute runs the pipeline while reporting its progress every interval.
func execute(ctx context.Context, pipe *pipeline.Pipeline, interval time.Duration, logger log.Logger) error {
	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(done)
		return pipe.Execute(gctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				name, idx, ok := pipe.CurrentStep()
				if !ok {
					continue
				}
				logger.Info(
					logkeys.Message, "progress",
					logkeys.StepName, name,
					logkeys.StepIndex, idx,
					"step_progress", fmt.Sprintf("%.0f%%", pipe.CurrentStepProgress()*100),
					"progress", fmt.Sprintf("%.0f%%", pipe.Progress()*100),
				)
			}
		}
	})

	return g.Wait()
}

func listTitles(ctx context.Context, pipe *pipeline.Pipeline) error {
	titles, err := pipe.DownloadTitleList(ctx)
	if err != nil {
		return err
	}
	for _, t := range titles {
		fmt.Printf("%s\t%s\n", t.ID, t.Path)
	}

	return nil
}

func logMissing(pipe *pipeline.Pipeline, id string, logger log.Logger) {
	for _, in := range pipe.RequiredInputs() {
		if in.ID != id {
			continue
		}
		logger.Info(
			logkeys.Message, "set it with -input "+in.ID+"=<value>",
			"input", in.Name,
			"example", in.Placeholder,
		)
	}
}

func report(pipe *pipeline.Pipeline, msr measure.Measure, logger log.Logger) {
	for i, name := range pipe.StepNames() {
		info := &model.StepInfo{Name: name, Index: i + 1}
		mt := msr.GetMetric(info.Key())
		if mt == nil {
			continue
		}
		logger.Debug(logkeys.Message, "step timing", logkeys.StepName, info.Key(), logkeys.Elapsed, mt.AVGDuration().String())
	}
	logger.Info(logkeys.Message, "patch applied", logkeys.Pipeline, pipe.ID(), logkeys.RunID, pipe.RunID())
}
