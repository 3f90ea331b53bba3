package main

import (
	stdcontext "context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/service"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/infrastructure/config/fleetconfig"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/infrastructure/dependency"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/infrastructure/logger"
)

type buildOptions struct {
	configPath string
	manifest   string
	gitBackend string
	logLevel   string
	useCache   bool
	image      string
	silentMode bool
}

func build(ctx stdcontext.Context, options buildOptions) error {
	fleet, err := fleetconfig.Load(options.configPath, fleetconfig.Overrides{
		Manifest:   options.manifest,
		GitBackend: options.gitBackend,
	})
	if err != nil {
		return err
	}

	sessionLogger, sessionFile, err := logger.NewSessionLogger(os.Stderr, fleet.LogDir, options.logLevel, time.Now())
	if err != nil {
		return err
	}
	defer sessionFile.Close()

	ctx = dependency.ContainerToContext(ctx, dependency.NewDependencyContainer(sessionLogger, fleet, options.silentMode))
	err = runBatch(ctx, service.RunOptions{
		UseCache: options.useCache,
		Only:     options.image,
	})
	if err != nil {
		sessionLogger.Error(err, "build failed")
		return cli.Exit("", 1)
	}
	return nil
}

func runBatch(ctx stdcontext.Context, options service.RunOptions) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	outcome, err := dependencyContainer.BatchRunner().Run(ctx, options)
	if err != nil {
		return err
	}
	if failed := outcome.Failed(); len(failed) > 0 {
		return fmt.Errorf("%v of %v images failed", len(failed), len(outcome.Results))
	}
	return nil
}
