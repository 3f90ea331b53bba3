package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/infrastructure/logger"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	ctx = listenOSKillSignalsContext(ctx)
	mainLogger := logger.NewTextLogger()

	app := &cli.App{
		Name:      "fleetbuild",
		Usage:     "build and push the container images listed in the manifest",
		ArgsUsage: "[image]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "fleetbuild.yaml",
				EnvVars: []string{"FLEETBUILD_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "manifest",
				Usage: "tab-delimited manifest, overrides the config file",
			},
			&cli.BoolFlag{
				Name:  "use-cache",
				Usage: "allow the versioned build to reuse the build cache",
			},
			&cli.StringFlag{
				Name:  "git-backend",
				Usage: "\"" + model.GitBackendCLI + "\" or \"" + model.GitBackendNative + "\", overrides the config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return cli.Exit("at most one image name can be given", 1)
			}
			return build(c.Context, buildOptions{
				configPath: c.String("config"),
				manifest:   c.String("manifest"),
				gitBackend: c.String("git-backend"),
				logLevel:   c.String("log-level"),
				useCache:   c.Bool("use-cache"),
				image:      c.Args().First(),
				silentMode: os.Getenv("SILENT") != "",
			})
		},
	}
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		mainLogger.FatalError(err, "failed execute command "+strings.Join(os.Args, " "))
	}
}

func listenOSKillSignalsContext(ctx context.Context) context.Context {
	var cancelFunc context.CancelFunc
	ctx, cancelFunc = context.WithCancel(ctx)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-ch:
			cancelFunc()
		case <-ctx.Done():
			return
		}
	}()
	return ctx
}
