package dependency

import (
	"context"
	"errors"
	"time"

	applogger "github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/logger"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/service"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/infrastructure/builder"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/infrastructure/command"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/infrastructure/manifest"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/infrastructure/provider"
)

type containerKey struct{}

type Container interface {
	BatchRunner() service.BatchRunner
	Logger() applogger.Logger
}

func NewDependencyContainer(
	logger applogger.Logger,
	fleet model.Fleet,
	silentMode bool,
) Container {
	runner := command.NewCommandRunner(logger, silentMode)
	repositoryProvider := newRepositoryProvider(fleet, runner)
	batchRunner := service.NewBatchRunner(
		fleet.BuildContext,
		time.Now,
		logger,
		manifest.NewReader(fleet.Manifest),
		repositoryProvider,
		service.NewTagComputer(logger, repositoryProvider),
		builder.NewComposeBuilder(logger, fleet.Compose, runner),
	)

	return &container{
		batchRunner: batchRunner,
		logger:      logger,
	}
}

func newRepositoryProvider(fleet model.Fleet, runner command.Runner) service.RepositoryProvider {
	if fleet.GitBackend == model.GitBackendNative {
		return provider.NewGoGitRepositoryProvider(fleet.RepoSrc)
	}
	return provider.NewRepositoryProvider(fleet.RepoSrc, runner)
}

type container struct {
	batchRunner service.BatchRunner
	logger      applogger.Logger
}

func (c *container) BatchRunner() service.BatchRunner {
	return c.batchRunner
}

func (c *container) Logger() applogger.Logger {
	return c.logger
}

func ContainerFromContext(ctx context.Context) (Container, error) {
	v := ctx.Value(containerKey{})
	if c, ok := v.(Container); ok {
		return c, nil
	}
	return nil, errors.New("dependency container not found")
}

func ContainerToContext(ctx context.Context, c Container) context.Context {
	return context.WithValue(ctx, containerKey{}, c)
}
