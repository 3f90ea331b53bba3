package builder

import (
	stdcontext "context"
	"fmt"
	"slices"
	"time"

	"github.com/pkg/errors"

	applogger "github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/logger"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/service"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/infrastructure/command"
)

// NewComposeBuilder builds and pushes through a compose tool. The target registry and tag
// reach the compose file through the configured environment variables.
func NewComposeBuilder(
	logger applogger.Logger,
	compose model.Compose,
	runner command.Runner,
) service.ImageBuilder {
	return &composeBuilder{
		logger:  logger,
		compose: compose,
		runner:  runner,
	}
}

type composeBuilder struct {
	logger  applogger.Logger
	compose model.Compose
	runner  command.Runner
}

func (builder composeBuilder) BuildAndPush(ctx stdcontext.Context, workDir string, config model.BuildConfig) error {
	env, unset := builder.environment(config)

	buildArgs := []string{"build"}
	if !config.UseCache {
		buildArgs = append(buildArgs, "--no-cache")
	}
	err := builder.run(ctx, "build", workDir, env, unset, buildArgs)
	if err != nil {
		return model.WithKind(err, model.KindBuildFailed)
	}
	err = builder.run(ctx, "push", workDir, env, unset, []string{"push"})
	return model.WithKind(err, model.KindPushFailed)
}

// environment maps the build configuration onto the variables the compose file reads.
// Without a tag the tag variable is removed so the compose default applies.
func (builder composeBuilder) environment(config model.BuildConfig) (env, unset []string) {
	env = []string{fmt.Sprintf("%v=%v", builder.compose.RegistryEnv, config.Registry)}
	if config.Tag != nil {
		env = append(env, fmt.Sprintf("%v=%v", builder.compose.TagEnv, *config.Tag))
		return env, nil
	}
	return env, []string{builder.compose.TagEnv}
}

func (builder composeBuilder) run(
	ctx stdcontext.Context,
	step string,
	workDir string,
	env, unset []string,
	args []string,
) error {
	builder.logger.Info(fmt.Sprintf("start %v in %v...", step, workDir))
	start := time.Now()
	defer func() {
		builder.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}()
	output, err := builder.runner.Execute(ctx, command.Command{
		WorkDir:    workDir,
		Executable: builder.compose.Executable,
		Args:       append(slices.Clone(builder.compose.Args), args...),
		Env:        env,
		Unset:      unset,
		Verbose:    true,
	})
	if output != "" {
		builder.logger.Debug(output)
	}
	return errors.Wrapf(err, "compose %v failed", step)
}
