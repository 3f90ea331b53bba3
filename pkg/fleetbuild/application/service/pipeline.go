package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
)

// runPipeline drives one entry through sync, context lookup and both build/push rounds.
// It never returns an error: the failing stage is recorded in the result.
func (runner batchRunner) runPipeline(ctx context.Context, entry model.ManifestEntry, useCache bool) model.PipelineResult {
	result := model.PipelineResult{EntryName: entry.Name}
	fail := func(stage model.Stage, err error) model.PipelineResult {
		result.Stage = stage
		result.Err = &model.PipelineError{
			Entry: entry.Name,
			Stage: stage,
			Err:   model.WithKind(err, stage.Kind()),
		}
		runner.logger.Error(result.Err, fmt.Sprintf("image \"%v\" failed at %v", entry.Name, stage))
		return result
	}

	runner.logger.Info(fmt.Sprintf("start image \"%v\"...", entry.Name))
	start := time.Now()
	defer func() {
		runner.logger.Info(fmt.Sprintf("image \"%v\" done in %v", entry.Name, time.Since(start).String()))
	}()

	err := runner.synchronize(ctx, entry)
	if err != nil {
		return fail(model.StageSync, err)
	}

	workDir, err := runner.locateBuildContext(entry.Name)
	if err != nil {
		return fail(model.StageLocateContext, err)
	}

	result.Tag = runner.tagComputer.ComputeTag(ctx, entry.Name, DateTag(runner.clock()))
	runner.logger.Info(fmt.Sprintf("build tag for \"%v\" is \"%v\"", entry.Name, result.Tag))

	err = runner.buildAndPush(ctx, entry, workDir, model.VersionedBuild(useCache, entry.Registry, result.Tag))
	if err != nil {
		return fail(stageOf(err, model.StageBuildVersioned, model.StagePushVersioned), err)
	}

	err = runner.buildAndPush(ctx, entry, workDir, model.LatestBuild(entry.Registry))
	if err != nil {
		return fail(stageOf(err, model.StageBuildLatest, model.StagePushLatest), err)
	}

	result.Stage = model.StagePushLatest
	return result
}

func (runner batchRunner) synchronize(ctx context.Context, entry model.ManifestEntry) error {
	exist, err := runner.repositoryProvider.Exist(entry.Name)
	if err != nil {
		return err
	}
	if exist {
		runner.logger.Info(fmt.Sprintf("pull \"%v\"...", entry.Name))
		return runner.repositoryProvider.Pull(ctx, entry)
	}
	runner.logger.Info(fmt.Sprintf("clone \"%v\" from %v...", entry.Name, entry.GitSrc))
	return runner.repositoryProvider.Clone(ctx, entry)
}

func (runner batchRunner) locateBuildContext(name model.EntryName) (string, error) {
	workDir := filepath.Join(runner.repositoryProvider.RepositoryPath(name), runner.buildContext)
	info, err := os.Stat(workDir)
	if err != nil {
		return "", errors.Wrapf(err, "build context %v not found", workDir)
	}
	if !info.IsDir() {
		return "", errors.Errorf("build context %v is not a directory", workDir)
	}
	return workDir, nil
}

func (runner batchRunner) buildAndPush(
	ctx context.Context,
	entry model.ManifestEntry,
	workDir string,
	config model.BuildConfig,
) error {
	tag := "default tag"
	if config.Tag != nil {
		tag = *config.Tag
	}
	runner.logger.Info(fmt.Sprintf(
		"build and push \"%v\" (%v, registry = %q, cache = %v)...", entry.Name, tag, config.Registry, config.UseCache,
	))
	return runner.imageBuilder.BuildAndPush(ctx, workDir, config)
}

func stageOf(err error, buildStage, pushStage model.Stage) model.Stage {
	if errors.Is(err, model.ErrPushFailed) {
		return pushStage
	}
	return buildStage
}
