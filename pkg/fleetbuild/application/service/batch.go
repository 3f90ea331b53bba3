package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	applogger "github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/logger"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
)

type Clock func() time.Time

type RunOptions struct {
	// UseCache lets the versioned build reuse the build cache. The latest build always does.
	UseCache bool
	// Only restricts the run to the entry with this name.
	Only model.EntryName
}

type BatchRunner interface {
	Run(ctx context.Context, options RunOptions) (model.BatchOutcome, error)
}

func NewBatchRunner(
	buildContext string,
	clock Clock,
	logger applogger.Logger,
	manifestReader ManifestReader,
	repositoryProvider RepositoryProvider,
	tagComputer TagComputer,
	imageBuilder ImageBuilder,
) BatchRunner {
	return &batchRunner{
		buildContext:       buildContext,
		clock:              clock,
		logger:             logger,
		manifestReader:     manifestReader,
		repositoryProvider: repositoryProvider,
		tagComputer:        tagComputer,
		imageBuilder:       imageBuilder,
	}
}

type batchRunner struct {
	buildContext string
	clock        Clock

	logger             applogger.Logger
	manifestReader     ManifestReader
	repositoryProvider RepositoryProvider
	tagComputer        TagComputer
	imageBuilder       ImageBuilder
}

// Run executes the pipeline for every manifest entry, or for the one named in options.Only.
// Entry failures are reported in the outcome; only a missing manifest, an unknown image
// name, an unreadable manifest or cancellation return an error.
func (runner batchRunner) Run(ctx context.Context, options RunOptions) (model.BatchOutcome, error) {
	var outcome model.BatchOutcome
	entries, err := runner.manifestReader.Entries()
	if err != nil {
		return outcome, err
	}

	found := false
	for entry, err := range entries {
		if err != nil {
			var lineErr *model.ManifestLineError
			if !errors.As(err, &lineErr) {
				return outcome, err
			}
			runner.logger.Warning(fmt.Sprintf("skip manifest line %v: %v", lineErr.Line, lineErr))
			outcome.SkippedLines = append(outcome.SkippedLines, lineErr.Line)
			continue
		}
		if options.Only != "" && entry.Name != options.Only {
			continue
		}
		if err = ctx.Err(); err != nil {
			return outcome, err
		}
		outcome.Results = append(outcome.Results, runner.runPipeline(ctx, entry, options.UseCache))
		if options.Only != "" {
			found = true
			break
		}
	}

	if options.Only != "" && !found {
		return outcome, errors.Wrapf(model.ErrImageNotFound, "image %q is not in the manifest", options.Only)
	}
	runner.logSummary(outcome)
	return outcome, nil
}

func (runner batchRunner) logSummary(outcome model.BatchOutcome) {
	for _, result := range outcome.Results {
		if result.Success() {
			runner.logger.Info(fmt.Sprintf("  ok     %v:%v", result.EntryName, result.Tag))
			continue
		}
		runner.logger.Info(fmt.Sprintf("  failed %v at %v", result.EntryName, result.Stage))
	}
	failed := len(outcome.Failed())
	msg := fmt.Sprintf("%v images processed, %v failed, %v manifest lines skipped",
		len(outcome.Results), failed, len(outcome.SkippedLines))
	if failed > 0 {
		runner.logger.Warning(msg)
		return
	}
	runner.logger.Info(msg)
}
