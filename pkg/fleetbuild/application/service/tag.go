package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	applogger "github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/logger"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
)

const DateTagLayout = "20060102"

func DateTag(now time.Time) string {
	return now.Format(DateTagLayout)
}

// FormatBuildTag combines an optional repository tag with the date tag.
// A single leading "v" is dropped; the tag is otherwise opaque.
func FormatBuildTag(headTag, dateTag string) string {
	if headTag == "" {
		return dateTag
	}
	return fmt.Sprintf("%v.%v", strings.TrimPrefix(headTag, "v"), dateTag)
}

// SelectHeadTag picks the lexicographically smallest tag, the first line `git tag --points-at HEAD` prints.
func SelectHeadTag(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return slices.Min(tags)
}

type TagComputer interface {
	ComputeTag(ctx context.Context, name model.EntryName, dateTag string) string
}

func NewTagComputer(logger applogger.Logger, repositoryProvider RepositoryProvider) TagComputer {
	return &tagComputer{
		logger:             logger,
		repositoryProvider: repositoryProvider,
	}
}

type tagComputer struct {
	logger             applogger.Logger
	repositoryProvider RepositoryProvider
}

func (computer tagComputer) ComputeTag(ctx context.Context, name model.EntryName, dateTag string) string {
	tags, err := computer.repositoryProvider.HeadTags(ctx, name)
	if err != nil {
		computer.logger.Warning(fmt.Sprintf("can not read HEAD tags of \"%v\", using date tag only: %v", name, err))
		return dateTag
	}
	if len(tags) > 1 {
		computer.logger.Debug(fmt.Sprintf("%v tags point at HEAD of \"%v\": %v", len(tags), name, tags))
	}
	return FormatBuildTag(SelectHeadTag(tags), dateTag)
}
