package service

import (
	"context"
	"iter"

	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
)

type ManifestReader interface {
	Entries() (iter.Seq2[model.ManifestEntry, error], error)
}

type RepositoryProvider interface {
	Exist(name model.EntryName) (bool, error)
	Clone(ctx context.Context, entry model.ManifestEntry) error
	Pull(ctx context.Context, entry model.ManifestEntry) error
	// HeadTags lists the tags pointing at the current HEAD commit, in no particular order.
	HeadTags(ctx context.Context, name model.EntryName) ([]string, error)
	RepositoryPath(name model.EntryName) string
}

type ImageBuilder interface {
	// BuildAndPush builds in workDir and pushes only if the build succeeded.
	BuildAndPush(ctx context.Context, workDir string, config model.BuildConfig) error
}
