package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/service"
)

var (
	apiEntry = model.ManifestEntry{Name: "api", GitSrc: "git@example.com:api.git", Registry: "registry.example.com"}
	webEntry = model.ManifestEntry{Name: "web", GitSrc: "git@example.com:web.git"}
)

type sut struct {
	logger   *fakeLogger
	provider *fakeProvider
	builder  *fakeBuilder
	reader   service.ManifestReader
}

func newSUT(t *testing.T, reader service.ManifestReader) *sut {
	t.Helper()
	return &sut{
		logger:   &fakeLogger{},
		provider: newFakeProvider(t),
		builder:  &fakeBuilder{},
		reader:   reader,
	}
}

func (s *sut) run(options service.RunOptions) (model.BatchOutcome, error) {
	runner := service.NewBatchRunner(
		"compose-build",
		testClock,
		s.logger,
		s.reader,
		s.provider,
		service.NewTagComputer(s.logger, s.provider),
		s.builder,
	)
	return runner.Run(context.Background(), options)
}

func (s *sut) contextDir(name string) string {
	return filepath.Join(s.provider.RepositoryPath(name), "compose-build")
}

func TestRunBuildsVersionedThenLatest(t *testing.T) {
	s := newSUT(t, entries(apiEntry))
	s.provider.tags["api"] = []string{"v1.2.3"}

	outcome, err := s.run(service.RunOptions{})

	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, 0, outcome.ExitCode())
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, model.PipelineResult{
		EntryName: "api",
		Tag:       "1.2.3.20240115",
		Stage:     model.StagePushLatest,
	}, outcome.Results[0])
	assert.Equal(t, []buildCall{
		{workDir: s.contextDir("api"), useCache: false, registry: "registry.example.com", tag: ptr("1.2.3.20240115")},
		{workDir: s.contextDir("api"), useCache: true, registry: "registry.example.com"},
	}, s.builder.calls)
}

func TestRunClonesMissingAndPullsExisting(t *testing.T) {
	s := newSUT(t, entries(apiEntry, webEntry))
	require.NoError(t, os.MkdirAll(s.contextDir("web"), 0o755))

	_, err := s.run(service.RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, []string{"clone api", "pull web"}, s.provider.calls)
}

func TestRunLatestAlwaysUsesCache(t *testing.T) {
	for _, useCache := range []bool{false, true} {
		s := newSUT(t, entries(webEntry))

		_, err := s.run(service.RunOptions{UseCache: useCache})

		require.NoError(t, err)
		require.Len(t, s.builder.calls, 2)
		assert.Equal(t, useCache, s.builder.calls[0].useCache)
		assert.Equal(t, "20240115", *s.builder.calls[0].tag)
		assert.True(t, s.builder.calls[1].useCache)
		assert.Nil(t, s.builder.calls[1].tag)
	}
}

func TestRunSyncFailureSkipsBuildAndContinues(t *testing.T) {
	s := newSUT(t, entries(apiEntry, webEntry))
	s.provider.failSync["api"] = errors.New("exit status 128")

	outcome, err := s.run(service.RunOptions{})

	require.NoError(t, err)
	assert.False(t, outcome.Succeeded())
	assert.Equal(t, 1, outcome.ExitCode())
	require.Len(t, outcome.Results, 2)

	failed := outcome.Results[0]
	assert.Equal(t, model.StageSync, failed.Stage)
	requireKind(t, model.KindSyncFailed, failed.Err)
	var pipelineErr *model.PipelineError
	require.True(t, errors.As(failed.Err, &pipelineErr))
	assert.Equal(t, "api", pipelineErr.Entry)

	assert.True(t, outcome.Results[1].Success())
	for _, call := range s.builder.calls {
		assert.Equal(t, s.contextDir("web"), call.workDir)
	}
	assert.Len(t, s.builder.calls, 2)
}

func TestRunMissingBuildContext(t *testing.T) {
	s := newSUT(t, entries(apiEntry))
	s.provider.noContext["api"] = true

	outcome, err := s.run(service.RunOptions{})

	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, model.StageLocateContext, outcome.Results[0].Stage)
	requireKind(t, model.KindBuildContextMissing, outcome.Results[0].Err)
	assert.Empty(t, s.builder.calls)
}

func TestRunBuildContextMustBeDirectory(t *testing.T) {
	s := newSUT(t, entries(webEntry))
	require.NoError(t, os.MkdirAll(s.provider.RepositoryPath("web"), 0o755))
	require.NoError(t, os.WriteFile(s.contextDir("web"), []byte("not a dir"), 0o644))
	s.provider.noContext["web"] = true

	outcome, err := s.run(service.RunOptions{})

	require.NoError(t, err)
	requireKind(t, model.KindBuildContextMissing, outcome.Results[0].Err)
	assert.Empty(t, s.builder.calls)
}

func TestRunStopsAtFailingStage(t *testing.T) {
	for _, tc := range []struct {
		name      string
		fail      func(call buildCall) error
		stage     model.Stage
		kind      model.ErrorKind
		callCount int
	}{
		{
			name: "versioned build",
			fail: func(call buildCall) error {
				if call.tag != nil {
					return model.WithKind(errors.New("build"), model.KindBuildFailed)
				}
				return nil
			},
			stage:     model.StageBuildVersioned,
			kind:      model.KindBuildFailed,
			callCount: 1,
		},
		{
			name: "versioned push",
			fail: func(call buildCall) error {
				if call.tag != nil {
					return model.WithKind(errors.New("push"), model.KindPushFailed)
				}
				return nil
			},
			stage:     model.StagePushVersioned,
			kind:      model.KindPushFailed,
			callCount: 1,
		},
		{
			name: "latest build",
			fail: func(call buildCall) error {
				if call.tag == nil {
					return model.WithKind(errors.New("build"), model.KindBuildFailed)
				}
				return nil
			},
			stage:     model.StageBuildLatest,
			kind:      model.KindBuildFailed,
			callCount: 2,
		},
		{
			name: "latest push",
			fail: func(call buildCall) error {
				if call.tag == nil {
					return model.WithKind(errors.New("push"), model.KindPushFailed)
				}
				return nil
			},
			stage:     model.StagePushLatest,
			kind:      model.KindPushFailed,
			callCount: 2,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := newSUT(t, entries(apiEntry))
			s.builder.fail = tc.fail

			outcome, err := s.run(service.RunOptions{})

			require.NoError(t, err)
			require.Len(t, outcome.Results, 1)
			assert.Equal(t, tc.stage, outcome.Results[0].Stage)
			requireKind(t, tc.kind, outcome.Results[0].Err)
			assert.Len(t, s.builder.calls, tc.callCount)
			assert.Len(t, s.logger.messages("error"), 1)
		})
	}
}

func TestRunOneFailingOneSucceeding(t *testing.T) {
	s := newSUT(t, entries(apiEntry, webEntry))
	s.builder.fail = func(call buildCall) error {
		if call.workDir == s.contextDir("api") && call.tag == nil {
			return model.WithKind(errors.New("denied"), model.KindPushFailed)
		}
		return nil
	}

	outcome, err := s.run(service.RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, outcome.ExitCode())
	require.Len(t, outcome.Results, 2)
	assert.Equal(t, model.StagePushLatest, outcome.Results[0].Stage)
	assert.False(t, outcome.Results[0].Success())
	assert.True(t, outcome.Results[1].Success())
	assert.Len(t, s.builder.calls, 4)
	assert.Len(t, outcome.Failed(), 1)
}

func TestRunSkipsMalformedLines(t *testing.T) {
	reader := fakeReader{items: []readItem{
		{entry: apiEntry},
		{err: &model.ManifestLineError{Line: 2, Fields: 1}},
		{entry: webEntry},
	}}
	s := newSUT(t, reader)

	outcome, err := s.run(service.RunOptions{})

	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Len(t, outcome.Results, 2)
	assert.Equal(t, []int{2}, outcome.SkippedLines)
	warnings := s.logger.messages("warning")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "line 2")
}

func TestRunManifestReadErrorIsFatal(t *testing.T) {
	readErr := errors.New("disk gone")
	reader := fakeReader{items: []readItem{{entry: apiEntry}, {err: readErr}, {entry: webEntry}}}
	s := newSUT(t, reader)

	outcome, err := s.run(service.RunOptions{})

	require.ErrorIs(t, err, readErr)
	assert.Len(t, outcome.Results, 1)
}

func TestRunMissingManifest(t *testing.T) {
	s := newSUT(t, fakeReader{err: model.WithKind(errors.New("images.tsv"), model.KindManifestFileMissing)})

	outcome, err := s.run(service.RunOptions{})

	requireKind(t, model.KindManifestFileMissing, err)
	assert.Empty(t, outcome.Results)
	assert.Empty(t, s.provider.calls)
}

func TestRunSingleEntry(t *testing.T) {
	s := newSUT(t, entries(apiEntry, webEntry))

	outcome, err := s.run(service.RunOptions{Only: "web"})

	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "web", outcome.Results[0].EntryName)
	assert.Equal(t, []string{"clone web"}, s.provider.calls)
}

func TestRunSingleEntryNotFound(t *testing.T) {
	s := newSUT(t, entries(apiEntry, webEntry))

	outcome, err := s.run(service.RunOptions{Only: "worker"})

	requireKind(t, model.KindImageNotFound, err)
	assert.Contains(t, err.Error(), "worker")
	assert.Empty(t, outcome.Results)
	assert.Empty(t, s.provider.calls)
	assert.Empty(t, s.builder.calls)
}

func TestRunKeepsWorkingDirectory(t *testing.T) {
	before, err := os.Getwd()
	require.NoError(t, err)
	s := newSUT(t, entries(apiEntry, webEntry))
	s.provider.failSync["web"] = errors.New("boom")

	_, err = s.run(service.RunOptions{})
	require.NoError(t, err)

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunStopsWhenCancelled(t *testing.T) {
	s := newSUT(t, entries(apiEntry))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := service.NewBatchRunner("compose-build", testClock, s.logger, s.reader, s.provider,
		service.NewTagComputer(s.logger, s.provider), s.builder)
	_, err := runner.Run(ctx, service.RunOptions{})

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.provider.calls)
}
