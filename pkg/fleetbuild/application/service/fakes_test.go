package service_test

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
)

var testDate = time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

func testClock() time.Time {
	return testDate
}

type logLine struct {
	level string
	msg   string
}

type fakeLogger struct {
	lines []logLine
}

func (l *fakeLogger) Debug(msg string)   { l.lines = append(l.lines, logLine{"debug", msg}) }
func (l *fakeLogger) Info(msg string)    { l.lines = append(l.lines, logLine{"info", msg}) }
func (l *fakeLogger) Warning(msg string) { l.lines = append(l.lines, logLine{"warning", msg}) }
func (l *fakeLogger) Error(err error, msg string) {
	l.lines = append(l.lines, logLine{"error", fmt.Sprintf("%v: %v", msg, err)})
}
func (l *fakeLogger) FatalError(err error, msg string) { panic(fmt.Sprintf("%v: %v", msg, err)) }
func (l *fakeLogger) Writer() io.WriteCloser           { return nopWriteCloser{io.Discard} }

func (l *fakeLogger) messages(level string) []string {
	var result []string
	for _, line := range l.lines {
		if line.level == level {
			result = append(result, line.msg)
		}
	}
	return result
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type readItem struct {
	entry model.ManifestEntry
	err   error
}

type fakeReader struct {
	items []readItem
	err   error
}

func (r fakeReader) Entries() (iter.Seq2[model.ManifestEntry, error], error) {
	if r.err != nil {
		return nil, r.err
	}
	return func(yield func(model.ManifestEntry, error) bool) {
		for _, item := range r.items {
			if !yield(item.entry, item.err) {
				return
			}
		}
	}, nil
}

func entries(list ...model.ManifestEntry) fakeReader {
	var r fakeReader
	for _, entry := range list {
		r.items = append(r.items, readItem{entry: entry})
	}
	return r
}

// fakeProvider keeps repositories under root; a repository "exists" once its directory does.
type fakeProvider struct {
	root     string
	calls    []string
	failSync map[model.EntryName]error
	tags     map[model.EntryName][]string
	tagErr   error
	// noContext lists entries whose sync leaves no build context behind.
	noContext map[model.EntryName]bool
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	return &fakeProvider{
		root:      t.TempDir(),
		failSync:  map[model.EntryName]error{},
		tags:      map[model.EntryName][]string{},
		noContext: map[model.EntryName]bool{},
	}
}

func (p *fakeProvider) Exist(name model.EntryName) (bool, error) {
	_, err := os.Stat(p.RepositoryPath(name))
	return err == nil, nil
}

func (p *fakeProvider) Clone(_ context.Context, entry model.ManifestEntry) error {
	p.calls = append(p.calls, "clone "+entry.Name)
	return p.sync(entry.Name)
}

func (p *fakeProvider) Pull(_ context.Context, entry model.ManifestEntry) error {
	p.calls = append(p.calls, "pull "+entry.Name)
	return p.sync(entry.Name)
}

func (p *fakeProvider) sync(name model.EntryName) error {
	if err := p.failSync[name]; err != nil {
		return err
	}
	dir := p.RepositoryPath(name)
	if !p.noContext[name] {
		dir = filepath.Join(dir, "compose-build")
	}
	return os.MkdirAll(dir, 0o755)
}

func (p *fakeProvider) HeadTags(_ context.Context, name model.EntryName) ([]string, error) {
	if p.tagErr != nil {
		return nil, p.tagErr
	}
	return p.tags[name], nil
}

func (p *fakeProvider) RepositoryPath(name model.EntryName) string {
	return filepath.Join(p.root, name)
}

type buildCall struct {
	workDir  string
	useCache bool
	registry string
	tag      *string
}

type fakeBuilder struct {
	calls []buildCall
	fail  func(call buildCall) error
}

func (b *fakeBuilder) BuildAndPush(_ context.Context, workDir string, config model.BuildConfig) error {
	call := buildCall{workDir: workDir, useCache: config.UseCache, registry: config.Registry}
	if config.Tag != nil {
		tag := *config.Tag
		call.tag = &tag
	}
	b.calls = append(b.calls, call)
	if b.fail != nil {
		return b.fail(call)
	}
	return nil
}

func ptr(s string) *string {
	return &s
}

func requireKind(t *testing.T, kind model.ErrorKind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, model.KindOf(err), "error: %v", err)
}
