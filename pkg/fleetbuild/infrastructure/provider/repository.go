package provider

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/service"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/infrastructure/command"
)

// NewRepositoryProvider returns a provider driving the git executable.
func NewRepositoryProvider(
	repoDir string,
	runner command.Runner,
) service.RepositoryProvider {
	return &repositoryProvider{
		repoDir: repoDir,
		runner:  runner,
	}
}

type repositoryProvider struct {
	repoDir string
	runner  command.Runner
}

func (provider repositoryProvider) Exist(name model.EntryName) (bool, error) {
	return exist(provider.RepositoryPath(name))
}

func (provider repositoryProvider) Clone(ctx context.Context, entry model.ManifestEntry) error {
	output, err := provider.runner.Execute(ctx, command.Command{
		Executable: "git",
		Args:       []string{"clone", entry.GitSrc, provider.RepositoryPath(entry.Name)},
	})
	return errors.Wrapf(withOutput(err, output), "failed to clone repository %v", entry.Name)
}

func (provider repositoryProvider) Pull(ctx context.Context, entry model.ManifestEntry) error {
	output, err := provider.runner.Execute(ctx, command.Command{
		WorkDir:    provider.RepositoryPath(entry.Name),
		Executable: "git",
		Args:       []string{"pull"},
	})
	return errors.Wrapf(withOutput(err, output), "failed to pull repository %v", entry.Name)
}

func (provider repositoryProvider) HeadTags(ctx context.Context, name model.EntryName) ([]string, error) {
	output, err := provider.runner.Execute(ctx, command.Command{
		WorkDir:    provider.RepositoryPath(name),
		Executable: "git",
		Args:       []string{"tag", "--points-at", "HEAD"},
	})
	if err != nil {
		return nil, errors.Wrapf(withOutput(err, output), "failed to list tags of repository %v", name)
	}
	var tags []string
	for _, line := range strings.Split(output, "\n") {
		if tag := strings.TrimSpace(line); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func (provider repositoryProvider) RepositoryPath(name model.EntryName) string {
	return filepath.Join(provider.repoDir, name)
}

func exist(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func withOutput(err error, output string) error {
	output = strings.TrimSpace(output)
	if err == nil || output == "" {
		return err
	}
	return errors.Wrap(err, output)
}
