package provider

import (
	"context"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"

	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/model"
	"github.com/tss-calculator/fleetbuild/pkg/fleetbuild/application/service"
)

const defaultRemote = "origin"

// NewGoGitRepositoryProvider returns a provider that needs no git executable.
func NewGoGitRepositoryProvider(repoDir string) service.RepositoryProvider {
	return &goGitRepositoryProvider{repoDir: repoDir}
}

type goGitRepositoryProvider struct {
	repoDir string
}

func (provider goGitRepositoryProvider) Exist(name model.EntryName) (bool, error) {
	return exist(provider.RepositoryPath(name))
}

func (provider goGitRepositoryProvider) Clone(ctx context.Context, entry model.ManifestEntry) error {
	_, err := git.PlainCloneContext(ctx, provider.RepositoryPath(entry.Name), false, &git.CloneOptions{
		URL:        entry.GitSrc,
		RemoteName: defaultRemote,
	})
	return errors.Wrapf(err, "failed to clone repository %v", entry.Name)
}

func (provider goGitRepositoryProvider) Pull(ctx context.Context, entry model.ManifestEntry) error {
	repo, err := git.PlainOpen(provider.RepositoryPath(entry.Name))
	if err != nil {
		return errors.Wrapf(err, "failed to open repository %v", entry.Name)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return errors.Wrapf(err, "failed to open worktree of repository %v", entry.Name)
	}
	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: defaultRemote})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return errors.Wrapf(err, "failed to pull repository %v", entry.Name)
	}
	return nil
}

func (provider goGitRepositoryProvider) HeadTags(_ context.Context, name model.EntryName) ([]string, error) {
	repo, err := git.PlainOpen(provider.RepositoryPath(name))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open repository %v", name)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve HEAD of repository %v", name)
	}
	refs, err := repo.Tags()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list tags of repository %v", name)
	}
	var tags []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		target, err := tagCommit(repo, ref)
		if err != nil {
			return err
		}
		if target == head.Hash() {
			tags = append(tags, ref.Name().Short())
		}
		return nil
	})
	return tags, errors.Wrapf(err, "failed to resolve tags of repository %v", name)
}

func (provider goGitRepositoryProvider) RepositoryPath(name model.EntryName) string {
	return filepath.Join(provider.repoDir, name)
}

// tagCommit peels annotated tags down to the commit they point at.
func tagCommit(repo *git.Repository, ref *plumbing.Reference) (plumbing.Hash, error) {
	tag, err := repo.TagObject(ref.Hash())
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return ref.Hash(), nil
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}
	commit, err := tag.Commit()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return commit.Hash, nil
}
