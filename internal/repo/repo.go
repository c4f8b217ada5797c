// Package repo reports the state of the site repository the snapshots are
// published into.
package repo

import (
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/wlmr-rk/proj-nexus/internal/errors"
)

// Info holds current git state of the site repository.
type Info struct {
	Root    string
	Branch  string
	Head    string // short hash; empty before the first commit
	Clean   bool
	Remotes map[string][]string
}

// HasOrigin reports whether an "origin" remote with at least one URL exists.
func (i *Info) HasOrigin() bool {
	return len(i.Remotes["origin"]) > 0
}

// RemoteNames returns the configured remote names, sorted.
func (i *Info) RemoteNames() []string {
	names := make([]string, 0, len(i.Remotes))
	for n := range i.Remotes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Inspect opens the repository at path and gathers branch, HEAD, worktree
// cleanliness and remotes.
func Inspect(path string) (*Info, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.WithHintf(errors.Newf("%s is not a git repository", path),
				"point site.repo_path at a clone of the website repository")
		}
		return nil, errors.Wrapf(err, "opening repository %s", path)
	}

	info := &Info{Root: path, Remotes: map[string][]string{}}

	head, err := r.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// unborn branch: read the name HEAD points at
		ref, rerr := r.Storer.Reference(plumbing.HEAD)
		if rerr != nil {
			return nil, errors.Wrap(rerr, "reading HEAD")
		}
		info.Branch = ref.Target().Short()
	case err != nil:
		return nil, errors.Wrap(err, "resolving HEAD")
	default:
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		} else {
			info.Branch = "HEAD"
		}
		info.Head = head.Hash().String()[:7]
	}

	wt, err := r.Worktree()
	if err != nil {
		return nil, errors.Wrap(err, "opening worktree")
	}
	if wt.Filesystem != nil {
		info.Root = wt.Filesystem.Root()
	}
	status, err := wt.Status()
	if err != nil {
		return nil, errors.Wrap(err, "checking git status")
	}
	info.Clean = status.IsClean()

	remotes, err := r.Remotes()
	if err != nil {
		return nil, errors.Wrap(err, "listing remotes")
	}
	for _, rm := range remotes {
		cfg := rm.Config()
		info.Remotes[cfg.Name] = append([]string(nil), cfg.URLs...)
	}
	return info, nil
}

// IsGitRepository checks if path is inside a git repository.
func IsGitRepository(path string) bool {
	_, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}
