package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, r *git.Repository, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	wt, err := r.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "statsync", Email: "statsync@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	hash := commitFile(t, r, dir, "index.html", "<h1>hi</h1>\n")
	_, err = r.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:wlmr-rk/site.git"}})
	require.NoError(t, err)

	info, err := Inspect(dir)
	require.NoError(t, err)
	assert.Equal(t, "master", info.Branch)
	assert.Equal(t, hash[:7], info.Head)
	assert.True(t, info.Clean)
	assert.True(t, info.HasOrigin())
	assert.Equal(t, []string{"git@github.com:wlmr-rk/site.git"}, info.Remotes["origin"])
	assert.Equal(t, []string{"origin"}, info.RemoteNames())

	// an untracked snapshot makes the worktree dirty
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "public"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public", "leetcode-data.json"), []byte("{}\n"), 0644))
	info, err = Inspect(dir)
	require.NoError(t, err)
	assert.False(t, info.Clean)
}

func TestInspectFromSubdirectory(t *testing.T) {
	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, r, dir, "README.md", "site\n")
	sub := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(sub, 0755))

	info, err := Inspect(sub)
	require.NoError(t, err)
	assert.NotEmpty(t, info.Head)
	assert.False(t, info.HasOrigin())
}

func TestInspectUnbornBranch(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	info, err := Inspect(dir)
	require.NoError(t, err)
	assert.Equal(t, "master", info.Branch)
	assert.Empty(t, info.Head)
	assert.True(t, info.Clean)
}

func TestInspectNotARepository(t *testing.T) {
	dir := t.TempDir()
	_, err := Inspect(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a git repository")
	assert.False(t, IsGitRepository(dir))
}
