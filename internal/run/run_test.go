package run

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"leetcode-spotify", "leetcode-spotify"},
		{"Strava WakaTime", "strava-wakatime"},
		{"  spaces  ", "spaces"},
		{"", "run"},
		{strings.Repeat("a", 50), strings.Repeat("a", 40)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeSlug(tt.input), "sanitizeSlug(%q)", tt.input)
	}
}

func TestNewAndLatest(t *testing.T) {
	base := filepath.Join(t.TempDir(), "runs")

	r, err := New(base, []string{"leetcode", "wakatime"}, false, "main", "abc1234")
	require.NoError(t, err)
	assert.Equal(t, "running", r.Meta.Status)
	assert.True(t, strings.HasSuffix(r.ID, "-leetcode-wakatime"), r.ID)

	_, err = os.Stat(r.FilePath("meta.json"))
	require.NoError(t, err)

	target, err := os.Readlink(filepath.Join(base, "latest"))
	require.NoError(t, err)
	assert.Equal(t, r.ID, target)

	require.NoError(t, r.AddResult(ProviderResult{Provider: "leetcode", Status: StatusPublished, File: "leetcode-data.json"}))
	require.NoError(t, r.AddResult(ProviderResult{Provider: "wakatime", Status: StatusFailed, Error: "wakatime: WAKATIME_API_KEY is not set"}))
	require.NoError(t, r.Complete())

	got, err := Latest(base)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, "completed", got.Meta.Status)
	assert.Equal(t, "main", got.Meta.GitBranch)
	require.NotNil(t, got.Meta.FinishedAt)
	require.Len(t, got.Meta.Results, 2)
	assert.Equal(t, StatusFailed, got.Meta.Results[1].Status)
}

func TestNewAllProvidersSlug(t *testing.T) {
	r, err := New(t.TempDir(), nil, true, "", "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(r.ID, "-all"), r.ID)
	assert.True(t, r.Meta.DryRun)
}

func TestFail(t *testing.T) {
	base := t.TempDir()
	r, err := New(base, []string{"strava"}, false, "main", "abc1234")
	require.NoError(t, err)
	require.NoError(t, r.Fail("1 provider failed"))

	got, err := Latest(base)
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Meta.Status)
	assert.Equal(t, "1 provider failed", got.Meta.Error)
}

func TestLatestWithoutRuns(t *testing.T) {
	_, err := Latest(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no runs recorded yet")
}

func TestList(t *testing.T) {
	base := t.TempDir()
	none, err := List(filepath.Join(base, "missing"))
	require.NoError(t, err)
	assert.Empty(t, none)

	first, err := New(base, []string{"leetcode"}, false, "main", "aaa1111")
	require.NoError(t, err)
	first.Meta.StartedAt = first.Meta.StartedAt.Add(-time.Hour)
	require.NoError(t, first.AddResult(ProviderResult{Provider: "leetcode", Status: StatusNoop}))

	second, err := New(base, []string{"strava"}, false, "main", "bbb2222")
	require.NoError(t, err)
	require.NoError(t, second.AddResult(ProviderResult{Provider: "strava", Status: StatusPublished}))

	// junk directories are skipped
	require.NoError(t, os.MkdirAll(filepath.Join(base, "not-a-run"), 0755))

	runs, err := List(base)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
	assert.Equal(t, 1, runs[1].Meta.Count(StatusNoop))
	assert.Equal(t, 0, runs[1].Meta.Count(StatusPublished))
}
