package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
)

var wakaNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

const wakaTodayBody = `{
  "data": [{
    "grand_total": {"total_seconds": 5430},
    "languages": [{"name": "Go", "total_seconds": 4000}, {"name": "YAML", "total_seconds": 1430}],
    "editors": [],
    "operating_systems": [{"name": "Linux", "total_seconds": 5430}]
  }]
}`

const wakaWeekBody = `{
  "data": [
    {"grand_total": {"total_seconds": 3600}, "languages": [{"name": "Go", "total_seconds": 1800}, {"name": "Python", "total_seconds": 1800}]},
    {"grand_total": {"total_seconds": 7200}, "languages": [{"name": "Go", "total_seconds": 3600}, {"name": "TypeScript", "total_seconds": 3600}]},
    {"grand_total": {"total_seconds": 0}, "languages": []},
    {"grand_total": {"total_seconds": 1800}, "languages": [{"name": "Python", "total_seconds": 1800}]},
    {"grand_total": {"total_seconds": 0}, "languages": []},
    {"grand_total": {"total_seconds": 0}, "languages": []},
    {"grand_total": {"total_seconds": 0}, "languages": []}
  ]
}`

type wakaServer struct {
	*httptest.Server
	mu      sync.Mutex
	windows map[string]string
}

// newWakaServer answers the today window and the week window with the given
// bodies. A zero status means 200.
func newWakaServer(t *testing.T, today, week string, weekStatus int) *wakaServer {
	t.Helper()
	s := &wakaServer{windows: map[string]string{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/current/summaries", r.URL.Path)
		assert.Equal(t, "Basic d2FrYV90ZXN0Og==", r.Header.Get("Authorization"))

		start, end := r.URL.Query().Get("start"), r.URL.Query().Get("end")
		s.mu.Lock()
		s.windows[start] = end
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if start == end {
			w.Write([]byte(today))
			return
		}
		if weekStatus != 0 {
			w.WriteHeader(weekStatus)
		}
		w.Write([]byte(week))
	}))
	t.Cleanup(s.Close)
	return s
}

func testWakaTime(t *testing.T, ts *httptest.Server) *WakaTime {
	t.Helper()
	cfg := config.Defaults()
	cfg.Providers.WakaTime.APIRoot = ts.URL + "/api/v1/users/current"
	cfg.Providers.WakaTime.APIKeyEnv = "STATSYNC_TEST_WAKATIME_KEY"
	t.Setenv("STATSYNC_TEST_WAKATIME_KEY", "waka_test")

	w := NewWakaTime(cfg, ts.Client())
	w.Now = func() time.Time { return wakaNow }
	return w
}

func TestWakaTimeCollect(t *testing.T) {
	srv := newWakaServer(t, wakaTodayBody, wakaWeekBody, 0)

	got, err := testWakaTime(t, srv.Server).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"2026-10-16": "2026-10-16",
		"2026-10-10": "2026-10-16",
	}, srv.windows)

	secondary := "Python"
	assert.Equal(t, &WakaTimeSummary{
		LastUpdated: "2026-10-16T09:30:00Z",
		Status:      "Active Developer",
		Today: &WakaTimeToday{
			CodingMinutes:   91,
			PrimaryLanguage: "Go",
			Environment:     WakaTimeEnvironment{Editor: "Unknown", OS: "Linux"},
		},
		WeeklyStats: &WakaTimeWeek{
			TotalHoursLast7Days: "3.5",
			ActiveDaysCount:     3,
			DailyAverageMinutes: 30,
			Languages: WakaTimeLanguages{
				Primary:             "Go",
				Secondary:           &secondary,
				PrimaryPercentage:   "42.9",
				SecondaryPercentage: "28.6",
			},
			Consistency: "Good",
		},
	}, got)
}

func TestWakaTimeEmptyWindows(t *testing.T) {
	srv := newWakaServer(t, `{"data":[]}`, `{"data":[]}`, 0)

	got, err := testWakaTime(t, srv.Server).Collect(context.Background())
	require.NoError(t, err)
	summary := got.(*WakaTimeSummary)
	assert.Nil(t, summary.Today)
	require.NotNil(t, summary.WeeklyStats)
	assert.Equal(t, "0.0", summary.WeeklyStats.TotalHoursLast7Days)
	assert.Equal(t, "Various", summary.WeeklyStats.Languages.Primary)
	assert.Nil(t, summary.WeeklyStats.Languages.Secondary)
	assert.Equal(t, "0.0", summary.WeeklyStats.Languages.SecondaryPercentage)
	assert.Equal(t, "Building", summary.WeeklyStats.Consistency)
}

func TestWakaTimeOneWindowFailing(t *testing.T) {
	srv := newWakaServer(t, wakaTodayBody, `{"error":"rate limited"}`, http.StatusTooManyRequests)

	_, err := testWakaTime(t, srv.Server).Collect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAPI))
}

func TestWakaTimeMissingData(t *testing.T) {
	srv := newWakaServer(t, `{}`, wakaWeekBody, 0)

	_, err := testWakaTime(t, srv.Server).Collect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformed))
}

func TestWakaTimeMissingKey(t *testing.T) {
	srv := newWakaServer(t, wakaTodayBody, wakaWeekBody, 0)
	w := testWakaTime(t, srv.Server)
	t.Setenv("STATSYNC_TEST_WAKATIME_KEY", "")

	_, err := w.Collect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAuth))
	assert.Empty(t, srv.windows)
}

func TestConsistency(t *testing.T) {
	cases := map[int]string{0: "Building", 2: "Building", 3: "Good", 4: "Good", 5: "High", 7: "High"}
	for days, want := range cases {
		assert.Equal(t, want, consistency(days), "days=%d", days)
	}
}

func TestWeeklyHoursRoundHalfUp(t *testing.T) {
	var day wakaDay
	day.GrandTotal.TotalSeconds = 900
	day.Languages = []namedTotal{{Name: "Go", TotalSeconds: 900}}

	week := weeklyStats([]wakaDay{day})
	assert.Equal(t, "0.3", week.TotalHoursLast7Days)
	assert.Equal(t, "100.0", week.Languages.PrimaryPercentage)
}
