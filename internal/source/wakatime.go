package source

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
	vlog "github.com/wlmr-rk/proj-nexus/internal/log"
)

const (
	weekDays      = 7
	topLanguages  = 2
	dateLayout    = "2006-01-02"
	activeStatus  = "Active Developer"
	defaultLang   = "Various"
	defaultTool   = "Unknown"
	zeroPercent   = "0.0"
	highThreshold = 5
	goodThreshold = 3
)

// WakaTime summarizes today's coding time and the last seven days.
type WakaTime struct {
	APIRoot   string
	APIKeyEnv string
	// Now is the clock used for the date windows and lastUpdated.
	Now    func() time.Time
	client *apiClient
}

// WakaTimeSummary is the published WakaTime snapshot.
type WakaTimeSummary struct {
	LastUpdated string         `json:"lastUpdated"`
	Status      string         `json:"status"`
	Today       *WakaTimeToday `json:"today,omitempty"`
	WeeklyStats *WakaTimeWeek  `json:"weeklyStats,omitempty"`
}

type WakaTimeToday struct {
	CodingMinutes   int                 `json:"codingMinutes"`
	PrimaryLanguage string              `json:"primaryLanguage"`
	Environment     WakaTimeEnvironment `json:"environment"`
}

type WakaTimeEnvironment struct {
	Editor string `json:"editor"`
	OS     string `json:"os"`
}

type WakaTimeWeek struct {
	TotalHoursLast7Days string            `json:"totalHoursLast7Days"`
	ActiveDaysCount     int               `json:"activeDaysCount"`
	DailyAverageMinutes int               `json:"dailyAverageMinutes"`
	Languages           WakaTimeLanguages `json:"languages"`
	Consistency         string            `json:"consistency"`
}

type WakaTimeLanguages struct {
	Primary             string  `json:"primary"`
	Secondary           *string `json:"secondary"`
	PrimaryPercentage   string  `json:"primaryPercentage"`
	SecondaryPercentage string  `json:"secondaryPercentage"`
}

type namedTotal struct {
	Name         string  `json:"name"`
	TotalSeconds float64 `json:"total_seconds"`
}

type wakaDay struct {
	GrandTotal struct {
		TotalSeconds float64 `json:"total_seconds"`
	} `json:"grand_total"`
	Languages        []namedTotal `json:"languages"`
	Editors          []namedTotal `json:"editors"`
	OperatingSystems []namedTotal `json:"operating_systems"`
}

type wakaSummaries struct {
	Data []wakaDay `json:"data"`
}

// WakaTimeRaw holds the two window responses.
type WakaTimeRaw struct {
	Today *wakaSummaries
	Week  *wakaSummaries
}

func NewWakaTime(cfg *config.Config, hc *http.Client) *WakaTime {
	return &WakaTime{
		APIRoot:   strings.TrimRight(cfg.Providers.WakaTime.APIRoot, "/"),
		APIKeyEnv: cfg.Providers.WakaTime.APIKeyEnv,
		Now:       time.Now,
		client:    newAPIClient("wakatime", hc),
	}
}

func (w *WakaTime) Name() string     { return "wakatime" }
func (w *WakaTime) FileName() string { return FileName(w.Name()) }

// Authenticate uses the static API key directly as a Basic credential.
func (w *WakaTime) Authenticate(ctx context.Context) (Credential, error) {
	key := config.Secret(w.APIKeyEnv)
	if key == "" {
		return Credential{}, errors.WithHintf(
			errors.AuthErrorf("wakatime: %s is not set", w.APIKeyEnv),
			"export %s or add it to .env", w.APIKeyEnv)
	}
	return BasicKey(key), nil
}

// FetchRaw fetches today's summary and the seven-day window concurrently and
// joins both before returning. Either failing fails the fetch.
func (w *WakaTime) FetchRaw(ctx context.Context, cred Credential) (*WakaTimeRaw, error) {
	now := w.now().UTC()
	today := now.Format(dateLayout)
	weekStart := now.AddDate(0, 0, -(weekDays - 1)).Format(dateLayout)

	raw := &WakaTimeRaw{Today: &wakaSummaries{}, Week: &wakaSummaries{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := w.client.getJSON(gctx, w.summariesURL(today, today), cred, raw.Today)
		return err
	})
	g.Go(func() error {
		_, err := w.client.getJSON(gctx, w.summariesURL(weekStart, today), cred, raw.Week)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raw, nil
}

func (w *WakaTime) summariesURL(start, end string) string {
	q := url.Values{}
	q.Set("start", start)
	q.Set("end", end)
	return w.APIRoot + "/summaries?" + q.Encode()
}

func (w *WakaTime) Normalize(raw *WakaTimeRaw) (*WakaTimeSummary, error) {
	if raw == nil || raw.Today == nil || raw.Today.Data == nil {
		return nil, errors.MalformedErrorf("wakatime: today's summary has no data")
	}
	if raw.Week == nil || raw.Week.Data == nil {
		return nil, errors.MalformedErrorf("wakatime: weekly summary has no data")
	}

	out := &WakaTimeSummary{
		LastUpdated: w.now().UTC().Format(time.RFC3339),
		Status:      activeStatus,
	}

	if len(raw.Today.Data) > 0 {
		day := raw.Today.Data[0]
		out.Today = &WakaTimeToday{
			CodingMinutes:   int(math.Round(day.GrandTotal.TotalSeconds / 60)),
			PrimaryLanguage: firstName(day.Languages, defaultLang),
			Environment: WakaTimeEnvironment{
				Editor: firstName(day.Editors, defaultTool),
				OS:     firstName(day.OperatingSystems, defaultTool),
			},
		}
	}

	out.WeeklyStats = weeklyStats(raw.Week.Data)
	return out, nil
}

func weeklyStats(days []wakaDay) *WakaTimeWeek {
	var totalSeconds float64
	active := 0
	langs := newTally()
	for _, d := range days {
		totalSeconds += d.GrandTotal.TotalSeconds
		if d.GrandTotal.TotalSeconds > 0 {
			active++
		}
		for _, l := range d.Languages {
			langs.add(l.Name, l.TotalSeconds)
		}
	}

	ranked := langs.top(topLanguages)
	languages := WakaTimeLanguages{
		Primary:             defaultLang,
		PrimaryPercentage:   zeroPercent,
		SecondaryPercentage: zeroPercent,
	}
	if len(ranked) > 0 {
		languages.Primary = ranked[0].Name
		languages.PrimaryPercentage = percent(ranked[0].Percentage)
	}
	if len(ranked) > 1 {
		name := ranked[1].Name
		languages.Secondary = &name
		languages.SecondaryPercentage = percent(ranked[1].Percentage)
	}

	return &WakaTimeWeek{
		TotalHoursLast7Days: oneDecimal(totalSeconds / 3600),
		ActiveDaysCount:     active,
		DailyAverageMinutes: int(math.Round(totalSeconds / weekDays / 60)),
		Languages:           languages,
		Consistency:         consistency(active),
	}
}

func consistency(activeDays int) string {
	switch {
	case activeDays >= highThreshold:
		return "High"
	case activeDays >= goodThreshold:
		return "Good"
	default:
		return "Building"
	}
}

func percent(p float64) string {
	return oneDecimal(p)
}

func (w *WakaTime) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

func (w *WakaTime) Collect(ctx context.Context) (any, error) {
	vlog.Info("fetching WakaTime highlights")
	cred, err := w.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := w.FetchRaw(ctx, cred)
	if err != nil {
		return nil, err
	}
	summary, err := w.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return summary, nil
}
