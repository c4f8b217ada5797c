package source

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
	vlog "github.com/wlmr-rk/proj-nexus/internal/log"
)

// recentRunCount is how many runs the snapshot lists.
const recentRunCount = 3

// Strava summarizes recent runs from the athlete's activity feed.
type Strava struct {
	APIBase string
	PerPage int
	grant   *refreshGrant
	client  *apiClient
}

// StravaSummary is the published Strava snapshot.
type StravaSummary struct {
	TotalRuns       int         `json:"totalRuns"`
	TotalDistanceKm string      `json:"totalDistanceKm"`
	RecentRuns      []StravaRun `json:"recentRuns"`
}

type StravaRun struct {
	Name       string `json:"name"`
	DistanceKm string `json:"distanceKm"`
	Date       string `json:"date"`
}

// StravaActivity is the subset of an activity the summary needs.
type StravaActivity struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	SportType      string  `json:"sport_type"`
	Distance       float64 `json:"distance"`
	StartDateLocal string  `json:"start_date_local"`
}

func NewStrava(cfg *config.Config, hc *http.Client) *Strava {
	sc := cfg.Providers.Strava
	return &Strava{
		APIBase: strings.TrimRight(sc.APIBase, "/"),
		PerPage: sc.PerPage,
		grant: &refreshGrant{
			provider:  "strava",
			cfg:       sc.OAuthConfig,
			authStyle: oauth2.AuthStyleInParams,
			http:      hc,
		},
		client: newAPIClient("strava", hc),
	}
}

func (s *Strava) Name() string     { return "strava" }
func (s *Strava) FileName() string { return FileName(s.Name()) }

func (s *Strava) Authenticate(ctx context.Context) (Credential, error) {
	return s.grant.exchange(ctx)
}

// FetchRaw returns the latest activities. A nil slice means the response
// carried no activity list at all.
func (s *Strava) FetchRaw(ctx context.Context, cred Credential) ([]StravaActivity, error) {
	q := url.Values{}
	if s.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(s.PerPage))
	}
	endpoint := s.APIBase + "/athlete/activities"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var body json.RawMessage
	if _, err := s.client.getJSON(ctx, endpoint, cred, &body); err != nil {
		return nil, err
	}

	// Strava reports some failures as {"message": ..., "errors": [...]}.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var apiErr struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &apiErr); err == nil && apiErr.Message != "" {
			return nil, errors.APIErrorf("strava: %s", apiErr.Message)
		}
		return nil, errors.MalformedErrorf("strava: expected an activity list, got an object")
	}

	var activities []StravaActivity
	if err := json.Unmarshal(trimmed, &activities); err != nil {
		return nil, errors.WrapMalformed(err, "strava: decoding activities")
	}
	return activities, nil
}

// Normalize keeps runs only, totals their distance and lists the newest few.
func (s *Strava) Normalize(activities []StravaActivity) (*StravaSummary, error) {
	if activities == nil {
		return nil, errors.MalformedErrorf("strava: response has no activity list")
	}

	var runs []StravaActivity
	var total float64
	for _, a := range activities {
		if a.Type == "Run" || a.SportType == "Run" {
			runs = append(runs, a)
			total += a.Distance
		}
	}

	recent := make([]StravaRun, 0, recentRunCount)
	for i := 0; i < len(runs) && i < recentRunCount; i++ {
		recent = append(recent, StravaRun{
			Name:       orDefault(runs[i].Name, "Untitled"),
			DistanceKm: km(runs[i].Distance),
			Date:       datePart(runs[i].StartDateLocal),
		})
	}

	return &StravaSummary{
		TotalRuns:       len(runs),
		TotalDistanceKm: km(total),
		RecentRuns:      recent,
	}, nil
}

func (s *Strava) Collect(ctx context.Context) (any, error) {
	vlog.Info("fetching Strava data")
	cred, err := s.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	activities, err := s.FetchRaw(ctx, cred)
	if err != nil {
		return nil, err
	}
	summary, err := s.Normalize(activities)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func km(meters float64) string {
	return oneDecimal(meters / 1000)
}

// datePart returns the YYYY-MM-DD prefix of an ISO timestamp.
func datePart(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i >= 0 {
		return ts[:i]
	}
	return ts
}
