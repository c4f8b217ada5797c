package source

import (
	"context"
	"net/http"
	"strings"

	"github.com/wlmr-rk/proj-nexus/internal/config"
	"github.com/wlmr-rk/proj-nexus/internal/errors"
	vlog "github.com/wlmr-rk/proj-nexus/internal/log"
)

const leetCodeQuery = `
  query getUserProfile($username: String!) {
    allQuestionsCount {
      difficulty
      count
    }
    matchedUser(username: $username) {
      username
      submitStats: submitStatsGlobal {
        acSubmissionNum {
          difficulty
          count
        }
      }
    }
  }
`

// LeetCode reads solved-problem counts from the public GraphQL endpoint.
type LeetCode struct {
	Endpoint string
	Username string
	client   *apiClient
}

// LeetCodeSummary is the published LeetCode snapshot.
type LeetCodeSummary struct {
	Username        string `json:"username"`
	TotalSolved     int    `json:"totalSolved"`
	TotalAvailable  int    `json:"totalAvailable"`
	EasySolved      int    `json:"easySolved"`
	EasyAvailable   int    `json:"easyAvailable"`
	MediumSolved    int    `json:"mediumSolved"`
	MediumAvailable int    `json:"mediumAvailable"`
	HardSolved      int    `json:"hardSolved"`
	HardAvailable   int    `json:"hardAvailable"`
}

type difficultyCount struct {
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

// LeetCodeRaw is the GraphQL response body.
type LeetCodeRaw struct {
	Data *struct {
		AllQuestionsCount []difficultyCount `json:"allQuestionsCount"`
		MatchedUser       *struct {
			Username    string `json:"username"`
			SubmitStats *struct {
				AcSubmissionNum []difficultyCount `json:"acSubmissionNum"`
			} `json:"submitStats"`
		} `json:"matchedUser"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func NewLeetCode(cfg *config.Config, hc *http.Client) *LeetCode {
	return &LeetCode{
		Endpoint: cfg.Providers.LeetCode.Endpoint,
		Username: cfg.LeetCodeUser(),
		client:   newAPIClient("leetcode", hc),
	}
}

func (l *LeetCode) Name() string     { return "leetcode" }
func (l *LeetCode) FileName() string { return FileName(l.Name()) }

// Authenticate needs no secret; the username is the only required input.
func (l *LeetCode) Authenticate(ctx context.Context) (Credential, error) {
	if l.Username == "" {
		return Credential{}, errors.WithHint(
			errors.AuthErrorf("leetcode: username is not configured"),
			"set providers.leetcode.username or LEETCODE_USERNAME")
	}
	return Credential{}, nil
}

func (l *LeetCode) FetchRaw(ctx context.Context, cred Credential) (*LeetCodeRaw, error) {
	var resp LeetCodeRaw
	req := graphQLRequest{
		Query:     leetCodeQuery,
		Variables: map[string]any{"username": l.Username},
	}
	if _, err := l.client.postJSON(ctx, l.Endpoint, req, cred, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, errors.APIErrorf("leetcode: graphql error: %s", strings.Join(msgs, "; "))
	}
	return &resp, nil
}

// Normalize indexes both difficulty lists once and reads each bucket from the
// index. A missing bucket counts as zero.
func (l *LeetCode) Normalize(raw *LeetCodeRaw) (*LeetCodeSummary, error) {
	switch {
	case raw == nil || raw.Data == nil:
		return nil, errors.MalformedErrorf("leetcode: response has no data")
	case raw.Data.MatchedUser == nil:
		return nil, errors.MalformedErrorf("leetcode: user %q not found", l.Username)
	case raw.Data.MatchedUser.SubmitStats == nil || raw.Data.MatchedUser.SubmitStats.AcSubmissionNum == nil:
		return nil, errors.MalformedErrorf("leetcode: response has no acSubmissionNum")
	case raw.Data.AllQuestionsCount == nil:
		return nil, errors.MalformedErrorf("leetcode: response has no allQuestionsCount")
	}

	byDifficulty := func(d difficultyCount) string { return d.Difficulty }
	solved := indexBy(raw.Data.MatchedUser.SubmitStats.AcSubmissionNum, byDifficulty)
	available := indexBy(raw.Data.AllQuestionsCount, byDifficulty)

	return &LeetCodeSummary{
		Username:        raw.Data.MatchedUser.Username,
		TotalSolved:     solved["All"].Count,
		TotalAvailable:  available["All"].Count,
		EasySolved:      solved["Easy"].Count,
		EasyAvailable:   available["Easy"].Count,
		MediumSolved:    solved["Medium"].Count,
		MediumAvailable: available["Medium"].Count,
		HardSolved:      solved["Hard"].Count,
		HardAvailable:   available["Hard"].Count,
	}, nil
}

func (l *LeetCode) Collect(ctx context.Context) (any, error) {
	vlog.Info("fetching LeetCode stats", "username", l.Username)
	cred, err := l.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := l.FetchRaw(ctx, cred)
	if err != nil {
		return nil, err
	}
	summary, err := l.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return summary, nil
}
