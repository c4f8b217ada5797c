package source

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/wlmr-rk/proj-nexus/internal/errors"
)

// maxErrorBody caps how much of an error response is echoed into errors.
const maxErrorBody = 512

// apiClient performs JSON requests for one provider and maps failures onto
// the error taxonomy.
type apiClient struct {
	provider string
	http     *http.Client
}

func newAPIClient(provider string, hc *http.Client) *apiClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &apiClient{provider: provider, http: hc}
}

// getJSON issues a GET and decodes the body into out. A 204 leaves out
// untouched; callers inspect the returned status.
func (c *apiClient) getJSON(ctx context.Context, url string, cred Credential, out any) (int, error) {
	return c.do(ctx, http.MethodGet, url, nil, cred, out)
}

// postJSON sends in as a JSON body and decodes the response into out.
func (c *apiClient) postJSON(ctx context.Context, url string, in any, cred Credential, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, errors.Wrapf(err, "%s: marshaling request", c.provider)
	}
	return c.do(ctx, http.MethodPost, url, body, cred, out)
}

func (c *apiClient) do(ctx context.Context, method, url string, body []byte, cred Credential, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, errors.Wrapf(err, "%s: creating request", c.provider)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cred.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.NetworkError(err, "%s: %s %s", c.provider, method, redact(url))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errors.NetworkError(err, "%s: reading response from %s", c.provider, redact(url))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, errors.APIErrorf("%s: %s returned %d: %s",
			c.provider, redact(url), resp.StatusCode, snippet(data))
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return resp.StatusCode, nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, errors.MalformedErrorf("%s: empty response body from %s", c.provider, redact(url))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, errors.WrapMalformed(err, "%s: decoding response from %s", c.provider, redact(url))
	}
	return resp.StatusCode, nil
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "…"
	}
	return s
}

// redact drops the query string, which may carry user identifiers.
func redact(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
