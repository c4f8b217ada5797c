package source

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/wlmr-rk/proj-nexus/internal/config"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

// oauthEnv points an OAuth provider config at test-only env vars and sets them.
func oauthEnv(t *testing.T, prefix string, oc *config.OAuthConfig) {
	t.Helper()
	oc.ClientIDEnv = prefix + "_CLIENT_ID"
	oc.ClientSecretEnv = prefix + "_CLIENT_SECRET"
	oc.RefreshTokenEnv = prefix + "_REFRESH_TOKEN"
	t.Setenv(oc.ClientIDEnv, "client-id")
	t.Setenv(oc.ClientSecretEnv, "client-secret")
	t.Setenv(oc.RefreshTokenEnv, "refresh-me")
}

// tokenHandler answers the refresh-token grant with a fixed access token.
func tokenHandler(t *testing.T, wantBasic bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing token form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "refresh-me" {
			t.Errorf("refresh_token = %q", got)
		}
		user, pass, ok := r.BasicAuth()
		if wantBasic {
			if !ok || user != "client-id" || pass != "client-secret" {
				t.Errorf("expected client credentials in Basic header, got %q %q %v", user, pass, ok)
			}
		} else {
			if ok {
				t.Errorf("did not expect Basic header")
			}
			if r.PostForm.Get("client_id") != "client-id" || r.PostForm.Get("client_secret") != "client-secret" {
				t.Errorf("expected client credentials in form, got %v", r.PostForm)
			}
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}
}

func requireBearer(t *testing.T, r *http.Request) {
	t.Helper()
	if got := r.Header.Get("Authorization"); got != "Bearer access-123" {
		t.Errorf("Authorization = %q", got)
	}
}
