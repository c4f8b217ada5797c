package source

import (
	"encoding/base64"
	"net/http"
)

// Scheme is how a credential is presented to a provider.
type Scheme int

const (
	SchemeNone Scheme = iota
	SchemeBearer
	SchemeBasic
)

// Credential is a short-lived access token or a static key, ready to attach to requests.
type Credential struct {
	Scheme Scheme
	Token  string
}

// Bearer wraps an OAuth access token.
func Bearer(token string) Credential {
	return Credential{Scheme: SchemeBearer, Token: token}
}

// BasicKey encodes an API key as a Basic credential with an empty password.
func BasicKey(key string) Credential {
	return Credential{Scheme: SchemeBasic, Token: base64.StdEncoding.EncodeToString([]byte(key + ":"))}
}

// Apply sets the Authorization header. SchemeNone leaves the request untouched.
func (c Credential) Apply(req *http.Request) {
	switch c.Scheme {
	case SchemeBearer:
		req.Header.Set("Authorization", "Bearer "+c.Token)
	case SchemeBasic:
		req.Header.Set("Authorization", "Basic "+c.Token)
	}
}
