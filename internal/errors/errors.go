// Package errors provides error handling for statsync.
//
// It re-exports github.com/cockroachdb/errors and adds the failure taxonomy
// shared by the source adapters and the publish pipeline. Every taxonomy error
// is marked with one of the sentinels below, so callers classify with Is:
//
//	if errors.Is(err, errors.ErrAuth) {
//	    // credential problem, nothing was fetched
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	FlattenHints  = crdb.FlattenHints
	GetAllDetails = crdb.GetAllDetails
)

// Error inspection
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Taxonomy sentinels.
var (
	// ErrAuth means a credential was missing or could not be exchanged.
	ErrAuth = New("authentication failed")

	// ErrNetwork means the provider could not be reached.
	ErrNetwork = New("network error")

	// ErrAPI means the provider answered with a non-success status or an error payload.
	ErrAPI = New("api error")

	// ErrMalformed means a response lacked fields required for normalization.
	ErrMalformed = New("malformed data")

	// ErrSync means a source-control step failed for a reason other than "nothing to do".
	ErrSync = New("sync failed")

	// ErrInvalidRequest means the caller passed an unusable argument.
	ErrInvalidRequest = New("invalid request")
)

// AuthErrorf returns an error marked ErrAuth.
func AuthErrorf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrAuth)
}

// WrapAuth wraps cause and marks the result ErrAuth.
func WrapAuth(cause error, format string, args ...interface{}) error {
	return markWrap(ErrAuth, cause, format, args...)
}

// NetworkError wraps a transport failure and marks it ErrNetwork.
func NetworkError(cause error, format string, args ...interface{}) error {
	return markWrap(ErrNetwork, cause, format, args...)
}

// APIErrorf returns an error marked ErrAPI.
func APIErrorf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrAPI)
}

// MalformedErrorf returns an error marked ErrMalformed.
func MalformedErrorf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrMalformed)
}

// WrapMalformed wraps a decode failure and marks it ErrMalformed.
func WrapMalformed(cause error, format string, args ...interface{}) error {
	return markWrap(ErrMalformed, cause, format, args...)
}

// InvalidRequestf returns an error marked ErrInvalidRequest.
func InvalidRequestf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidRequest)
}

// Kind names the taxonomy class of err, or "" when err is unclassified.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrAuth):
		return "auth"
	case Is(err, ErrNetwork):
		return "network"
	case Is(err, ErrAPI):
		return "api"
	case Is(err, ErrMalformed):
		return "malformed"
	case Is(err, ErrSync):
		return "sync"
	case Is(err, ErrInvalidRequest):
		return "invalid"
	}
	return ""
}

// Wrapf returns nil for a nil cause, so fall back to Newf.
func markWrap(sentinel, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return Mark(Newf(format, args...), sentinel)
	}
	return Mark(Wrapf(cause, format, args...), sentinel)
}
