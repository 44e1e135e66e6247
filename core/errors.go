package core

import "errors"

// Failure taxonomy for remote calls and claim attempts. Availability failures
// (missing token, expired token, unreachable backend) may trigger a local
// fallback; rejections and eligibility failures are authoritative outcomes
// and are surfaced to the caller unchanged.
var (
	// ErrNotAuthenticated means no token is present; the call was never worth
	// attempting.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAuthenticationFailed means the backend rejected the token
	// (expired or invalid).
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNetworkUnavailable means the backend could not be reached.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrRemoteRejected means the backend processed the request and refused
	// it on a business rule.
	ErrRemoteRejected = errors.New("rejected by server")

	// ErrNotEligible means the local eligibility check failed.
	ErrNotEligible = errors.New("benefit thresholds not met")

	// ErrAlreadyClaimed means the benefit was claimed before.
	ErrAlreadyClaimed = errors.New("benefit already claimed")
)

// Availability reports whether err is a transport/availability failure, the
// only class that may trigger the local fallback path.
func Availability(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrAuthenticationFailed) ||
		errors.Is(err, ErrNetworkUnavailable)
}
