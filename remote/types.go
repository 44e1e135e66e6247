package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"wellkit/core"
)

type addPointsRequest struct {
	Points int64 `json:"points"`
}

type addPointsResponse struct {
	Points      int64 `json:"points"`
	Level       int   `json:"level"`
	TotalPoints int64 `json:"totalPoints"`
}

type claimRequest struct {
	BenefitID string `json:"benefitId"`
}

type enrollRequest struct {
	PlanID string `json:"planId"`
}

type enrollResponse struct {
	Message string `json:"message"`
}

// errorEnvelope is the backend error body {code, message}.
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// rejectionError carries the backend's verbatim rejection message alongside
// the taxonomy sentinel.
type rejectionError struct {
	Status  int
	Code    string
	Message string
}

func (e *rejectionError) Error() string {
	return fmt.Sprintf("%s (status %d): %s", core.ErrRemoteRejected, e.Status, e.Message)
}

func (e *rejectionError) Unwrap() error { return core.ErrRemoteRejected }

func isNotFound(err error) bool {
	var rej *rejectionError
	return errors.As(err, &rej) && rej.Status == http.StatusNotFound
}

// classify maps a non-2xx response onto the failure taxonomy: 401 is an
// authentication failure (or a missing token), 5xx counts as availability,
// anything else is an authoritative rejection carrying the server's message.
func (c *Client) classify(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	if env.Message == "" {
		env.Message = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if !c.HasToken() {
			return fmt.Errorf("%w: %s", core.ErrNotAuthenticated, env.Message)
		}
		return fmt.Errorf("%w: %s", core.ErrAuthenticationFailed, env.Message)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: server returned %d", core.ErrNetworkUnavailable, resp.StatusCode)
	default:
		return &rejectionError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}
}
