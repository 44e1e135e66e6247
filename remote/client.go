package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"wellkit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the wellness rewards HTTP + WebSocket API.
// It is the authoritative implementation of the engine source interfaces;
// its errors map onto the core failure taxonomy so reconcilers can decide
// whether the local fallback applies.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
	token      string
}

// NewClient constructs a new client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.token = token
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// HasToken reports whether a bearer token is configured. Callers syncing
// point awards use it to skip the network call outright when no session
// exists.
func (c *Client) HasToken() bool { return c.token != "" }

// Token returns the configured bearer token, empty when unauthenticated.
func (c *Client) Token() string { return c.token }

// Standing fetches the current standing for a user.
func (c *Client) Standing(ctx context.Context, user core.UserID) (core.Standing, error) {
	var st core.Standing
	err := c.get(ctx, fmt.Sprintf("/users/%s", url.PathEscape(string(user))), &st)
	return st, err
}

// AddPoints syncs a point award and returns the backend's view of the
// resulting standing.
func (c *Client) AddPoints(ctx context.Context, user core.UserID, delta int64) (core.Standing, error) {
	if !c.HasToken() {
		// known in advance: without a token the backend will refuse anyway
		return core.Standing{}, core.ErrNotAuthenticated
	}
	var resp addPointsResponse
	err := c.post(ctx, fmt.Sprintf("/users/%s/points", url.PathEscape(string(user))),
		addPointsRequest{Points: delta}, &resp)
	if err != nil {
		return core.Standing{}, err
	}
	return core.NewStanding(user, resp.TotalPoints, 0), nil
}

// Benefits fetches the reconciled benefits projection.
func (c *Client) Benefits(ctx context.Context, user core.UserID) (core.UserBenefits, error) {
	var ub core.UserBenefits
	err := c.get(ctx, fmt.Sprintf("/users/%s/benefits", url.PathEscape(string(user))), &ub)
	return ub, err
}

// Claim submits a claim. A rejection (eligibility, already claimed) comes
// back as an unsuccessful ClaimResponse with ErrRemoteRejected; the caller
// must not retry it locally.
func (c *Client) Claim(ctx context.Context, user core.UserID, benefitID string) (core.ClaimResponse, error) {
	var resp core.ClaimResponse
	err := c.post(ctx, fmt.Sprintf("/users/%s/benefits/claim", url.PathEscape(string(user))),
		claimRequest{BenefitID: benefitID}, &resp)
	if err != nil {
		var rej *rejectionError
		if errors.As(err, &rej) {
			return core.ClaimResponse{Success: false, Message: rej.Message}, err
		}
		return core.ClaimResponse{}, err
	}
	return resp, nil
}

// Plans fetches the insurance plan catalog.
func (c *Client) Plans(ctx context.Context) ([]core.InsurancePlan, error) {
	var plans []core.InsurancePlan
	err := c.get(ctx, "/insurance/plans", &plans)
	return plans, err
}

// CurrentPlan fetches the user's enrollment; a backend not-found resolves to
// nil rather than an error.
func (c *Client) CurrentPlan(ctx context.Context, user core.UserID) (*core.UserInsurance, error) {
	var enr core.UserInsurance
	err := c.get(ctx, fmt.Sprintf("/users/%s/insurance/current", url.PathEscape(string(user))), &enr)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if enr.PlanID == "" {
		return nil, nil
	}
	return &enr, nil
}

// Discount fetches the computed discount; not-found resolves to nil.
func (c *Client) Discount(ctx context.Context, user core.UserID) (*core.DiscountCalculation, error) {
	var d core.DiscountCalculation
	err := c.get(ctx, fmt.Sprintf("/users/%s/insurance/discount", url.PathEscape(string(user))), &d)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// Enroll binds the user to a plan. Errors are surfaced verbatim: enrollment
// has no local fallback.
func (c *Client) Enroll(ctx context.Context, user core.UserID, planID string) (string, error) {
	var resp enrollResponse
	err := c.post(ctx, fmt.Sprintf("/users/%s/insurance/enroll", url.PathEscape(string(user))),
		enrollRequest{PlanID: planID}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNetworkUnavailable, err)
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, target)
}

func (c *Client) post(ctx context.Context, path string, body any, target any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	c.applyHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()
	if err := c.classify(resp); err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
