package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	mem "wellkit/adapters/memory"
	"wellkit/core"
	"wellkit/engine"
)

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *engine.RewardsService) {
	t.Helper()
	svc := engine.NewRewardsService(mem.New(), engine.NewEventBus(engine.DispatchSync), nil, nil)
	srv := httptest.NewServer(NewRouter(svc, nil, opts))
	t.Cleanup(srv.Close)
	return srv, svc
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatal(err)
	}
}

func TestAddPointsAndBenefitsFlow(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	resp := postJSON(t, srv.URL+"/users/alice/points", map[string]int64{"points": 350})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add points status = %d", resp.StatusCode)
	}
	var added struct {
		Points      int64 `json:"points"`
		Level       int   `json:"level"`
		TotalPoints int64 `json:"totalPoints"`
	}
	decode(t, resp, &added)
	if added.TotalPoints != 350 || added.Level != 3 {
		t.Fatalf("add points body = %+v", added)
	}

	get, err := http.Get(srv.URL + "/users/alice/benefits")
	if err != nil {
		t.Fatal(err)
	}
	var ub core.UserBenefits
	decode(t, get, &ub)
	if len(ub.Unlocked) == 0 {
		t.Fatalf("benefits = %+v", ub)
	}

	claim := postJSON(t, srv.URL+"/users/alice/benefits/claim", map[string]string{"benefitId": "gym-discount"})
	if claim.StatusCode != http.StatusOK {
		t.Fatalf("claim status = %d", claim.StatusCode)
	}
	var cr core.ClaimResponse
	decode(t, claim, &cr)
	if !cr.Success || cr.Benefit == nil {
		t.Fatalf("claim response = %+v", cr)
	}

	again := postJSON(t, srv.URL+"/users/alice/benefits/claim", map[string]string{"benefitId": "gym-discount"})
	if again.StatusCode != http.StatusConflict {
		t.Fatalf("second claim status = %d, want 409", again.StatusCode)
	}
}

func TestClaimBelowThresholdConflicts(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	postJSON(t, srv.URL+"/users/alice/points", map[string]int64{"points": 50}).Body.Close()
	resp := postJSON(t, srv.URL+"/users/alice/benefits/claim", map[string]string{"benefitId": "premium-credit"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	var e struct {
		Code string `json:"code"`
	}
	decode(t, resp, &e)
	if e.Code != "not_eligible" {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestInsuranceEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	get, err := http.Get(srv.URL + "/insurance/plans")
	if err != nil {
		t.Fatal(err)
	}
	var plans []core.InsurancePlan
	decode(t, get, &plans)
	if len(plans) != 3 {
		t.Fatalf("plans = %+v", plans)
	}

	// no enrollment yet
	cur, err := http.Get(srv.URL + "/users/alice/insurance/current")
	if err != nil {
		t.Fatal(err)
	}
	cur.Body.Close()
	if cur.StatusCode != http.StatusNotFound {
		t.Fatalf("current plan status = %d, want 404", cur.StatusCode)
	}

	enroll := postJSON(t, srv.URL+"/users/alice/insurance/enroll", map[string]string{"planId": "plus"})
	if enroll.StatusCode != http.StatusOK {
		t.Fatalf("enroll status = %d", enroll.StatusCode)
	}
	enroll.Body.Close()

	cur, err = http.Get(srv.URL + "/users/alice/insurance/current")
	if err != nil {
		t.Fatal(err)
	}
	var enr core.UserInsurance
	decode(t, cur, &enr)
	if enr.PlanID != "plus" {
		t.Fatalf("enrollment = %+v", enr)
	}

	disc, err := http.Get(srv.URL + "/users/alice/insurance/discount")
	if err != nil {
		t.Fatal(err)
	}
	var d core.DiscountCalculation
	decode(t, disc, &d)
	if d.BasisLevel != 1 {
		t.Fatalf("discount = %+v", d)
	}
}

func TestBearerAuthOnUserRoutes(t *testing.T) {
	srv, _ := newTestServer(t, Options{AuthTokens: []string{"secret-token"}})

	// plans are public
	plans, err := http.Get(srv.URL + "/insurance/plans")
	if err != nil {
		t.Fatal(err)
	}
	plans.Body.Close()
	if plans.StatusCode != http.StatusOK {
		t.Fatalf("plans status = %d", plans.StatusCode)
	}

	// user routes are not
	resp, err := http.Get(srv.URL + "/users/alice/benefits")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/users/alice/benefits", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authorized status = %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}

// brokenStore fails every operation, simulating lost storage.
type brokenStore struct{}

func (brokenStore) AddPoints(context.Context, core.UserID, int64) (core.Standing, error) {
	return core.Standing{}, errors.New("storage down")
}
func (brokenStore) Put(context.Context, core.Standing) error { return errors.New("storage down") }
func (brokenStore) Get(context.Context, core.UserID) (core.Standing, error) {
	return core.Standing{}, errors.New("storage down")
}
func (brokenStore) Clear(context.Context, core.UserID) error { return errors.New("storage down") }

func TestHealthzUnhealthyKeepsContentType(t *testing.T) {
	svc := engine.NewRewardsService(brokenStore{}, engine.NewEventBus(engine.DispatchSync), nil, nil)
	srv := httptest.NewServer(NewRouter(svc, nil, Options{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("healthz status = %d, want 503", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
	var body struct {
		Status string `json:"status"`
	}
	decode(t, resp, &body)
	if body.Status != "unhealthy" {
		t.Fatalf("status field = %q", body.Status)
	}
}

func TestPathPrefix(t *testing.T) {
	srv, _ := newTestServer(t, Options{PathPrefix: "/api"})
	resp, err := http.Get(srv.URL + "/api/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("prefixed healthz status = %d", resp.StatusCode)
	}
}
