package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	wsadapter "wellkit/adapters/websocket"
	"wellkit/core"
	"wellkit/engine"
	"wellkit/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// AuthTokens, if non-empty, enables static bearer-token auth.
	AuthTokens []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
}

// NewRouter builds an http.Handler exposing the rewards REST API and
// WebSocket stream. Routes:
//   - GET  {prefix}/users/{id}
//   - POST {prefix}/users/{id}/points
//   - GET  {prefix}/users/{id}/benefits
//   - POST {prefix}/users/{id}/benefits/claim
//   - GET  {prefix}/insurance/plans
//   - GET  {prefix}/users/{id}/insurance/current
//   - GET  {prefix}/users/{id}/insurance/discount
//   - POST {prefix}/users/{id}/insurance/enroll
//   - GET  {prefix}/healthz
//   - WS   {prefix}/ws
func NewRouter(svc *engine.RewardsService, hub *realtime.Hub, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.AllowCORSOrigin != "" {
		r.Use(corsMiddleware(opts.AllowCORSOrigin))
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		r.Use(rateLimitMiddleware(opts.RateLimitRPM, opts.RateLimitBurst))
	}

	mount := func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
			healthCheck(w, req, svc)
		})
		if hub != nil {
			r.Handle("/ws", wsadapter.Handler(hub))
		}
		r.Get("/insurance/plans", func(w http.ResponseWriter, req *http.Request) {
			plans, err := svc.Plans(req.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal", err.Error())
				return
			}
			writeJSON(w, plans)
		})

		r.Route("/users/{id}", func(r chi.Router) {
			if len(opts.AuthTokens) > 0 {
				r.Use(bearerAuthMiddleware(opts.AuthTokens))
			}
			r.Get("/", handleStanding(svc))
			r.Post("/points", handleAddPoints(svc))
			r.Get("/benefits", handleBenefits(svc))
			r.Post("/benefits/claim", handleClaim(svc))
			r.Get("/insurance/current", handleCurrentPlan(svc))
			r.Get("/insurance/discount", handleDiscount(svc))
			r.Post("/insurance/enroll", handleEnroll(svc))
		})
	}
	if prefix := routePrefix(opts.PathPrefix); prefix == "" {
		mount(r)
	} else {
		r.Route(prefix, mount)
	}
	return r
}

func userParam(req *http.Request) (core.UserID, error) {
	return core.NormalizeUserID(core.UserID(chi.URLParam(req, "id")))
}

func handleStanding(svc *engine.RewardsService) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		user, err := userParam(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", err.Error())
			return
		}
		st, err := svc.Standing(req.Context(), user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, st)
	}
}

func handleAddPoints(svc *engine.RewardsService) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		user, err := userParam(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", err.Error())
			return
		}
		var body struct {
			Points int64 `json:"points"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "points must be an integer")
			return
		}
		st, err := svc.AddPoints(req.Context(), user, body.Points)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		writeJSON(w, map[string]any{
			"points":      body.Points,
			"level":       st.Level,
			"totalPoints": st.Points,
		})
	}
}

func handleBenefits(svc *engine.RewardsService) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		user, err := userParam(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", err.Error())
			return
		}
		ub, err := svc.Benefits(req.Context(), user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, ub)
	}
}

func handleClaim(svc *engine.RewardsService) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		user, err := userParam(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", err.Error())
			return
		}
		var body struct {
			BenefitID string `json:"benefitId"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "benefitId is required")
			return
		}
		resp, err := svc.Claim(req.Context(), user, body.BenefitID)
		switch {
		case errors.Is(err, core.ErrNotEligible):
			writeError(w, http.StatusConflict, "not_eligible", resp.Message)
		case errors.Is(err, core.ErrAlreadyClaimed):
			writeError(w, http.StatusConflict, "already_claimed", resp.Message)
		case err != nil:
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		default:
			writeJSON(w, resp)
		}
	}
}

func handleCurrentPlan(svc *engine.RewardsService) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		user, err := userParam(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", err.Error())
			return
		}
		enr, err := svc.CurrentPlan(req.Context(), user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		if enr == nil {
			writeError(w, http.StatusNotFound, "not_found", "no enrollment")
			return
		}
		writeJSON(w, enr)
	}
}

func handleDiscount(svc *engine.RewardsService) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		user, err := userParam(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", err.Error())
			return
		}
		d, err := svc.Discount(req.Context(), user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, d)
	}
}

func handleEnroll(svc *engine.RewardsService) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		user, err := userParam(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", err.Error())
			return
		}
		var body struct {
			PlanID string `json:"planId"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "planId is required")
			return
		}
		msg, err := svc.Enroll(req.Context(), user, body.PlanID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "enroll_rejected", err.Error())
			return
		}
		writeJSON(w, map[string]string{"message": msg})
	}
}

// Helpers

// healthCheck verifies the service is working properly
func healthCheck(w http.ResponseWriter, r *http.Request, svc *engine.RewardsService) {
	ctx := r.Context()

	// Verify storage works by trying to fetch a dummy user
	// This is a safe, lightweight check that doesn't affect real data
	dummyUser := core.UserID("healthcheck_user")
	_, err := svc.Standing(ctx, dummyUser)

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{
			"storage": "ok",
		},
	}
	code := http.StatusOK
	if err != nil {
		code = http.StatusServiceUnavailable
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
	}
	writeJSONStatus(w, code, status)
}

func routePrefix(prefix string) string {
	return strings.TrimSuffix(prefix, "/")
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg})
}

// corsMiddleware applies a minimal CORS policy.
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerAuthMiddleware enforces a static bearer-token list on user routes.
func bearerAuthMiddleware(tokens []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			allowed[tok] = struct{}{}
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			if _, ok := allowed[tok]; !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware applies a simple token-bucket limiter per client key.
func rateLimitMiddleware(rpm, burst int) func(http.Handler) http.Handler {
	limiter := newRateLimiter(rpm, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(clientKey(r)) {
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// clientKey uses the bearer token if present, otherwise remote IP.
func clientKey(r *http.Request) string {
	if tok := extractBearer(r); tok != "" {
		return tok
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	rpm   float64
	burst float64
	mu    sync.Mutex
	b     map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(rpm, burst int) *rateLimiter {
	return &rateLimiter{
		rpm:   float64(rpm),
		burst: float64(burst),
		b:     make(map[string]*bucket),
	}
}

func (l *rateLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.b[key]
	if !ok {
		l.b[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}

	elapsed := now.Sub(b.last).Minutes()
	b.tokens += elapsed * l.rpm
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	if b.tokens < 1 {
		b.last = now
		return false
	}
	b.tokens--
	b.last = now
	return true
}
