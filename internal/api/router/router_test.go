package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpmiddleware "github.com/wolfman30/buyer-leads/internal/http/middleware"
	"github.com/wolfman30/buyer-leads/internal/identity"
	"github.com/wolfman30/buyer-leads/internal/leads"
	"github.com/wolfman30/buyer-leads/internal/observability/metrics"
	"github.com/wolfman30/buyer-leads/pkg/logging"
)

const leadPayload = `{
	"fullName": "Asha Rao",
	"phone": "9876543210",
	"city": "Mohali",
	"propertyType": "Apartment",
	"bhk": "2",
	"purpose": "Buy",
	"budgetMin": 2500000,
	"budgetMax": 5000000,
	"timeline": "0-3m",
	"source": "Website"
}`

var demoActor = identity.Actor{ID: "123e4567-e89b-12d3-a456-426614174000", Email: "demo@example.com"}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestRouter(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()

	logger := logging.Default()
	reg := prometheus.NewRegistry()
	svc := leads.NewService(leads.NewInMemoryRepository(), logger, leads.WithMetrics(metrics.NewLeadMetrics(reg)))

	cfg := &Config{
		Logger:         logger,
		LeadsHandler:   leads.NewHandler(svc, logger),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		DefaultActor:   demoActor,
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func postLead(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/buyers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterReadyEndpoint(t *testing.T) {
	healthy := newTestRouter(t, func(cfg *Config) {
		cfg.ReadyChecks = map[string]Pinger{"postgres": pingFunc(func(context.Context) error { return nil })}
	})
	rr := httptest.NewRecorder()
	healthy.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	down := newTestRouter(t, func(cfg *Config) {
		cfg.ReadyChecks = map[string]Pinger{"postgres": pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })}
	})
	rr = httptest.NewRecorder()
	down.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode ready response: %v", err)
	}
	if resp.Status != "unavailable" || resp.Checks["postgres"] == "ok" {
		t.Fatalf("unexpected ready response %+v", resp)
	}
}

func TestRouterCreateAndListBuyers(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := postLead(router, leadPayload)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Location"); got != "/buyers" {
		t.Fatalf("expected Location /buyers, got %q", got)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/buyers", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var list struct {
		Leads []struct {
			OwnerID string `json:"ownerId"`
		} `json:"leads"`
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 || list.Leads[0].OwnerID != demoActor.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	rr = postLead(router, leadPayload)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected duplicate to return %d, got %d", http.StatusConflict, rr.Code)
	}
}

func TestRouterRequiresTokenWhenSecretSet(t *testing.T) {
	router := newTestRouter(t, func(cfg *Config) {
		cfg.ActorAuthSecret = "secret"
	})

	rr := postLead(router, leadPayload)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}

	// reads stay open
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/buyers", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterRateLimitsSubmissions(t *testing.T) {
	limiter := httpmiddleware.NewRateLimiter(0.001, 1)
	t.Cleanup(limiter.Stop)
	router := newTestRouter(t, func(cfg *Config) {
		cfg.SubmitLimiter = limiter
	})

	if rr := postLead(router, leadPayload); rr.Code != http.StatusCreated {
		t.Fatalf("expected first submission to pass, got %d", rr.Code)
	}
	rr := postLead(router, leadPayload)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)
	postLead(router, leadPayload)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `buyerleads_leads_create_total{outcome="created"} 1`) {
		t.Fatalf("expected create counter in metrics output:\n%s", rr.Body.String())
	}
}

func TestRouterUnknownLead(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/buyers/does-not-exist", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
