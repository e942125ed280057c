package httpapi

import (
	"net/http"
	"testing"

	"pdvbalcao/backend/internal/domain"
)

func TestEndpointsRequireSession(t *testing.T) {
	handler, _ := newTestAPI(t)

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/categories"},
		{http.MethodGet, "/api/v1/products"},
		{http.MethodGet, "/api/v1/sales"},
		{http.MethodPost, "/api/v1/sales/purge"},
		{http.MethodGet, "/api/v1/dashboard?start_date=2024-01-01&end_date=2024-01-31"},
	}
	for _, ep := range protected {
		rec := doJSON(t, handler, ep.method, ep.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status %d, want 401", ep.method, ep.path, rec.Code)
		}
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d, want 401", rec.Code)
	}
}

func TestActivationRateLimited(t *testing.T) {
	handler, _ := newTestAPI(t)

	bad := domain.ActivationRequest{ClientName: "Mercadinho Teste", LicenseKey: "WRONG"}
	var last int
	// The helper already burned one attempt activating; hammer the rest.
	for i := 0; i < 6; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/session/activate", "", bad)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("final attempt: status %d, want 429", last)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler, token := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/categories", token, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE categories: status %d, want 405", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/session/activate", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET activate: status %d, want 405", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler, _ := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodOptions, "/api/v1/products", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: status %d, want 204", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "http://127.0.0.1:3000" {
		t.Fatalf("allow-origin = %q", origin)
	}
}
