package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRouterServesHealthEndpoints(t *testing.T) {
	router := NewRouter(WithHealthHandlers(NewHealthHandlers(
		WithHealthRepository(&stubHealthRepository{}),
	)))

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestRouterNotFoundIsJSON(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["error"] != errorNotFoundCode {
		t.Fatalf("error = %v, want %s", body["error"], errorNotFoundCode)
	}
}

func TestRouterUnconfiguredGroupsReturnNotImplemented(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rr.Code)
	}
}

func TestRouterMountsRegistrars(t *testing.T) {
	router := NewRouter(WithItemRoutes(func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			writeJSONResponse(w, http.StatusOK, map[string]any{"items": []any{}})
		})
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
}
