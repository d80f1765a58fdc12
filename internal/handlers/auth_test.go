package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/muebleria/api/internal/domain"
	"github.com/muebleria/api/internal/services"
)

func newAuthRouter(svc services.AuthService) chi.Router {
	h := NewAuthHandlers(svc)
	r := chi.NewRouter()
	r.Route("/auth", h.Routes)
	return r
}

func TestRegisterEndpoint(t *testing.T) {
	var captured services.RegisterCommand
	svc := &stubAuthService{
		registerFn: func(_ context.Context, cmd services.RegisterCommand) (domain.UserAccount, error) {
			captured = cmd
			return domain.UserAccount{
				ID:        "usr_1",
				Username:  "carla",
				Email:     "carla@example.com",
				Role:      domain.RoleUser,
				CreatedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	router := newAuthRouter(svc)

	body := `{"username":"Carla","email":"carla@example.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}
	if captured.Username != "Carla" || captured.Password != "longenough" {
		t.Fatalf("unexpected command: %+v", captured)
	}

	var payload userPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.ID != "usr_1" || payload.Role != "user" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if strings.Contains(rr.Body.String(), "longenough") {
		t.Fatalf("password leaked into response")
	}
}

func TestRegisterEndpointConflict(t *testing.T) {
	svc := &stubAuthService{
		registerFn: func(_ context.Context, cmd services.RegisterCommand) (domain.UserAccount, error) {
			return domain.UserAccount{}, services.ErrAuthUsernameTaken
		},
	}
	router := newAuthRouter(svc)

	body := `{"username":"carla","email":"carla@example.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
}

func TestRegisterEndpointRejectsEmptyBody(t *testing.T) {
	router := newAuthRouter(&stubAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	svc := &stubAuthService{
		loginFn: func(_ context.Context, cmd services.LoginCommand) (services.Session, error) {
			return services.Session{
				Token:     "signed-token",
				ExpiresAt: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
				User:      domain.UserAccount{ID: "usr_1", Username: "carla", Role: domain.RoleUser},
			}, nil
		},
	}
	router := newAuthRouter(svc)

	body := `{"username":"carla","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var payload sessionPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Token != "signed-token" || payload.User.Username != "carla" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestLoginEndpointInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{
		loginFn: func(_ context.Context, cmd services.LoginCommand) (services.Session, error) {
			return services.Session{}, services.ErrAuthInvalidCredentials
		},
	}
	router := newAuthRouter(svc)

	body := `{"username":"carla","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
