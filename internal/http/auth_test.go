package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAuthGatesAPI(t *testing.T) {
	cfg := testConfig()
	cfg.AuthEmail = "me@example.com"
	cfg.AuthPassword = "hunter22"
	srv := newTestServer(t, cfg, newFakeService())

	// No session: the data API refuses.
	req := httptest.NewRequest(http.MethodGet, "/api/entries?start=2025-03-10&end=2025-03-10", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}

	// Wrong credentials.
	login := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"email":"me@example.com","password":"wrong"}`))
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, login)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", rec.Code)
	}

	// Correct credentials issue a token.
	login = httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"email":"me@example.com","password":"hunter22"}`))
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, login)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("empty session token")
	}

	// The token opens the API.
	req = httptest.NewRequest(http.MethodGet, "/api/entries?start=2025-03-10&end=2025-03-10", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Logout invalidates it.
	logout := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	logout.Header.Set("Authorization", "Bearer "+resp.Token)
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, logout)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/entries?start=2025-03-10&end=2025-03-10", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("after logout status = %d, want 401", rec.Code)
	}
}

func TestSessionCookieSurvivesForeignAuthorizationHeader(t *testing.T) {
	cfg := testConfig()
	cfg.AuthEmail = "me@example.com"
	cfg.AuthPassword = "hunter22"
	srv := newTestServer(t, cfg, newFakeService())

	login := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"email":"me@example.com","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, login)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login set no cookie")
	}

	// A proxy adding its own Basic credentials must not mask the cookie.
	req := httptest.NewRequest(http.MethodGet, "/api/entries?start=2025-03-10&end=2025-03-10", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("cookie session with foreign header: status = %d, want 200", rec.Code)
	}
}

func TestAuthDisabledRunsOpen(t *testing.T) {
	srv := newTestServer(t, testConfig(), newFakeService())

	req := httptest.NewRequest(http.MethodGet, "/api/entries?start=2025-03-10&end=2025-03-10", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("open mode status = %d, want 200", rec.Code)
	}

	// Login makes no sense without configured credentials.
	login := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"email":"a@b.c","password":"x"}`))
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, login)
	if rec.Code != http.StatusNotFound {
		t.Errorf("login without auth config: status = %d, want 404", rec.Code)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := newSessionStore(10 * time.Millisecond)
	token := store.Create()
	if !store.Valid(token) {
		t.Fatal("fresh token rejected")
	}

	time.Sleep(20 * time.Millisecond)
	if store.Valid(token) {
		t.Error("expired token accepted")
	}
	if store.Valid("") {
		t.Error("empty token accepted")
	}
}

func TestSessionStoreCleanExpired(t *testing.T) {
	store := newSessionStore(time.Nanosecond)
	store.Create()
	store.Create()
	time.Sleep(time.Millisecond)

	if removed := store.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired removed %d, want 2", removed)
	}
}
