package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/config"
)

func testManager(enabled bool) *Manager {
	return NewManager(config.AuthConfig{
		Enabled:       enabled,
		AllowedDomain: "conect.one",
		CookieName:    "portal_session",
		CookieMaxAge:  3600,
	}, "http://localhost:8080")
}

func TestRequireAuthDisabled(t *testing.T) {
	m := testManager(false)

	called := false
	h := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/schools", nil))

	if !called {
		t.Error("disabled auth must pass requests through")
	}
}

func TestRequireAuthBlocksAPI(t *testing.T) {
	m := testManager(true)

	h := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for an unauthenticated API request")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/schools", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthOpenPaths(t *testing.T) {
	m := testManager(true)

	for _, path := range []string{"/auth/login", "/health", "/health/ready", "/media/images/x.jpg"} {
		called := false
		h := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
		if !called {
			t.Errorf("%s should be reachable without a session", path)
		}
	}
}

func TestHandleLoginRedirects(t *testing.T) {
	m := testManager(true)

	rec := httptest.NewRecorder()
	m.HandleLogin(rec, httptest.NewRequest("GET", "/auth/login", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.Contains(loc, "accounts.google.com") {
		t.Errorf("unexpected redirect target: %s", loc)
	}
	if !strings.Contains(loc, "hd=conect.one") {
		t.Errorf("redirect should pin the hosted domain: %s", loc)
	}

	var stateCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			stateCookie = c
		}
	}
	if stateCookie == nil || stateCookie.Value == "" {
		t.Error("expected an oauth_state cookie")
	}
}

func TestSessionLifecycle(t *testing.T) {
	m := testManager(true)

	m.sessions["session-1"] = &Session{
		UserID:    "u1",
		Email:     "thandi@conect.one",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	req := httptest.NewRequest("GET", "/api/v1/schools", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: "session-1"})

	session := m.GetSession(req)
	if session == nil || session.Email != "thandi@conect.one" {
		t.Fatalf("expected a live session, got %+v", session)
	}

	called := false
	h := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Error("authenticated request should reach the handler")
	}

	m.HandleLogout(httptest.NewRecorder(), req)
	if m.GetSession(req) != nil {
		t.Error("session should be gone after logout")
	}
}

func TestExpiredSessionDropped(t *testing.T) {
	m := testManager(true)

	m.sessions["stale"] = &Session{
		UserID:    "u1",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: "stale"})

	if m.GetSession(req) != nil {
		t.Error("expired session should be rejected")
	}
	if _, ok := m.sessions["stale"]; ok {
		t.Error("expired session should be deleted on access")
	}
}

func TestSweepExpired(t *testing.T) {
	m := testManager(true)
	m.sessions["live"] = &Session{ExpiresAt: time.Now().Add(time.Hour)}
	m.sessions["dead"] = &Session{ExpiresAt: time.Now().Add(-time.Hour)}

	m.sweepExpired()

	if _, ok := m.sessions["live"]; !ok {
		t.Error("live session swept")
	}
	if _, ok := m.sessions["dead"]; ok {
		t.Error("dead session survived the sweep")
	}
}
