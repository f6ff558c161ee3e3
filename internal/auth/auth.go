package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/config"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/httputil"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/logger"
)

// GoogleUserInfo is the profile returned by Google's userinfo endpoint.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	HD            string `json:"hd"` // hosted Workspace domain
}

// Session is an authenticated admin session. Sessions live in process
// memory; a restart logs everyone out.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager handles Google OAuth login for portal administrators. When auth
// is disabled in config every request passes through, which is the
// development default.
type Manager struct {
	cfg          config.AuthConfig
	oauth2Config *oauth2.Config
	sessions     map[string]*Session
	sessionMu    sync.RWMutex
}

// NewManager creates an authentication manager. baseURL is the externally
// reachable origin the OAuth callback is registered under.
func NewManager(cfg config.AuthConfig, baseURL string) *Manager {
	return &Manager{
		cfg: cfg,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  baseURL + "/auth/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		sessions: make(map[string]*Session),
	}
}

// Enabled reports whether authentication is enforced.
func (m *Manager) Enabled() bool { return m.cfg.Enabled }

// randomToken returns 32 bytes of URL-safe randomness for OAuth state and
// session IDs.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HandleLogin starts the Google OAuth flow.
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randomToken()
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// hd narrows the Google account picker to the allowed domain. The
	// callback still verifies the email's domain.
	url := m.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline) + "&hd=" + m.cfg.AllowedDomain
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// HandleCallback finishes the OAuth flow: verifies state, exchanges the
// code, checks the account's domain, and creates a session.
func (m *Manager) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil {
		logger.Warn("auth callback without state cookie")
		http.Redirect(w, r, "/?error=invalid_state", http.StatusTemporaryRedirect)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		logger.Warn("auth state mismatch")
		http.Redirect(w, r, "/?error=invalid_state", http.StatusTemporaryRedirect)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		logger.Warn("google returned oauth error", "error", errMsg)
		http.Redirect(w, r, "/?error="+errMsg, http.StatusTemporaryRedirect)
		return
	}

	code := r.URL.Query().Get("code")
	token, err := m.oauth2Config.Exchange(r.Context(), code)
	if err != nil {
		logger.Error("oauth code exchange failed", "error", err.Error())
		http.Redirect(w, r, "/?error=exchange_failed", http.StatusTemporaryRedirect)
		return
	}

	userInfo, err := m.getUserInfo(token.AccessToken)
	if err != nil {
		logger.Error("fetching google user info failed", "error", err.Error())
		http.Redirect(w, r, "/?error=userinfo_failed", http.StatusTemporaryRedirect)
		return
	}

	parts := strings.Split(userInfo.Email, "@")
	if len(parts) != 2 || parts[1] != m.cfg.AllowedDomain {
		logger.Warn("login from disallowed domain", "email", userInfo.Email)
		http.Redirect(w, r, "/?error=domain_not_allowed", http.StatusTemporaryRedirect)
		return
	}

	sessionID, err := randomToken()
	if err != nil {
		http.Redirect(w, r, "/?error=session_failed", http.StatusTemporaryRedirect)
		return
	}

	session := &Session{
		UserID:    userInfo.ID,
		Email:     userInfo.Email,
		Name:      userInfo.Name,
		Picture:   userInfo.Picture,
		Domain:    userInfo.HD,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Duration(m.cfg.CookieMaxAge) * time.Second),
	}

	m.sessionMu.Lock()
	m.sessions[sessionID] = session
	m.sessionMu.Unlock()

	logger.Info("admin logged in", "email", userInfo.Email)

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   m.cfg.CookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleLogout drops the session and clears the cookie.
func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(m.cfg.CookieName); err == nil {
		m.sessionMu.Lock()
		delete(m.sessions, cookie.Value)
		m.sessionMu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:   m.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleUserInfo reports the current session for the portal shell. School
// context is not part of the session; it travels per request in the
// X-School-ID header.
func (m *Manager) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	session := m.GetSession(r)
	if session == nil {
		httputil.JSON(w, http.StatusUnauthorized, map[string]interface{}{
			"authenticated": false,
		})
		return
	}

	httputil.OK(w, map[string]interface{}{
		"authenticated": true,
		"user": map[string]string{
			"id":      session.UserID,
			"email":   session.Email,
			"name":    session.Name,
			"picture": session.Picture,
			"domain":  session.Domain,
		},
	})
}

// GetSession returns the request's session, or nil when unauthenticated.
// Expired sessions are dropped on access.
func (m *Manager) GetSession(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return nil
	}

	m.sessionMu.RLock()
	session, exists := m.sessions[cookie.Value]
	m.sessionMu.RUnlock()

	if !exists {
		return nil
	}

	if time.Now().After(session.ExpiresAt) {
		m.sessionMu.Lock()
		delete(m.sessions, cookie.Value)
		m.sessionMu.Unlock()
		return nil
	}

	return session
}

// IsAuthenticated reports whether the request carries a live session.
func (m *Manager) IsAuthenticated(r *http.Request) bool {
	return m.GetSession(r) != nil
}

// RequireAuth gates requests behind a session. Auth endpoints, health
// probes, and locally served media stay open; unauthenticated API calls
// get a 401; anything else falls through so the frontend can show its
// login screen. A disabled manager passes everything.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/auth/") ||
			strings.HasPrefix(r.URL.Path, "/health") ||
			strings.HasPrefix(r.URL.Path, "/media/") {
			next.ServeHTTP(w, r)
			return
		}

		if !m.IsAuthenticated(r) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				httputil.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getUserInfo fetches the user's profile from Google.
func (m *Manager) getUserInfo(accessToken string) (*GoogleUserInfo, error) {
	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google API error: %s", string(body))
	}

	var userInfo GoogleUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}

	return &userInfo, nil
}

// ValidateCredentials probes Google's token endpoint with a dummy code at
// boot. Google answers invalid_grant when the client is fine and
// invalid_client when the ID or secret is wrong, so stale credentials
// surface before the first login attempt.
func (m *Manager) ValidateCredentials(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	vals := fmt.Sprintf("grant_type=authorization_code&code=validation_probe&client_id=%s&client_secret=%s&redirect_uri=%s",
		m.oauth2Config.ClientID, m.oauth2Config.ClientSecret, m.oauth2Config.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, "POST", google.Endpoint.TokenURL, strings.NewReader(vals))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("token endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	if strings.Contains(bodyStr, "invalid_grant") ||
		strings.Contains(bodyStr, "invalid_request") ||
		strings.Contains(bodyStr, "redirect_uri_mismatch") {
		return nil
	}
	if strings.Contains(bodyStr, "invalid_client") {
		return fmt.Errorf("google OAuth client rejected: check google_client_id and google_client_secret")
	}

	return fmt.Errorf("unexpected response from Google token endpoint (HTTP %d): %s", resp.StatusCode, bodyStr)
}

// StartSessionSweeper drops expired sessions every 5 minutes until ctx is
// cancelled.
func (m *Manager) StartSessionSweeper(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweepExpired()
			}
		}
	}()
}

func (m *Manager) sweepExpired() {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()
	now := time.Now()
	for id, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
}
