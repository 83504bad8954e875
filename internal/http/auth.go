package http

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

const sessionCookie = "session_token"

// sessionStore keeps opaque session tokens with a fixed TTL. Tokens live in
// memory only; a restart logs everyone out, which is acceptable for a
// single-user tool.
type sessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]time.Time // token -> expiry
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:      ttl,
		sessions: make(map[string]time.Time),
	}
}

// Create issues a fresh random token.
func (s *sessionStore) Create() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing means the process is in deep trouble anyway
		panic(err)
	}
	token := hex.EncodeToString(bytes)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = time.Now().Add(s.ttl)
	return token
}

// Valid reports whether the token exists and has not expired.
func (s *sessionStore) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.sessions, token)
		return false
	}
	return true
}

// Destroy removes a token.
func (s *sessionStore) Destroy(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// CleanExpired sweeps expired sessions; implements cache.Cleaner.
func (s *sessionStore) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for token, expiry := range s.sessions {
		if now.After(expiry) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// handleLogin checks the configured credentials and issues a session token,
// returned both as JSON and as a cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.authEnabled {
		writeError(w, http.StatusNotFound, "authentication is not configured")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login payload")
		return
	}

	if !s.credentialsMatch(req.Email, req.Password) {
		s.logger.WarnContext(r.Context(), "Login rejected", "client_ip", clientIP(r))
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := requestToken(r); token != "" {
		s.sessions.Destroy(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// requireSession gates the data API. With no credentials configured the API
// runs open for local development.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authEnabled && !s.sessions.Valid(requestToken(r)) {
			writeError(w, http.StatusUnauthorized, "session required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// credentialsMatch compares in constant time so timing does not leak which
// field was wrong.
func (s *Server) credentialsMatch(email, password string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.authEmail)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.authPassword)) == 1
	return emailOK && passwordOK
}

// requestToken pulls the session token from a Bearer Authorization header,
// falling back to the session cookie. A non-Bearer header (a proxy's Basic
// credentials, say) does not block the cookie.
func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			return auth[len(prefix):]
		}
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
