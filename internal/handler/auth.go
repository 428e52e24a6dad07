package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/msomdec/contact-book/internal/domain"
	"github.com/msomdec/contact-book/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth         *service.AuthService
	tokens       *service.TokenIssuer
	limiter      *service.TokenBucket
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler. A nil limiter disables login throttling.
func NewAuthHandler(auth *service.AuthService, tokens *service.TokenIssuer, limiter *service.TokenBucket, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens, limiter: limiter, cookieSecure: cookieSecure}
}

// HandleRegister processes a JSON registration request. It does not log in.
// POST /api/auth/register
// Request:  {"name":"...","email":"...","password":"..."}
// Response: {"user": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.Register(r.Context(), domain.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"email":"...","password":"...","rememberMe":true}
// Response: {"user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if h.limiter != nil && !h.limiter.Allow(strings.ToLower(req.Email)) {
		writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please wait and try again.")
		return
	}

	user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "login user", err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		slog.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}
	setAuthCookie(w, token, int(h.tokens.TTL().Seconds()), h.cookieSecure)

	remembered := ""
	if req.RememberMe {
		remembered = user.Email
	}
	if err := h.auth.SetRememberedEmail(r.Context(), remembered); err != nil {
		// The login itself succeeded; only the form pre-fill is lost.
		slog.Warn("remember email", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogout ends the session and clears the auth cookie.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		// The in-memory session is already anonymous.
		slog.Error("logout", "error", err)
	}
	setAuthCookie(w, "", -1, h.cookieSecure)

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the currently authenticated user.
// GET /api/auth/me
// Response: {"user": {...}} or 401
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleRemembered returns the email to pre-fill on the login form.
// GET /api/auth/remembered
// Response: {"email": "..."}
func (h *AuthHandler) HandleRemembered(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"email": h.auth.RememberedEmail(),
	})
}
