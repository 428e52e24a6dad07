package handler

import (
	"net/http"

	"golang.org/x/text/language"

	"github.com/msomdec/contact-book/internal/service"
)

// Options carries the HTTP-facing settings.
type Options struct {
	CookieSecure bool
	PageSize     int
	Locale       language.Tag
	// LoginLimiter throttles login attempts per email. Nil disables it.
	LoginLimiter *service.TokenBucket
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, contacts *service.ContactService, tokens *service.TokenIssuer, opts Options) {
	authHandler := NewAuthHandler(auth, tokens, opts.LoginLimiter, opts.CookieSecure)
	contactHandler := NewContactHandler(contacts, opts.PageSize, opts.Locale)

	protect := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(auth, tokens, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.HandleFunc("POST /api/auth/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.HandleFunc("GET /api/auth/remembered", authHandler.HandleRemembered)
	mux.Handle("GET /api/auth/me", protect(authHandler.HandleMe))

	mux.Handle("GET /api/contacts", protect(contactHandler.HandleList))
	mux.Handle("POST /api/contacts", protect(contactHandler.HandleCreate))
	mux.Handle("GET /api/contacts/view", protect(contactHandler.HandleView))
	mux.Handle("POST /api/contacts/sort/{key}", protect(contactHandler.HandleSort))
	mux.Handle("GET /api/contacts/{id}", protect(contactHandler.HandleGet))
	mux.Handle("PUT /api/contacts/{id}", protect(contactHandler.HandleUpdate))
	mux.Handle("DELETE /api/contacts/{id}", protect(contactHandler.HandleDelete))
}
