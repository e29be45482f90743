package http

import (
	"context"
	"net/http"
	"time"

	"budgeteer/internal/auth"
	"budgeteer/internal/core"
	"budgeteer/internal/log"
)

const sessionCookie = "session"

type identityKey struct{}

func withIdentity(ctx context.Context, id core.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// identityFrom returns the identity stored by requireUser.
func identityFrom(ctx context.Context) (core.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(core.Identity)
	return id, ok
}

func currentIdentity(r *http.Request) core.Identity {
	id, _ := identityFrom(r.Context())
	return id
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// setSession stores the token in an HttpOnly, SameSite=Lax cookie. Lax keeps
// cross-site POSTs from carrying the session.
func (s *Server) setSession(w http.ResponseWriter, sess auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// requireUser resolves the session cookie into an identity. Anonymous HTMX
// requests get a 401 with HX-Redirect, plain requests a redirect to /login.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			s.redirectToLogin(w, r)
			return
		}
		id, err := s.auth.CurrentUser(r.Context(), token)
		if err != nil {
			s.clearSession(w)
			s.redirectToLogin(w, r)
			return
		}
		ctx := withIdentity(r.Context(), id)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, id.ID))
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NewHTMXResponse().Status(http.StatusUnauthorized).Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
