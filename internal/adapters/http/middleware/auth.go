package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainAccount "seacomms/internal/domain/account"
	"seacomms/internal/domain/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	sessionContextKey contextKey = "session"
	tokenContextKey   contextKey = "token"
)

// SessionCookieName is the cookie carrying the session token for browser clients.
const SessionCookieName = "seacomms_session"

// SecureCookies marks the session cookie Secure. Set in production.
var SecureCookies bool

// AdminDeniedMessage is the body returned to signed-in non-admins on admin routes.
const AdminDeniedMessage = "Access denied: Admins only."

// SessionResolver turns a token into a live session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (session.Session, error)
}

// Auth returns middleware that resolves the bearer token or session cookie and
// sets the session in context. It does NOT block unauthenticated requests:
// use RequireAuth or RequireAdmin for that.
func Auth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := requestToken(r)
			if token != "" {
				sess, err := resolver.Resolve(r.Context(), token)
				switch {
				case err == nil:
					r = r.WithContext(ContextWithSession(r.Context(), sess, token))
				case fromCookie:
					ClearSessionCookie(w)
				default:
					slog.Debug("auth_event", "event", "token_rejected", "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestToken prefers the Authorization header over the cookie.
func requestToken(r *http.Request) (token string, fromCookie bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t), false
		}
	}
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// RequireAuth returns middleware that blocks unauthenticated requests.
// Browser pages are redirected to /login; API callers get 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			denyAnonymous(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns middleware that only lets allow-listed emails through.
func RequireAdmin(allow domainAccount.AllowList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSessionFromContext(r.Context())
			if !ok {
				denyAnonymous(w, r)
				return
			}
			if !domainAccount.IsAdmin(sess.Email, allow) {
				slog.Info("auth_event", "event", "admin_denied", "email", sess.Email, "path", r.URL.Path)
				http.Error(w, AdminDeniedMessage, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func denyAnonymous(w http.ResponseWriter, r *http.Request) {
	if IsAPIRequest(r) {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// IsAPIRequest reports whether r targets the JSON API.
func IsAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(session.Session)
	return sess, ok
}

// TokenFromContext returns the token the session was resolved from.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenContextKey).(string)
	return t
}

// ContextWithSession returns a context carrying sess and the token it was resolved from.
func ContextWithSession(ctx context.Context, sess session.Session, token string) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, sess)
	return context.WithValue(ctx, tokenContextKey, token)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
