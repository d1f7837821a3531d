package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/course-marketplace/internal/apperror"
	"github.com/sakif/course-marketplace/internal/identity"
)

// UnauthorizedMessage is the reply for every rejected educator request.
const UnauthorizedMessage = "Unauthorized Access"

// SessionCookie is the cookie the identity provider's browser SDK sets.
const SessionCookie = "__session"

// contextKey is unexported so no other package can read or shadow our values.
type contextKey string

const userIDKey contextKey = "userID"

// RoleSource resolves the current role of a principal.
// identity.Provider satisfies it.
type RoleSource interface {
	GetUser(ctx context.Context, id string) (*identity.Principal, error)
}

// Authenticate records who is calling. A valid bearer token (or session
// cookie) puts its subject into the request context; a missing or invalid
// one leaves the request anonymous. It never rejects; the Require*
// middlewares below do that.
func Authenticate(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := tokenFromRequest(r); raw != "" {
				if userID, err := tokens.Validate(raw); err == nil {
					r = r.WithContext(WithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated lets only requests with a principal through.
//
// Rejections are soft: HTTP 200 with {"success":false,"message":...}. The
// web client reads the success flag, not the status code.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			denied(w, UnauthorizedMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireEducator lets only educators through. The role is looked up on every
// request, so a promotion takes effect on the very next call.
//
// A failed lookup is reported with the error text, or a generic message
// unless exposeErrors is set.
func RequireEducator(roles RoleSource, logger *slog.Logger, exposeErrors bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				denied(w, UnauthorizedMessage)
				return
			}

			principal, err := roles.GetUser(r.Context(), userID)
			if err != nil {
				logger.Error("role lookup failed",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				denied(w, apperror.PublicMessage(err, exposeErrors))
				return
			}
			if err := educatorOnly(principal); err != nil {
				denied(w, apperror.PublicMessage(err, exposeErrors))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// educatorOnly rejects principals without the educator role.
func educatorOnly(p *identity.Principal) error {
	if !p.IsEducator() {
		return apperror.Forbidden(UnauthorizedMessage)
	}
	return nil
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// tokenFromRequest prefers "Authorization: Bearer <jwt>" and falls back to
// the session cookie, which same-site browser requests carry automatically.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func denied(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
