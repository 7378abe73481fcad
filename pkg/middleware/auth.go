package middleware

import (
	"context"
	"net/http"
	"strings"

	"deskbook/pkg/auth"
	"deskbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const (
	AccountIDKey contextKey = "account_id"
	RoleKey      contextKey = "account_role"
)

// SessionAuth verifies the Bearer session token and stashes the account id
// and role in the request context.
func SessionAuth(sessions *auth.SessionManager, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				rejectUnauthorized(w, "Missing session token")
				return
			}

			claims, err := sessions.Verify(token)
			if err != nil {
				log.Warn("Session verification failed",
					"request_id", RequestID(r.Context()),
					"error", err,
					"path", r.URL.Path,
				)
				rejectUnauthorized(w, "Invalid or expired session token")
				return
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, claims.AccountID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Protect adapts SessionAuth to individual httprouter routes so a handler can
// mix public and authenticated endpoints on one router.
func Protect(sessions *auth.SessionManager, log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	authenticate := SessionAuth(sessions, log)
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next(w, r, ps)
			})).ServeHTTP(w, r)
		}
	}
}

// AccountID extracts the authenticated account id placed by SessionAuth.
func AccountID(ctx context.Context) string {
	if v := ctx.Value(AccountIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// Role extracts the authenticated account role placed by SessionAuth.
func Role(ctx context.Context) string {
	if v := ctx.Value(RoleKey); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func rejectUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
