package httpx

import (
	"context"
	"net/http"

	"github.com/mkurnia/pos-orders/internal/users"
)

// Caller identifies the authenticated staff member for one request. The
// identity collaborator in front of this service verifies credentials and
// forwards id and role; this layer trusts those headers.
type Caller struct {
	ID   string
	Role users.Role
}

type ctxKey struct{}

const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
)

// WithCaller extracts the caller from the identity headers and rejects
// requests without a valid identity.
func WithCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := Caller{
			ID:   r.Header.Get(headerUserID),
			Role: users.Role(r.Header.Get(headerUserRole)),
		}
		if c.ID == "" || !c.Role.Valid() {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, c)))
	})
}

func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}

// Require gates a route on the role permission rules.
func Require(action users.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := CallerFrom(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}
			if !users.Can(c.Role, action) {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
