package middleware

import (
	"net/http"
	"strings"

	"github.com/ledgerdesk/api/internal/auth"
)

const CSRFHeader = "X-CSRF-Token"

func csrfExempt(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// EnforceCSRF requires the session's CSRF token in the X-CSRF-Token header on
// state-changing requests. It must run after RequireAuth.
func EnforceCSRF(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if csrfExempt(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "", "Unauthorized")
				return
			}
			sent := strings.TrimSpace(r.Header.Get(CSRFHeader))
			switch {
			case sent == "":
				writeError(w, http.StatusForbidden, "CSRF_MISSING", "Missing CSRF token")
			case !auth.TokensEqual(sent, actor.CSRFToken):
				writeError(w, http.StatusForbidden, "CSRF_INVALID", "Invalid CSRF token")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
