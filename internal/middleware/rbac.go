package middleware

import (
	"net/http"

	"github.com/ledgerdesk/api/internal/store"
)

const (
	PermTransactionsRead   = "transactions.read"
	PermTransactionsImport = "transactions.import"
	PermTransactionsExport = "transactions.export"
)

var rolePermissions = map[string]map[string]struct{}{
	store.RoleOwner: {
		PermTransactionsRead:   {},
		PermTransactionsImport: {},
		PermTransactionsExport: {},
	},
	store.RoleAccountant: {
		PermTransactionsRead:   {},
		PermTransactionsImport: {},
		PermTransactionsExport: {},
	},
	store.RoleViewer: {
		PermTransactionsRead: {},
	},
}

func HasPermission(role, permission string) bool {
	_, ok := rolePermissions[role][permission]
	return ok
}

func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "", "Unauthorized")
				return
			}
			if !HasPermission(actor.Role, permission) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
