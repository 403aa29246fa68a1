package transport

import (
	"net/http"

	"github.com/ghxstship/marketplace/internal/permission"
	"github.com/ghxstship/marketplace/model"
)

func handleGetUserRoles(resolver *permission.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.MustRequestContext(r.Context())

		roles, err := resolver.GetUserRoles(r.Context(), rctx.OrgID, rctx.UserID)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, roles)
	}
}
