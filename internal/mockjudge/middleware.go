package mockjudge

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"njoj_client/internal/common"
	"njoj_client/internal/common/security"
	"njoj_client/internal/domain/model"
)

type contextKey string

const callerCtxKey contextKey = "caller"

// Authenticator requires a verified bearer token whose subject is an active
// account. jwtauth.Verifier must run earlier in the chain.
func Authenticator(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				common.RespondWithError(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			user, err := svc.Authenticate(r.Context(), userID)
			if err != nil {
				respondError(w, err)
				return
			}

			// The stored role wins over the claim so demotions apply at once.
			ctx := context.WithValue(r.Context(), callerCtxKey, Caller{ID: user.ID, Role: user.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := CallerFromContext(r.Context())
		if !ok || c.Role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerCtxKey).(Caller)
	return c, ok
}

// respondError writes err as a {"detail"} body. An *common.APIError keeps
// its status and detail; other errors map through their sentinel.
func respondError(w http.ResponseWriter, err error) {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		common.RespondWithError(w, apiErr.Status, common.Message(err, http.StatusText(apiErr.Status)))
		return
	}
	status := common.HTTPStatusFromError(err)
	common.RespondWithError(w, status, http.StatusText(status))
}
