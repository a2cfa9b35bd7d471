package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/workforcehq/workforce-backend-go/internal/domain/user"
	"github.com/workforcehq/workforce-backend-go/internal/handler/http/response"
)

func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, user.ErrInvalidActorClaims)
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.HandleError(w, user.ErrInvalidActorClaims)
				return
			}
			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, user.ErrInvalidActorClaims)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

// ActorFromRequest builds the acting identity from the verified token claims.
// The identity provider is trusted as given; roles are not re-checked here.
func ActorFromRequest(r *http.Request) (user.Actor, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return user.Actor{}, user.ErrInvalidActorClaims
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return user.Actor{}, user.ErrInvalidActorClaims
	}
	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return user.Actor{}, user.ErrInvalidActorClaims
	}

	role := user.RoleEmployee
	if admin, ok := claims["is_admin"].(bool); ok && admin {
		role = user.RoleAdmin
	}

	return user.Actor{
		UserID:     userID,
		EmployeeID: employeeID,
		Role:       role,
	}, nil
}
