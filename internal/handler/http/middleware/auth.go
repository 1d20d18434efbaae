package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, raw, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}
		if token == nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		tokenType, ok := raw["type"].(string)
		if tokenType != "access" || !ok {
			response.Unauthorized(w, "Invalid token")
			return
		}

		// Company and user are mandatory for every attendance route.
		if _, err := jwt.ClaimsFromContext(r.Context()); err != nil {
			response.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
