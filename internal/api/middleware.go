package api

import (
	"context"
	"net/http"
	"strings"

	"magazyn-dokumentow/internal/auth"
	"magazyn-dokumentow/internal/models"
)

type contextKey string

const identityContextKey = contextKey("identity")

func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		tokenString := headerParts[1]

		claims, err := auth.VerifyJWT(tokenString, s.config.JWT.Secret)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ident := models.Identity{
			UserID:      claims.UserID,
			Username:    claims.Username,
			DisplayName: claims.DisplayName,
			GroupIDs:    claims.Groups,
		}

		ctx := context.WithValue(r.Context(), identityContextKey, ident)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetIdentityFromContext(ctx context.Context) models.Identity {
	if ident, ok := ctx.Value(identityContextKey).(models.Identity); ok {
		return ident
	}
	return models.Identity{}
}
