package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/buyer-leads/internal/identity"
)

// ActorClaims is the token payload naming the acting user.
type ActorClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ActorAuth puts the acting user into the request context.
// With a secret, an HMAC-signed bearer token is required; its subject must be a
// UUID and becomes the actor id. Without a secret every request acts as fallback.
func ActorAuth(secret string, fallback identity.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				if !fallback.Valid() {
					http.Error(w, "actor auth disabled", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), fallback)))
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := ActorClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			id, err := uuid.Parse(claims.Subject)
			if err != nil {
				http.Error(w, "invalid token subject", http.StatusUnauthorized)
				return
			}

			actor := identity.Actor{ID: id.String(), Email: strings.TrimSpace(claims.Email)}
			next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), actor)))
		})
	}
}
