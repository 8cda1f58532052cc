package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type ctxUserKey struct{}

// withOptionalAuth puts the subject of a valid HS256 bearer token on the
// request context. It never rejects a request; guests simply carry no id.
func withOptionalAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(secret) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			if tok := bearer(r); tok != "" {
				claims := jwt.MapClaims{}
				t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
					return secret, nil
				}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
				if err == nil && t.Valid {
					if sub, _ := claims.GetSubject(); sub != "" {
						r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, sub))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// userID returns the authenticated player, or "" for guests.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserKey{}).(string)
	return id
}

func bearer(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}
