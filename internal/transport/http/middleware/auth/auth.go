// Package auth resolves the calling principal from a bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/service/models/principal"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ctxKey struct{}

var errNoToken = errors.New("missing bearer token")

// Claims are the storefront access token claims.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks HMAC signed access tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for tokens signed with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses the token and returns the principal it names.
func (v *Verifier) Verify(token string) (principal.Principal, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return v.secret, nil
	})
	if err != nil {
		return principal.Principal{}, err
	}
	if !parsed.Valid {
		return principal.Principal{}, errors.New("invalid token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return principal.Principal{}, fmt.Errorf("invalid user id claim: %w", err)
	}

	role := principal.RoleUser
	if strings.EqualFold(claims.Role, string(principal.RoleAdmin)) {
		role = principal.RoleAdmin
	}

	return principal.Principal{UserID: userID, Role: role}, nil
}

// Middleware rejects requests without a valid token and stores the principal in the request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearer(r)
		if err == nil {
			var p principal.Principal
			if p, err = v.Verify(token); err == nil {
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))

				return
			}
		}

		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, "unauthorized: "+err.Error(), http.StatusUnauthorized)
	})
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p principal.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored by the middleware.
func FromContext(ctx context.Context) (principal.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(principal.Principal)

	return p, ok
}

func bearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errNoToken
	}

	return strings.TrimSpace(token), nil
}
